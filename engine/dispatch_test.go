package engine

import (
	"context"
	"net"
	"testing"

	el "echonet-node/echonet_lite"
	"echonet-node/node"
)

// fakeConn is an in-memory Conn fake: Receive blocks until ctx is done (the
// dispatch tests below never rely on receiveLoop, only on calling dispatch
// directly), and SendMulticast records every outbound frame.
type fakeConn struct {
	multicast [][]byte
}

func (f *fakeConn) Receive(ctx context.Context) ([]byte, *net.UDPAddr, error) {
	<-ctx.Done()
	return nil, nil, ctx.Err()
}

func (f *fakeConn) SendMulticast(data []byte) error {
	f.multicast = append(f.multicast, data)
	return nil
}

func (f *fakeConn) Close() error { return nil }

type unicastSend struct {
	ip   net.IP
	data []byte
}

func newTestEngine(deviceEOJs []el.EOJ) (*Engine, *fakeConn, *[]unicastSend) {
	n := node.New(deviceEOJs, node.AddressInfo{MAC: [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}})
	conn := &fakeConn{}
	var sent []unicastSend
	e := &Engine{node: n, conn: conn}
	e.sendUnicast = func(ip net.IP, data []byte) error {
		sent = append(sent, unicastSend{ip: ip, data: data})
		return nil
	}
	return e, conn, &sent
}

var controllerIP = net.ParseIP("192.0.2.1")

func decodeOrFatal(t *testing.T, data []byte) *el.ECHONETLiteMessage {
	t.Helper()
	msg, err := el.ParseECHONETLiteMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestDispatch_SETI_SilentSuccess(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, conn, sent := newTestEngine([]el.EOJ{deviceEOJ})

	// installation location (0x81) is not in the device's INF map, so the
	// accepted SETI produces neither a unicast reply nor a multicast INF.
	req := &el.ECHONETLiteMessage{
		TID:        1,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       deviceEOJ,
		ESV:        el.ESVSetI,
		Properties: el.Properties{{EPC: 0x81, EDT: []byte{0x01}}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 0 {
		t.Fatalf("expected no unicast reply, got %d", len(*sent))
	}
	if len(conn.multicast) != 0 {
		t.Fatalf("expected no multicast INF, got %d", len(conn.multicast))
	}

	s, _ := e.node.Store(deviceEOJ)
	r, ok := s.Get(0x81)
	if !ok || len(r.EDT) != 1 || r.EDT[0] != 0x01 {
		t.Fatalf("expected store to be updated, got %+v", r)
	}
}

func TestDispatch_SETC_AcceptedTriggersINF(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, conn, sent := newTestEngine([]el.EOJ{deviceEOJ})

	// 0x80 (operation status) IS in the device's INF map.
	req := &el.ECHONETLiteMessage{
		TID:        3,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       deviceEOJ,
		ESV:        el.ESVSetC,
		Properties: el.Properties{{EPC: 0x80, EDT: []byte{0x31}}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 1 {
		t.Fatalf("expected one unicast Set_Res, got %d", len(*sent))
	}
	reply := decodeOrFatal(t, (*sent)[0].data)
	if reply.ESV != el.ESVSet_Res || reply.TID != 3 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.Properties) != 1 || reply.Properties[0].EPC != 0x80 || len(reply.Properties[0].EDT) != 0 {
		t.Fatalf("Set_Res should echo EPC with PDC=0, got %+v", reply.Properties)
	}
	if reply.SEOJ != deviceEOJ || reply.DEOJ != req.SEOJ {
		t.Fatalf("unexpected reply addressing: SEOJ=%v DEOJ=%v", reply.SEOJ, reply.DEOJ)
	}

	if len(conn.multicast) != 1 {
		t.Fatalf("expected one autonomous INF, got %d", len(conn.multicast))
	}
	inf := decodeOrFatal(t, conn.multicast[0])
	if inf.ESV != el.ESVINF || inf.SEOJ != deviceEOJ || inf.DEOJ != ControllerEOJ {
		t.Fatalf("unexpected autonomous INF: %+v", inf)
	}
	if len(inf.Properties) != 1 || inf.Properties[0].EPC != 0x80 || string(inf.Properties[0].EDT) != "\x31" {
		t.Fatalf("unexpected INF payload: %+v", inf.Properties)
	}
}

func TestDispatch_SETI_MixedResultRepliesSNA(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, _, sent := newTestEngine([]el.EOJ{deviceEOJ})

	req := &el.ECHONETLiteMessage{
		TID:  4,
		SEOJ: el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ: deviceEOJ,
		ESV:  el.ESVSetI,
		Properties: el.Properties{
			{EPC: 0x81, EDT: []byte{0x02}}, // settable, accepted
			{EPC: 0x7F, EDT: []byte{0x00}}, // unknown EPC, rejected
		},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 1 {
		t.Fatalf("expected one SETI_SNA reply, got %d", len(*sent))
	}
	reply := decodeOrFatal(t, (*sent)[0].data)
	if reply.ESV != el.ESVSetI_SNA {
		t.Fatalf("expected ESVSetI_SNA, got %v", reply.ESV)
	}
	if len(reply.Properties) != 2 {
		t.Fatalf("expected both EPCs echoed, got %+v", reply.Properties)
	}
	if reply.Properties[0].EPC != 0x81 || len(reply.Properties[0].EDT) != 0 {
		t.Fatalf("accepted EPC should echo PDC=0, got %+v", reply.Properties[0])
	}
	if reply.Properties[1].EPC != 0x7F || len(reply.Properties[1].EDT) != 1 || reply.Properties[1].EDT[0] != 0x00 {
		t.Fatalf("rejected EPC should echo original EDT, got %+v", reply.Properties[1])
	}
}

func TestDispatch_GET_PowerOnScenario(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, _, sent := newTestEngine([]el.EOJ{deviceEOJ})

	data := []byte{0x10, 0x81, 0x00, 0x01, 0x05, 0xFF, 0x01, 0x02, 0x90, 0x01, 0x62, 0x01, 0x80, 0x00}
	req := decodeOrFatal(t, data)
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 1 {
		t.Fatalf("expected one Get_Res reply, got %d", len(*sent))
	}
	want := []byte{0x10, 0x81, 0x00, 0x01, 0x02, 0x90, 0x01, 0x05, 0xFF, 0x01, 0x72, 0x01, 0x80, 0x01, 0x30}
	if string((*sent)[0].data) != string(want) {
		t.Fatalf("unexpected reply bytes:\n got  % X\n want % X", (*sent)[0].data, want)
	}
}

func TestDispatch_GET_UnknownEPC(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, _, sent := newTestEngine([]el.EOJ{deviceEOJ})

	data := []byte{0x10, 0x81, 0x00, 0x02, 0x05, 0xFF, 0x01, 0x02, 0x90, 0x01, 0x62, 0x01, 0x7F, 0x00}
	req := decodeOrFatal(t, data)
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 1 {
		t.Fatalf("expected one Get_SNA reply, got %d", len(*sent))
	}
	want := []byte{0x10, 0x81, 0x00, 0x02, 0x02, 0x90, 0x01, 0x05, 0xFF, 0x01, 0x52, 0x01, 0x7F, 0x00}
	if string((*sent)[0].data) != string(want) {
		t.Fatalf("unexpected reply bytes:\n got  % X\n want % X", (*sent)[0].data, want)
	}
}

func TestDispatch_GET_OnGetObservesEveryEPC(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, _, sent := newTestEngine([]el.EOJ{deviceEOJ})

	type call struct {
		epc     el.EPCType
		edt     []byte
		present bool
	}
	var calls []call
	e.OnGet = func(ip net.IP, tid el.TIDType, seoj, deoj el.EOJ, esv el.ESVType, opc int, epc el.EPCType, edt []byte) bool {
		calls = append(calls, call{epc: epc, edt: edt, present: edt != nil})
		return true
	}

	req := &el.ECHONETLiteMessage{
		TID:  10,
		SEOJ: el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ: deviceEOJ,
		ESV:  el.ESVGet,
		Properties: el.Properties{
			{EPC: 0x80, EDT: nil}, // present in the store
			{EPC: 0x7F, EDT: nil}, // unknown EPC, absent
		},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 1 {
		t.Fatalf("expected one Get_SNA reply, got %d", len(*sent))
	}
	if len(calls) != 2 {
		t.Fatalf("expected OnGet to fire for both EPCs, got %d calls: %+v", len(calls), calls)
	}
	if calls[0].epc != 0x80 || !calls[0].present {
		t.Fatalf("expected first call to observe present EPC 0x80, got %+v", calls[0])
	}
	if calls[1].epc != 0x7F || calls[1].present {
		t.Fatalf("expected second call to observe absent EPC 0x7F, got %+v", calls[1])
	}
}

func TestDispatch_INFREQ_SuccessGoesMulticast(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, conn, sent := newTestEngine([]el.EOJ{deviceEOJ})

	req := &el.ECHONETLiteMessage{
		TID:        4,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       deviceEOJ,
		ESV:        el.ESVINF_REQ,
		Properties: el.Properties{{EPC: 0x80, EDT: nil}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 0 {
		t.Fatalf("expected no unicast reply, got %d", len(*sent))
	}
	if len(conn.multicast) != 1 {
		t.Fatalf("expected one multicast INF reply, got %d", len(conn.multicast))
	}
	reply := decodeOrFatal(t, conn.multicast[0])
	if reply.ESV != el.ESVINF || reply.TID != 4 {
		t.Fatalf("unexpected multicast reply: %+v", reply)
	}
	if len(reply.Properties) != 1 || reply.Properties[0].EPC != 0x80 || string(reply.Properties[0].EDT) != "\x30" {
		t.Fatalf("unexpected payload: %+v", reply.Properties)
	}
}

func TestDispatch_INFREQ_FailureGoesUnicastSNA(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, conn, sent := newTestEngine([]el.EOJ{deviceEOJ})

	req := &el.ECHONETLiteMessage{
		TID:        5,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       deviceEOJ,
		ESV:        el.ESVINF_REQ,
		Properties: el.Properties{{EPC: 0x7F, EDT: nil}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(conn.multicast) != 0 {
		t.Fatalf("expected no multicast reply on failure, got %d", len(conn.multicast))
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one unicast INF_REQ_SNA, got %d", len(*sent))
	}
	reply := decodeOrFatal(t, (*sent)[0].data)
	if reply.ESV != el.ESVINF_REQ_SNA {
		t.Fatalf("expected ESVINF_REQ_SNA, got %v", reply.ESV)
	}
}

func TestDispatch_INFC(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, _, sent := newTestEngine([]el.EOJ{deviceEOJ})

	req := &el.ECHONETLiteMessage{
		TID:        6,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       deviceEOJ,
		ESV:        el.ESVINFC,
		Properties: el.Properties{{EPC: 0x80, EDT: nil}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 1 {
		t.Fatalf("expected one unicast INFC_Res, got %d", len(*sent))
	}
	reply := decodeOrFatal(t, (*sent)[0].data)
	if reply.ESV != el.ESVINFC_Res {
		t.Fatalf("expected ESVINFC_Res, got %v", reply.ESV)
	}
}

func TestDispatch_InstanceZeroFanout(t *testing.T) {
	eoj1 := el.MakeEOJ(0x0290, 1)
	eoj2 := el.MakeEOJ(0x0290, 2)
	e, _, sent := newTestEngine([]el.EOJ{eoj1, eoj2})

	req := &el.ECHONETLiteMessage{
		TID:        7,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       el.MakeEOJ(0x0290, 0), // instance-0 wildcard
		ESV:        el.ESVGet,
		Properties: el.Properties{{EPC: 0x80, EDT: nil}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 2 {
		t.Fatalf("expected two fanned-out replies, got %d", len(*sent))
	}
	seen := map[el.EOJ]bool{}
	for _, s := range *sent {
		reply := decodeOrFatal(t, s.data)
		seen[reply.SEOJ] = true
	}
	if !seen[eoj1] || !seen[eoj2] {
		t.Fatalf("expected replies from both instances, got %+v", seen)
	}
}

func TestDispatch_UnservedEOJDropped(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, conn, sent := newTestEngine([]el.EOJ{deviceEOJ})

	req := &el.ECHONETLiteMessage{
		TID:        8,
		SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
		DEOJ:       el.MakeEOJ(0x0130, 1), // never configured
		ESV:        el.ESVGet,
		Properties: el.Properties{{EPC: 0x80, EDT: nil}},
	}
	e.dispatch(context.Background(), controllerIP, req)

	if len(*sent) != 0 || len(conn.multicast) != 0 {
		t.Fatalf("expected datagram to be dropped silently, got sent=%d multicast=%d", len(*sent), len(conn.multicast))
	}
}

func TestDispatch_NodeProfileAliasing(t *testing.T) {
	deviceEOJ := el.MakeEOJ(0x0290, 1)
	e, _, sent := newTestEngine([]el.EOJ{deviceEOJ})

	for _, instance := range []el.EOJInstanceCode{0, 1, 2} {
		*sent = nil
		req := &el.ECHONETLiteMessage{
			TID:        9,
			SEOJ:       el.MakeEOJ(el.Controller_ClassCode, 1),
			DEOJ:       el.MakeEOJ(el.NodeProfile_ClassCode, instance),
			ESV:        el.ESVGet,
			Properties: el.Properties{{EPC: 0x80, EDT: nil}},
		}
		e.dispatch(context.Background(), controllerIP, req)

		if len(*sent) != 1 {
			t.Fatalf("instance %d: expected one reply, got %d", instance, len(*sent))
		}
		reply := decodeOrFatal(t, (*sent)[0].data)
		if reply.SEOJ != el.NodeProfileObjectInstance {
			t.Fatalf("instance %d: expected reply SEOJ to be the profile's own instance, got %v", instance, reply.SEOJ)
		}
	}
}

func TestNextTID_Wraparound(t *testing.T) {
	e, _, _ := newTestEngine(nil)
	e.tid = 0xFFFF

	if got := e.nextTID(); got != 0xFFFF {
		t.Fatalf("expected 0xFFFF, got %04X", got)
	}
	if got := e.nextTID(); got != 0x0000 {
		t.Fatalf("expected wraparound to 0x0000, got %04X", got)
	}
}

func TestUpdate_RejectsUnservedEOJ(t *testing.T) {
	e, _, _ := newTestEngine(nil)
	if err := e.Update(el.MakeEOJ(0x0290, 1), 0x80, []byte{0x30}); err == nil {
		t.Fatal("expected error for unserved EOJ")
	}
}
