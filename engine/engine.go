// Package engine implements the ECHONET Lite protocol engine: the receive
// loop, the ESV dispatcher, the TID generator, and the send primitives. It
// is the sole mutator of the node's property stores once running, and owns
// the one mutex that serializes all store and TID access, mirroring the
// locking discipline the teacher's Session type used around its device
// cache.
package engine

import (
	"context"
	"fmt"
	"net"
	"sync"

	el "echonet-node/echonet_lite"
	lg "echonet-node/echonet_lite/log"
	"echonet-node/network"
	"echonet-node/node"
	"echonet-node/store"
)

// ControllerEOJ is the conventional destination object used for autonomous
// INF emission: 05 FF 01, the generic controller instance.
var ControllerEOJ = el.MakeEOJ(el.Controller_ClassCode, 1)

// SetCallback decides whether a SET on (eoj, epc) with the given EDT is
// accepted. Returning false marks that EPC a per-EPC failure for the
// reply. opc is the total property count carried by the originating
// request, exposed for parity with the collaborator interface even though
// most implementations ignore it.
type SetCallback func(ip net.IP, tid el.TIDType, seoj, deoj el.EOJ, esv el.ESVType, opc int, epc el.EPCType, edt []byte) bool

// GetCallback and InfCallback are observational: their return values do not
// affect protocol behavior, matching the "observational" wording in the
// component design for GET and INF/response verbs.
type GetCallback func(ip net.IP, tid el.TIDType, seoj, deoj el.EOJ, esv el.ESVType, opc int, epc el.EPCType, edt []byte) bool
type InfCallback func(ip net.IP, tid el.TIDType, seoj, deoj el.EOJ, esv el.ESVType, opc int, epc el.EPCType, edt []byte) bool

// Conn is the subset of *network.UDPConnection the engine needs: receive,
// multicast send, and close. Narrowed to an interface so dispatch and the
// startup/autonomous-INF paths can be driven in tests against an in-memory
// fake instead of a real bound socket.
type Conn interface {
	Receive(ctx context.Context) ([]byte, *net.UDPAddr, error)
	SendMulticast(data []byte) error
	Close() error
}

// Engine owns the node's stores, the UDP connection, the TID counter, and
// the single mutex serializing access to both. Two states: constructed
// (zero value plus New) and running (after Begin).
type Engine struct {
	mu          sync.Mutex
	node        *node.Node
	conn        Conn
	sendUnicast func(ip net.IP, data []byte) error
	tid         el.TIDType

	OnSet SetCallback
	OnGet GetCallback
	OnInf InfCallback
}

// New wraps a constructed node and a not-yet-opened connection. Call Begin
// to bind the socket, start the receive loop, and emit the startup INFs.
func New(n *node.Node) *Engine {
	return &Engine{node: n, sendUnicast: network.SendUnicast}
}

func (e *Engine) log(format string, v ...interface{}) {
	if l := lg.GetLogger(); l != nil {
		l.Log(format, v...)
	}
}

// nextTID allocates the next TID under the node lock; callers must not call
// this while holding the lock themselves.
func (e *Engine) nextTID() el.TIDType {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tid
	e.tid++
	return t
}

// Begin binds the receive socket, joins the multicast group, and starts
// the receive loop in a new goroutine. Before returning, it emits the
// two startup INFs (EPC 0x80 and 0xD5) from the node profile.
func (e *Engine) Begin(ctx context.Context, egressIface *net.Interface) error {
	conn, err := network.Open(egressIface)
	if err != nil {
		return fmt.Errorf("engine: begin: %w", err)
	}
	e.conn = conn

	go e.receiveLoop(ctx)

	e.emitStartupINFs()
	return nil
}

// Close releases the receive socket. There is no defined transition back
// to constructed; a closed engine must be discarded.
func (e *Engine) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

func (e *Engine) emitStartupINFs() {
	profile := e.node.Profile
	for _, epc := range []el.EPCType{el.EPCOperationStatus, el.EPC_NPO_InstanceListNotification} {
		e.mu.Lock()
		rec, ok := profile.Get(epc)
		e.mu.Unlock()
		if !ok {
			continue
		}
		e.sendMulticastINF(e.node.Eoj(), epc, rec.EDT)
	}
}

func (e *Engine) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, addr, err := e.conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.log("socket error on receive: %v", err)
			continue
		}
		if data == nil {
			continue // read timeout or self-packet, loop again
		}

		msg, err := el.ParseECHONETLiteMessage(data)
		if err != nil {
			e.log("dropping malformed datagram from %v: %v", addr, err)
			continue
		}
		e.dispatch(ctx, addr.IP, msg)
	}
}

// Update writes a value locally (not via a SET request) and, if epc is in
// the object's INF map and is not one of the property-map EPCs themselves,
// emits an autonomous multicast INF.
func (e *Engine) Update(eoj el.EOJ, epc el.EPCType, edt []byte) error {
	e.mu.Lock()
	s, ok := e.node.Store(eoj)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("engine: update: %v not served by this node", eoj)
	}
	s.SetValue(epc, edt)
	shouldNotify := s.HasInf(epc) && epc != store.EPCStatusAnnouncementPropertyMap &&
		epc != store.EPCSetPropertyMap && epc != store.EPCGetPropertyMap
	e.mu.Unlock()

	if shouldNotify {
		e.sendMulticastINF(eoj, epc, edt)
	}
	return nil
}

func (e *Engine) sendMulticastINF(seoj el.EOJ, epc el.EPCType, edt []byte) {
	tid := e.nextTID()
	msg := &el.ECHONETLiteMessage{
		TID:        tid,
		SEOJ:       seoj,
		DEOJ:       ControllerEOJ,
		ESV:        el.ESVINF,
		Properties: el.Properties{{EPC: epc, EDT: edt}},
	}
	if err := e.conn.SendMulticast(msg.Encode()); err != nil {
		e.log("socket error sending autonomous INF: %v", err)
	}
}
