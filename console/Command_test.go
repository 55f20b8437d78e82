package console

import (
	"testing"

	el "echonet-node/echonet_lite"
	"echonet-node/store"
)

type stubController struct {
	objects []el.EOJ
	stores  map[el.EOJ]*store.Store
}

func (s *stubController) Objects() []el.EOJ { return s.objects }

func (s *stubController) GetProperty(eoj el.EOJ, epc el.EPCType) (store.Record, bool) {
	st, ok := s.stores[eoj]
	if !ok {
		return store.Record{}, false
	}
	return st.Get(epc)
}

func (s *stubController) Properties(eoj el.EOJ) ([]el.EPCType, bool) {
	st, ok := s.stores[eoj]
	if !ok {
		return nil, false
	}
	return st.EPCs(), true
}

func (s *stubController) PropertyMap(eoj el.EOJ, kind store.Kind) ([]el.EPCType, bool) {
	st, ok := s.stores[eoj]
	if !ok {
		return nil, false
	}
	return st.GetMap(kind), true
}

func (s *stubController) SetLocalProperty(eoj el.EOJ, epc el.EPCType, edt []byte) error {
	st, ok := s.stores[eoj]
	if !ok {
		return nil
	}
	st.SetValue(epc, edt)
	return nil
}

func TestParseCommand_GetSet(t *testing.T) {
	cmd, err := ParseCommand("get 0130:1 80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Type != CmdGet || cmd.EPC != 0x80 {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd, err = ParseCommand("set profile 80 30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Type != CmdSet || cmd.EOJ != el.NodeProfileObjectInstance {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if len(cmd.EDT) != 1 || cmd.EDT[0] != 0x30 {
		t.Fatalf("unexpected EDT: %X", cmd.EDT)
	}
}

func TestParseCommand_SetByAlias(t *testing.T) {
	cmd, err := ParseCommand("set profile 80 on")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Type != CmdSet || cmd.EPC != el.EPCOperationStatus {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if len(cmd.EDT) != 1 || cmd.EDT[0] != 0x30 {
		t.Fatalf("unexpected EDT for alias 'on': %X", cmd.EDT)
	}

	cmd, err = ParseCommand("set profile on")
	if err != nil {
		t.Fatalf("unexpected error for two-argument alias form: %v", err)
	}
	if cmd.Type != CmdSet || cmd.EPC != el.EPCOperationStatus || len(cmd.EDT) != 1 || cmd.EDT[0] != 0x30 {
		t.Fatalf("unexpected command from 'set profile on': %+v", cmd)
	}
}

func TestParseCommand_SetUnknownAlias(t *testing.T) {
	if _, err := ParseCommand("set profile nonexistent-alias"); err == nil {
		t.Fatal("expected error for unknown alias")
	}
}

func TestParseCommand_Aliases(t *testing.T) {
	cmd, err := ParseCommand("aliases profile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Type != CmdAliases || cmd.EOJ != el.NodeProfileObjectInstance {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestParseCommand_UnknownCommand(t *testing.T) {
	if _, err := ParseCommand("frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestParseCommand_BadArity(t *testing.T) {
	if _, err := ParseCommand("get 0130:1"); err == nil {
		t.Fatal("expected error for missing epc argument")
	}
}

func TestStubController_SetThenGet(t *testing.T) {
	eoj := el.MakeEOJ(0x0130, 1)
	st := store.New()
	st.SetValue(0x80, []byte{0x30})

	ctrl := &stubController{
		objects: []el.EOJ{eoj},
		stores:  map[el.EOJ]*store.Store{eoj: st},
	}

	if err := ctrl.SetLocalProperty(eoj, 0x80, []byte{0x31}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, ok := ctrl.GetProperty(eoj, 0x80)
	if !ok || rec.PDC() != 1 || rec.EDT[0] != 0x31 {
		t.Fatalf("unexpected record after set: %+v", rec)
	}
}
