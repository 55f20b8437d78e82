package engine

import (
	el "echonet-node/echonet_lite"
	"echonet-node/store"
)

// The methods in this file are the engine's local-administration surface:
// they let a caller (the console, a demo program) inspect and mutate the
// node's property stores under the same lock the receive loop uses,
// without going through the wire protocol. SetLocalProperty is the one
// local-write path, identical to Update — kept as a distinct name so
// callers reading the console code don't have to know Update is also the
// autonomous-INF trigger.

// Objects returns every locally served EOJ: the node-profile object
// followed by each configured device object, in construction order.
func (e *Engine) Objects() []el.EOJ {
	e.mu.Lock()
	defer e.mu.Unlock()
	objs := make([]el.EOJ, 0, 1+len(e.node.DeviceEOJs()))
	objs = append(objs, e.node.Eoj())
	objs = append(objs, e.node.DeviceEOJs()...)
	return objs
}

// GetProperty returns the value record stored for (eoj, epc).
func (e *Engine) GetProperty(eoj el.EOJ, epc el.EPCType) (store.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.node.Store(eoj)
	if !ok {
		return store.Record{}, false
	}
	return s.Get(epc)
}

// Properties returns every EPC currently holding a value record for eoj,
// in no particular order.
func (e *Engine) Properties(eoj el.EOJ) ([]el.EPCType, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.node.Store(eoj)
	if !ok {
		return nil, false
	}
	return s.EPCs(), true
}

// PropertyMap returns the EPC list for one of the INF/SET/GET
// property-map sets of eoj, in no particular order; the order in which the
// map was configured is not kept.
func (e *Engine) PropertyMap(eoj el.EOJ, kind store.Kind) ([]el.EPCType, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.node.Store(eoj)
	if !ok {
		return nil, false
	}
	return s.GetMap(kind), true
}

// SetLocalProperty writes edt to (eoj, epc) exactly as Update does,
// including autonomous INF emission when epc is in the object's INF map.
// This is the console's "set" command path: a local administrative write,
// not a SETI/SETC reply cycle.
func (e *Engine) SetLocalProperty(eoj el.EOJ, epc el.EPCType, edt []byte) error {
	return e.Update(eoj, epc, edt)
}
