package engine

import (
	"context"
	"net"

	el "echonet-node/echonet_lite"
)

// resolveTargets expands deoj per the instance-0 wildcard rule and the
// node-profile {0,1,2} aliasing, returning every locally served EOJ the
// datagram actually addresses. ok is false when nothing matches and the
// datagram must be dropped.
func (e *Engine) resolveTargets(deoj el.EOJ) (targets []el.EOJ, ok bool) {
	if e.node.IsNodeProfile(deoj) {
		return []el.EOJ{e.node.Eoj()}, true
	}
	if deoj.InstanceCode() == 0 {
		instances := e.node.Instances(deoj)
		if len(instances) == 0 {
			return nil, false
		}
		return instances, true
	}
	if _, found := e.node.Store(deoj); found {
		return []el.EOJ{deoj}, true
	}
	return nil, false
}

// dispatch is invoked once per received, successfully decoded datagram. It
// expands instance-0 wildcards and runs the per-ESV reply policy once for
// each resolved target object.
func (e *Engine) dispatch(ctx context.Context, srcIP net.IP, msg *el.ECHONETLiteMessage) {
	targets, ok := e.resolveTargets(msg.DEOJ)
	if !ok {
		e.log("dropping datagram for unserved EOJ %v from %v", msg.DEOJ, srcIP)
		return
	}

	for _, target := range targets {
		e.dispatchOne(srcIP, msg, target)
	}
}

func (e *Engine) dispatchOne(srcIP net.IP, msg *el.ECHONETLiteMessage, target el.EOJ) {
	opc := len(msg.Properties)

	switch msg.ESV {
	case el.ESVSetI:
		replyProps, anyFail := e.processSet(srcIP, msg, target, opc)
		if !anyFail {
			return // silent success
		}
		e.replyUnicast(srcIP, msg, target, el.ESVSetI_SNA, replyProps)

	case el.ESVSetC:
		replyProps, anyFail := e.processSet(srcIP, msg, target, opc)
		esv := el.ESVSet_Res
		if anyFail {
			esv = el.ESVSetC_SNA
		}
		e.replyUnicast(srcIP, msg, target, esv, replyProps)

	case el.ESVGet:
		replyProps, anyFail := e.processGet(srcIP, msg, target, opc)
		esv := el.ESVGet_Res
		if anyFail {
			esv = el.ESVGet_SNA
		}
		e.replyUnicast(srcIP, msg, target, esv, replyProps)

	case el.ESVINF_REQ:
		replyProps, anyFail := e.processGet(srcIP, msg, target, opc)
		if anyFail {
			e.replyUnicast(srcIP, msg, target, el.ESVINF_REQ_SNA, replyProps)
			return
		}
		e.replyMulticast(msg, target, el.ESVINF, replyProps)

	case el.ESVINFC:
		replyProps, anyFail := e.processGet(srcIP, msg, target, opc)
		if anyFail {
			e.replyUnicast(srcIP, msg, target, el.ESVINF_REQ_SNA, replyProps)
			return
		}
		e.replyUnicast(srcIP, msg, target, el.ESVINFC_Res, replyProps)

	case el.ESVSetGet:
		// Recognition-only: the dual-OPC SETGET grammar is parsed by the
		// codec but not dispatched as SET+GET; this core applies the same
		// all-or-INF policy as INF_REQ, a deliberate stub rather than a
		// full implementation.
		replyProps, anyFail := e.processGet(srcIP, msg, target, opc)
		if anyFail {
			e.replyUnicast(srcIP, msg, target, el.ESVINF_REQ_SNA, replyProps)
			return
		}
		e.replyMulticast(msg, target, el.ESVINF, replyProps)

	default:
		// Response ESVs, *_SNA variants, and plain INF: observational only.
		for _, p := range msg.Properties {
			if e.OnInf != nil {
				e.OnInf(srcIP, msg.TID, msg.SEOJ, target, msg.ESV, opc, p.EPC, p.EDT)
			}
		}
	}
}

// processSet runs the SETI/SETC per-EPC policy: unknown EPC or a rejecting
// user callback both count as failure and echo the originally requested
// value; acceptance writes through Update (so autonomous INF still fires)
// and reports a zero-length positive acknowledgement.
func (e *Engine) processSet(srcIP net.IP, msg *el.ECHONETLiteMessage, target el.EOJ, opc int) (el.Properties, bool) {
	reply := make(el.Properties, 0, len(msg.Properties))
	anyFail := false

	for _, p := range msg.Properties {
		e.mu.Lock()
		s, found := e.node.Store(target)
		_, present := false, false
		if found {
			_, present = s.Get(p.EPC)
		}
		e.mu.Unlock()

		if !found || !present {
			reply = append(reply, el.Property{EPC: p.EPC, EDT: p.EDT})
			anyFail = true
			continue
		}

		accepted := true
		if e.OnSet != nil {
			accepted = e.OnSet(srcIP, msg.TID, msg.SEOJ, target, msg.ESV, opc, p.EPC, p.EDT)
		}
		if !accepted {
			reply = append(reply, el.Property{EPC: p.EPC, EDT: p.EDT})
			anyFail = true
			continue
		}

		_ = e.Update(target, p.EPC, p.EDT)
		reply = append(reply, el.Property{EPC: p.EPC, EDT: []byte{}})
	}
	return reply, anyFail
}

// processGet runs the GET/INF_REQ/INFC/SETGET-stub per-EPC policy. The GET
// callback observes every requested EPC, present or absent, with the EDT it
// found (nil when absent) before the presence check decides the reply: an
// absent value is a failure reported with PDC=0, a present value is
// reported as-is.
func (e *Engine) processGet(srcIP net.IP, msg *el.ECHONETLiteMessage, target el.EOJ, opc int) (el.Properties, bool) {
	reply := make(el.Properties, 0, len(msg.Properties))
	anyFail := false

	for _, p := range msg.Properties {
		e.mu.Lock()
		s, found := e.node.Store(target)
		var rec struct {
			EDT []byte
		}
		present := false
		if found {
			if r, ok := s.Get(p.EPC); ok {
				rec.EDT = r.EDT
				present = true
			}
		}
		e.mu.Unlock()

		if e.OnGet != nil {
			e.OnGet(srcIP, msg.TID, msg.SEOJ, target, msg.ESV, opc, p.EPC, rec.EDT)
		}

		if !present {
			reply = append(reply, el.Property{EPC: p.EPC, EDT: nil})
			anyFail = true
			continue
		}

		reply = append(reply, el.Property{EPC: p.EPC, EDT: rec.EDT})
	}
	return reply, anyFail
}

// buildReply applies the reply framing rule: SEOJ becomes the object that
// actually answered, DEOJ becomes the requester's declared object, and the
// inbound TID is echoed unchanged.
func buildReply(msg *el.ECHONETLiteMessage, target el.EOJ, esv el.ESVType, props el.Properties) *el.ECHONETLiteMessage {
	return &el.ECHONETLiteMessage{
		TID:        msg.TID,
		SEOJ:       target,
		DEOJ:       msg.SEOJ,
		ESV:        esv,
		Properties: props,
	}
}

func (e *Engine) replyUnicast(dst net.IP, msg *el.ECHONETLiteMessage, target el.EOJ, esv el.ESVType, props el.Properties) {
	reply := buildReply(msg, target, esv, props)
	if err := e.sendUnicast(dst, reply.Encode()); err != nil {
		e.log("socket error sending reply to %v: %v", dst, err)
	}
}

func (e *Engine) replyMulticast(msg *el.ECHONETLiteMessage, target el.EOJ, esv el.ESVType, props el.Properties) {
	reply := buildReply(msg, target, esv, props)
	if err := e.conn.SendMulticast(reply.Encode()); err != nil {
		e.log("socket error sending multicast reply: %v", err)
	}
}
