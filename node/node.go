// Package node builds and pre-populates the property stores for a single
// ECHONET Lite node: the always-present node-profile object and one store
// per operator-configured device object. It derives the profile's instance
// and class list properties once, at construction, the way the teacher's
// Devices cache is built once from a configuration snapshot rather than
// recomputed on every access.
package node

import (
	el "echonet-node/echonet_lite"
	"echonet-node/store"
)

// AddressInfo is the collaborator interface the node needs from the host
// environment: a MAC address to embed in the identification-number
// property (EPC 0x83). It carries no IP address; the multicast egress
// interface is handed to engine.Begin separately. How the MAC is obtained
// (interface enumeration, OS queries, …) is outside the core.
type AddressInfo struct {
	MAC [6]byte
}

// MakerCode is the 3-byte vendor identifier embedded in EPC 0x8A and as part
// of EPC 0x83. Fixed at 00 00 77 per the spec's embedded-constants note;
// exposed as a var so a retargeted build can override it.
var MakerCode = [3]byte{0x00, 0x00, 0x77}

// Node owns the node-profile store and one store per configured device
// object. It holds no lock of its own: the engine package serializes all
// access under a single node-wide mutex (see the concurrency model).
type Node struct {
	Profile *store.Store
	eoj     el.EOJ // 0E F0 01, the node profile's own identity

	devices    map[el.EOJ]*store.Store
	deviceList []el.EOJ // construction order, preserved for D5/D6/D7 derivation
}

// New constructs a node hosting the given device EOJs (instance must be
// nonzero; 0 is a wildcard, never a real object identity) and pre-populates
// every store per the spec's required-property tables. The instance list,
// class list, and counts are derived once here and never recomputed.
func New(deviceEOJs []el.EOJ, addr AddressInfo) *Node {
	n := &Node{
		eoj:        el.NodeProfileObjectInstance,
		devices:    make(map[el.EOJ]*store.Store, len(deviceEOJs)),
		deviceList: append([]el.EOJ(nil), deviceEOJs...),
	}

	for _, eoj := range deviceEOJs {
		n.devices[eoj] = newDeviceStore(eoj, addr)
	}
	n.Profile = newProfileStore(n.deviceList, addr)
	return n
}

func newDeviceStore(eoj el.EOJ, addr AddressInfo) *store.Store {
	s := store.New()
	s.SetValue(el.EPCOperationStatus, []byte{0x30})
	s.SetValue(el.EPCInstallationLocation, []byte{0x00})
	s.SetValue(el.EPCStandardVersion, []byte{0x00, 0x00, 0x52, 0x01})
	s.SetValue(el.EPCIdentificationNumber, identificationNumber(eoj, addr.MAC))
	s.SetValue(el.EPCFaultStatus, []byte{0x42})
	s.SetValue(el.EPCManufacturerCode, MakerCode[:])

	s.SetMap(store.INF, []el.EPCType{el.EPCOperationStatus, el.EPC_NPO_SelfNodeInstanceListS, el.EPCFaultStatus})
	s.SetMap(store.SET, []el.EPCType{el.EPCOperationStatus, el.EPCInstallationLocation})
	s.SetMap(store.GET, []el.EPCType{
		el.EPCOperationStatus, el.EPCInstallationLocation, el.EPCStandardVersion,
		el.EPCIdentificationNumber, el.EPCFaultStatus, el.EPCManufacturerCode,
		store.EPCStatusAnnouncementPropertyMap, store.EPCSetPropertyMap, store.EPCGetPropertyMap,
	})
	return s
}

func newProfileStore(deviceEOJs []el.EOJ, addr AddressInfo) *store.Store {
	s := store.New()
	s.SetValue(el.EPCOperationStatus, []byte{0x30})
	s.SetValue(el.EPC_NPO_VersionInfo, []byte{0x01, 0x0d, 0x01, 0x00})
	s.SetValue(el.EPCIdentificationNumber, identificationNumber(el.NodeProfileObjectInstance, addr.MAC))
	s.SetValue(el.EPCFaultStatus, []byte{0x42})
	s.SetValue(el.EPCManufacturerCode, MakerCode[:])
	s.SetValue(el.EPC_NPO_IndividualID, []byte{0x00, 0x00})

	_, classes := deriveInstanceAndClassLists(deviceEOJs)

	instances := el.InstanceList(append([]el.EOJ(nil), deviceEOJs...))
	notif := el.InstanceListNotification(instances)
	selfList := el.SelfNodeInstanceListS(instances)
	instanceProps := el.PropertiesForESVSet(&notif, &selfList)

	s.SetValue(el.EPC_NPO_SelfNodeInstances, instanceCount(len(deviceEOJs)))
	s.SetValue(el.EPC_NPO_SelfNodeClasses, classCount(int(classes[0])))
	s.SetValue(instanceProps[0].EPC, instanceProps[0].EDT) // D5: instance list notification
	s.SetValue(instanceProps[1].EPC, instanceProps[1].EDT) // D6: self-node instance list S
	s.SetValue(el.EPC_NPO_SelfNodeClassListS, classes)

	s.SetMap(store.INF, []el.EPCType{el.EPCOperationStatus, el.EPC_NPO_InstanceListNotification})
	s.SetMap(store.SET, []el.EPCType{el.EPCOperationStatus})
	s.SetMap(store.GET, []el.EPCType{
		el.EPCOperationStatus, el.EPC_NPO_VersionInfo, el.EPCIdentificationNumber, el.EPCFaultStatus,
		el.EPCManufacturerCode, store.EPCStatusAnnouncementPropertyMap, store.EPCSetPropertyMap, store.EPCGetPropertyMap,
		el.EPC_NPO_SelfNodeInstances, el.EPC_NPO_SelfNodeClasses,
		el.EPC_NPO_InstanceListNotification, el.EPC_NPO_SelfNodeInstanceListS, el.EPC_NPO_SelfNodeClassListS,
	})
	return s
}

// identificationNumber builds EPC 0x83's EDT: FE, maker code (3), the host
// MAC (6), the object's own EOJ (3), then four reserved zero bytes — 17
// bytes total. The node profile and every device object share this shape;
// only the embedded EOJ differs between them.
func identificationNumber(eoj el.EOJ, mac [6]byte) []byte {
	edt := make([]byte, 0, 17)
	edt = append(edt, 0xfe)
	edt = append(edt, MakerCode[:]...)
	edt = append(edt, mac[:]...)
	edt = append(edt, eoj.Encode()...)
	edt = append(edt, 0x00, 0x00, 0x00, 0x00)
	return edt
}

func instanceCount(n int) []byte {
	return []byte{0x00, 0x00, byte(n)}
}

func classCount(n int) []byte {
	return []byte{0x00, byte(n)}
}

// deriveInstanceAndClassLists computes D5/D6 (instance list, via
// el.InstanceList.EDT()) and D7 (class list, deduplicated in
// first-occurrence order) from the configured device EOJs. Computed once at
// construction time and never regenerated.
func deriveInstanceAndClassLists(deviceEOJs []el.EOJ) (instanceList, classList []byte) {
	instances := el.InstanceList(append([]el.EOJ(nil), deviceEOJs...))
	instanceList = instances.EDT()

	seen := make(map[el.EOJClassCode]bool)
	var classCodes []el.EOJClassCode
	for _, eoj := range deviceEOJs {
		cc := eoj.ClassCode()
		if !seen[cc] {
			seen[cc] = true
			classCodes = append(classCodes, cc)
		}
	}
	classList = append(classList, byte(len(classCodes)))
	for _, cc := range classCodes {
		classList = append(classList, byte(cc.ClassGroupCode()), byte(cc.ClassCode()))
	}
	return instanceList, classList
}

// Eoj returns the node-profile object's own identity, 0E F0 01.
func (n *Node) Eoj() el.EOJ { return n.eoj }

// IsNodeProfile reports whether eoj addresses the node-profile object.
// Instances 0, 1 and 2 of class 0EF0 all resolve to it.
func (n *Node) IsNodeProfile(eoj el.EOJ) bool {
	if eoj.ClassCode() != el.NodeProfile_ClassCode {
		return false
	}
	switch eoj.InstanceCode() {
	case 0, 1, 2:
		return true
	}
	return false
}

// Store returns the property store serving eoj exactly (no instance-0
// expansion — that is the engine's job before calling Store).
func (n *Node) Store(eoj el.EOJ) (*store.Store, bool) {
	if n.IsNodeProfile(eoj) {
		return n.Profile, true
	}
	s, ok := n.devices[eoj]
	return s, ok
}

// Instances returns every configured device instance sharing eoj's
// class-group and class, in construction order. Used by the engine to
// expand an instance-0 wildcard DEOJ.
func (n *Node) Instances(eoj el.EOJ) []el.EOJ {
	cc := eoj.ClassCode()
	var result []el.EOJ
	for _, e := range n.deviceList {
		if e.ClassCode() == cc {
			result = append(result, e)
		}
	}
	return result
}

// DeviceEOJs returns every configured device EOJ in construction order.
func (n *Node) DeviceEOJs() []el.EOJ {
	return append([]el.EOJ(nil), n.deviceList...)
}
