// Package store implements the per-object property database: a mapping
// from EPC to a value record, plus the three property-map sets (INF, SET,
// GET) an object advertises. Locking is the caller's responsibility — the
// engine package serializes all access under one node-wide mutex, the same
// discipline the teacher's Session/Devices map used for its device cache.
package store

import (
	el "echonet-node/echonet_lite"
)

// Kind identifies which of the three property-map sets an operation targets.
type Kind int

const (
	INF Kind = iota
	SET
	GET
)

const (
	EPCStatusAnnouncementPropertyMap = el.EPCStatusAnnouncementPropertyMap // 0x9D
	EPCSetPropertyMap                = el.EPCSetPropertyMap               // 0x9E
	EPCGetPropertyMap                = el.EPCGetPropertyMap               // 0x9F
)

func mapEPCFor(kind Kind) el.EPCType {
	switch kind {
	case INF:
		return EPCStatusAnnouncementPropertyMap
	case SET:
		return EPCSetPropertyMap
	case GET:
		return EPCGetPropertyMap
	}
	panic("store: unknown map kind")
}

// Record is a single property value: PDC is always len(EDT).
type Record struct {
	EDT []byte
}

func (r Record) PDC() int { return len(r.EDT) }

// Store holds one object's EPC→value map and its three property-map sets.
// Not safe for concurrent use without external locking.
type Store struct {
	values map[el.EPCType]Record
	maps   [3]el.PropertyMap
}

// New returns an empty store with empty INF/SET/GET maps.
func New() *Store {
	return &Store{
		values: make(map[el.EPCType]Record),
		maps: [3]el.PropertyMap{
			INF: make(el.PropertyMap),
			SET: make(el.PropertyMap),
			GET: make(el.PropertyMap),
		},
	}
}

// Get returns the value record for epc and whether it is present.
func (s *Store) Get(epc el.EPCType) (Record, bool) {
	r, ok := s.values[epc]
	return r, ok
}

// SetValue writes a value record, creating the entry if absent.
func (s *Store) SetValue(epc el.EPCType, edt []byte) {
	s.values[epc] = Record{EDT: edt}
}

// GetMap returns the EPC list for the given property-map kind, in no
// particular order (the wire encoding does not preserve insertion order
// either; see PropertyMap.Encode).
func (s *Store) GetMap(kind Kind) []el.EPCType {
	return s.maps[kind].EPCs()
}

// HasInf, HasSet, HasGet are membership tests into the three property-map
// sets.
func (s *Store) HasInf(epc el.EPCType) bool { return s.maps[INF].Has(epc) }
func (s *Store) HasSet(epc el.EPCType) bool { return s.maps[SET].Has(epc) }
func (s *Store) HasGet(epc el.EPCType) bool { return s.maps[GET].Has(epc) }

// SetMap replaces the set for kind and re-encodes the corresponding
// 0x9D/0x9E/0x9F value record, per the property-map EDT encoding rule.
func (s *Store) SetMap(kind Kind, epcs []el.EPCType) {
	m := make(el.PropertyMap, len(epcs))
	for _, e := range epcs {
		m.Set(e)
	}
	s.maps[kind] = m
	s.values[mapEPCFor(kind)] = Record{EDT: m.Encode()}
}

// AddToMap adds a single EPC to the named map and re-encodes its value
// record, preserving the other members.
func (s *Store) AddToMap(kind Kind, epc el.EPCType) {
	s.maps[kind].Set(epc)
	s.values[mapEPCFor(kind)] = Record{EDT: s.maps[kind].Encode()}
}

// EPCs returns every EPC with a value record, in no particular order; used
// by the console and by class-list/instance-list derivation diagnostics.
func (s *Store) EPCs() []el.EPCType {
	epcs := make([]el.EPCType, 0, len(s.values))
	for epc := range s.values {
		epcs = append(epcs, epc)
	}
	return epcs
}
