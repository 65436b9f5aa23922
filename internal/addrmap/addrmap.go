// Package addrmap maps file offsets to machine addresses and back.
//
// A map is a list of regions, identified by start offset and length, that each
// assign an address to their first byte. Regions can be nested and multiple
// regions can share an address range because of overlays or bank switching,
// so resolving an address to an offset takes the location of the reference into
// account.
//
// The list of entries is the authoritative structure. A containment tree and a
// linear list of change events are derived from it after every change. Changes
// are rare and maps are small, so both are rebuilt from scratch.
//
// A Map is not safe for concurrent mutation. Lookups can run in parallel as long
// as no mutation is in flight.
package addrmap

import (
	"fmt"
	"iter"
	"slices"

	"github.com/retroenv/retrogolib/log"
)

// Map holds the entries of an address map and the structures derived from them.
type Map struct {
	logger *log.Logger

	spanLength int
	entries    []Entry // sorted by offset, then by decreasing length

	nodes   []node   // containment tree, nodes[rootNode] spans the whole file
	changes []Change // linear view of the tree
}

// Option configures a map.
type Option func(*Map)

// WithLogger sets the logger used to report rejected operations.
func WithLogger(logger *log.Logger) Option {
	return func(m *Map) {
		m.logger = logger
	}
}

// New creates an empty map spanning the given number of bytes.
func New(spanLength int, opts ...Option) *Map {
	if spanLength < 0 || spanLength > OffsetMax+1 {
		panic(fmt.Sprintf("invalid address map span length %d", spanLength))
	}

	m := &Map{
		spanLength: spanLength,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.regenerate()
	return m
}

// NewFromEntries creates a map from a list of entries. Every entry is added
// individually so that the list is validated again, the first entry that can
// not be added is returned as *AddError.
func NewFromEntries(spanLength int, entries []Entry, opts ...Option) (*Map, error) {
	m := New(spanLength, opts...)

	for _, ent := range entries {
		if result := m.AddEntry(ent); result != Okay {
			return nil, &AddError{Entry: ent, Result: result}
		}
	}
	if len(m.entries) != len(entries) {
		return nil, &AddError{Result: InternalError}
	}
	return m, nil
}

// Clone returns an independent copy of the map.
func (m *Map) Clone() *Map {
	entries, spanLength := m.EntryList()
	clone, err := NewFromEntries(spanLength, entries, WithLogger(m.logger))
	if err != nil {
		panic(fmt.Sprintf("cloning valid address map: %v", err))
	}
	return clone
}

// Clear removes all entries.
func (m *Map) Clear() {
	m.entries = nil
	m.regenerate()
}

// EntryList returns a copy of the entries and the span length of the map,
// suitable for passing to NewFromEntries.
func (m *Map) EntryList() ([]Entry, int) {
	return slices.Clone(m.entries), m.spanLength
}

// Entries returns the entries in sorted order.
// The sequence must not be used after the map was changed.
func (m *Map) Entries() iter.Seq[Entry] {
	return slices.Values(m.entries)
}

// EntryCount returns the number of entries in the map.
func (m *Map) EntryCount() int {
	return len(m.entries)
}

// SpanLength returns the number of bytes spanned by the map.
func (m *Map) SpanLength() int {
	return m.spanLength
}

// AddEntry adds a new entry to the map.
func (m *Map) AddEntry(ent Entry) AddResult {
	if !m.validArgs(ent.Offset, ent.Length, ent.Address) {
		m.logRejected(ent, InvalidValue)
		return InvalidValue
	}

	index, result := m.findAddIndex(ent.Offset, ent.Length)
	if result != Okay {
		m.logRejected(ent, result)
		return result
	}

	m.entries = slices.Insert(m.entries, index, ent)
	m.regenerate()
	return Okay
}

// RemoveEntry removes the entry with the given offset and length and returns
// whether it was found.
func (m *Map) RemoveEntry(offset, length int) bool {
	if !m.validArgs(offset, length, 0) {
		panic(fmt.Sprintf("invalid region to remove +%06x len=%s", offset, formatLength(length)))
	}

	index := m.findEntry(offset, length)
	if index < 0 {
		return false
	}

	m.entries = slices.Delete(m.entries, index, index+1)
	m.regenerate()
	return true
}

// GetEntries returns all entries that start at the given offset.
func (m *Map) GetEntries(offset int) []Entry {
	var entries []Entry
	for _, ent := range m.entries {
		if ent.Offset > offset {
			break // sorted, no more matches
		}
		if ent.Offset == offset {
			entries = append(entries, ent)
		}
	}
	return entries
}

func (m *Map) String() string {
	return fmt.Sprintf("[address map: %d entries]", len(m.entries))
}

// validArgs checks the offset, length and address ranges of an entry.
func (m *Map) validArgs(offset, length, address int) bool {
	if offset < 0 || offset >= m.spanLength {
		return false
	}
	if length != FloatingLen {
		if length <= 0 || length > m.spanLength || offset+length > m.spanLength {
			return false
		}
	}
	return address == NonAddr || (address >= 0 && address <= AddrMax)
}

// findAddIndex checks whether a region with the given offset and length can be
// added and returns the index at which it has to be inserted.
// The tree is not consulted, every entry is checked since lists are short.
func (m *Map) findAddIndex(offset, length int) (int, AddResult) {
	floating := length == FloatingLen
	index := -1

	for i, ent := range m.entries {
		switch {
		case ent.Offset == offset:
			switch {
			case floating || ent.IsFloating():
				return -1, OverlapFloating
			case ent.Length == length:
				return -1, OverlapExisting
			case ent.Length < length:
				// new region becomes the parent, insert in front of it
				if index < 0 {
					index = i
				}
			default:
				// new region becomes a child, keep looking for more parents
			}

		case ent.Offset < offset:
			switch {
			case ent.IsFloating():
				// sibling, ends before the new region starts
			case ent.Offset+ent.Length <= offset:
				// sibling
			case floating:
				// parent, new region ends at its end
			case ent.Offset+ent.Length >= offset+length:
				// parent
			default:
				return -1, StraddleExisting
			}

		default:
			if index < 0 {
				index = i
			}
			switch {
			case ent.IsFloating():
				// child or sibling, depending on where the new region ends
			case floating:
				// sibling, new region ends where this one starts
			case offset+length <= ent.Offset:
				// sibling
			case ent.Offset+ent.Length <= offset+length:
				// child
			default:
				return -1, StraddleExisting
			}
		}
	}

	if index < 0 {
		index = len(m.entries)
	}
	return index, Okay
}

// findEntry returns the index of the entry with the given offset and length or -1.
func (m *Map) findEntry(offset, length int) int {
	for i, ent := range m.entries {
		if ent.Offset == offset && ent.Length == length {
			return i
		}
	}
	return -1
}

// regenerate rebuilds all derived structures after a change.
func (m *Map) regenerate() {
	m.buildTree()
	m.buildLinear()

	if err := m.Validate(); err != nil {
		panic(fmt.Sprintf("address map is inconsistent: %v", err))
	}
}

func (m *Map) logRejected(ent Entry, result AddResult) {
	if m.logger == nil {
		return
	}
	m.logger.Debug("Address map entry rejected",
		log.Hex("offset", ent.Offset),
		log.Int("length", ent.Length),
		log.Int("address", ent.Address),
		log.Stringer("result", result))
}
