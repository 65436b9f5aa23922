package addrmap

import (
	"fmt"
	"iter"
	"slices"
)

// Change is an address change event of the linear map view.
//
// Offsets are inclusive for both start and end events, the end event of a
// region holds the offset of its last byte so that it stays inside the file.
type Change struct {
	IsStart bool
	Offset  int
	// Address at Offset after the change. For end events this is the address
	// that follows the region in the parent's address space.
	Address int
	// Region that generated the event, shared by its start and end event.
	Region Region
	// IsSynthetic is set for regions that were generated to fill a gap.
	IsSynthetic bool
}

// Changes returns the address change events ordered by offset.
// The sequence must not be used after the map was changed.
func (m *Map) Changes() iter.Seq[Change] {
	return slices.Values(m.changes)
}

// ChangeList returns a copy of the address change events.
func (m *Map) ChangeList() []Change {
	return slices.Clone(m.changes)
}

// buildLinear flattens the tree into a list of change events. The root node is
// not part of the output, gaps between top level regions are filled with
// synthetic non-addressable regions instead.
func (m *Map) buildLinear() {
	changes := make([]Change, 0, 2*(len(m.entries)+1))
	startOffset := 0
	synthetic := 0

	for _, child := range m.nodes[rootNode].children {
		region := m.nodes[child].region
		if region.Offset != startOffset {
			changes = appendGap(changes, startOffset, region.Offset)
			synthetic++
		}

		changes = m.appendChanges(changes, child, NonAddr)
		startOffset = region.End()
	}

	if startOffset != m.spanLength {
		changes = appendGap(changes, startOffset, m.spanLength)
		synthetic++
	}

	if len(changes) != 2*(len(m.entries)+synthetic) {
		panic(fmt.Sprintf("address map has %d change events for %d regions and %d synthetic regions",
			len(changes), len(m.entries), synthetic))
	}
	if err := checkNesting(changes); err != nil {
		panic(fmt.Sprintf("address map change events: %v", err))
	}

	m.changes = changes
}

// appendChanges adds the events of the node and its descendants.
// parentStartAddr is the address of the node start in the parent's address space.
func (m *Map) appendChanges(changes []Change, index, parentStartAddr int) []Change {
	n := &m.nodes[index]
	region := n.region

	nextAddr := NonAddr
	if parentStartAddr != NonAddr {
		nextAddr = parentStartAddr + region.ActualLength
	}

	changes = append(changes, Change{
		IsStart: true,
		Offset:  region.Offset,
		Address: region.Address,
		Region:  region,
	})

	for _, child := range n.children {
		childStartAddr := NonAddr
		if region.Address != NonAddr {
			childStartAddr = region.Address + m.nodes[child].region.Offset - region.Offset
		}
		changes = m.appendChanges(changes, child, childStartAddr)
	}

	return append(changes, Change{
		Offset:  region.End() - 1,
		Address: nextAddr,
		Region:  region,
	})
}

// appendGap adds a start and end event for a synthetic non-addressable region.
func appendGap(changes []Change, start, end int) []Change {
	region := Region{
		Entry: Entry{
			Offset:  start,
			Length:  end - start,
			Address: NonAddr,
		},
		ActualLength:    end - start,
		PreLabelAddress: NonAddr,
	}

	return append(changes,
		Change{
			IsStart:     true,
			Offset:      start,
			Address:     NonAddr,
			Region:      region,
			IsSynthetic: true,
		},
		Change{
			Offset:      end - 1,
			Address:     NonAddr,
			Region:      region,
			IsSynthetic: true,
		})
}

// checkNesting verifies that every end event closes a started region and that
// all regions are closed at the end.
func checkNesting(changes []Change) error {
	depth := 0
	for i, change := range changes {
		if change.IsStart {
			depth++
			continue
		}

		depth--
		if depth < 0 {
			return fmt.Errorf("end event %d at +%06x without start", i, change.Offset)
		}
	}

	if depth != 0 {
		return fmt.Errorf("%d regions are not closed", depth)
	}
	return nil
}
