package addrmap

import (
	"errors"
	"fmt"
)

var errMalformedRoot = errors.New("malformed root node")

// Validate performs internal consistency checks of the entry list, the tree
// and the change events.
func (m *Map) Validate() error {
	if err := m.validateStructural(); err != nil {
		return fmt.Errorf("entry list: %w", err)
	}
	if err := m.validateHierarchical(); err != nil {
		return fmt.Errorf("tree: %w", err)
	}
	if err := checkNesting(m.changes); err != nil {
		return fmt.Errorf("change events: %w", err)
	}
	return nil
}

func (m *Map) validateStructural() error {
	lastStart := -1
	lastLength := OffsetMax + 1

	for _, ent := range m.entries {
		if ent.Offset < 0 || ent.Offset > OffsetMax {
			return fmt.Errorf("bad offset +%06x", ent.Offset)
		}
		if ent.Length <= 0 && !ent.IsFloating() {
			return fmt.Errorf("bad length %d", ent.Length)
		}
		if ent.Length > OffsetMax || ent.Offset+ent.Length > OffsetMax+1 {
			return fmt.Errorf("bad length +%06x len=%d", ent.Offset, ent.Length)
		}
		if (ent.Address < 0 && ent.Address != NonAddr) || ent.Address > AddrMax {
			return fmt.Errorf("bad address %d", ent.Address)
		}
		if !ent.IsFloating() && ent.Offset+ent.Length > m.spanLength {
			return fmt.Errorf("entry %s exceeds file bounds", ent)
		}

		switch {
		case ent.Offset < lastStart:
			return fmt.Errorf("bad sort order of start at entry %s", ent)

		case ent.Offset == lastStart:
			if ent.IsFloating() || lastLength == FloatingLen {
				return fmt.Errorf("floating entry %s shares start offset", ent)
			}
			if ent.Length == lastLength {
				return fmt.Errorf("overlapping entries at %s", ent)
			}
			if ent.Length > lastLength {
				return fmt.Errorf("bad sort order of end at entry %s", ent)
			}
		}

		lastStart = ent.Offset
		lastLength = ent.Length
	}
	return nil
}

func (m *Map) validateHierarchical() error {
	root := m.nodes[rootNode].region
	if root.Offset != 0 || root.ActualLength != m.spanLength {
		return errMalformedRoot
	}

	count, err := m.validateChildren(rootNode)
	if err != nil {
		return err
	}

	// every entry is a node, the root is not counted
	if count != len(m.entries) {
		return fmt.Errorf("tree has %d nodes for %d entries", count, len(m.entries))
	}
	return nil
}

// validateChildren checks that all descendants fit in their parents and are
// sorted. It returns the number of descendants.
func (m *Map) validateChildren(index int) (int, error) {
	parent := m.nodes[index].region
	count := 0
	lastEnd := parent.Offset

	for _, child := range m.nodes[index].children {
		region := m.nodes[child].region
		if region.ActualLength <= 0 {
			return 0, fmt.Errorf("region %s has no length", region)
		}
		if region.Offset < parent.Offset || region.End() > parent.End() {
			return 0, fmt.Errorf("region %s does not fit in parent %s", region, parent)
		}
		if region.Offset < lastEnd {
			return 0, fmt.Errorf("region %s overlaps previous sibling", region)
		}
		if m.nodes[child].parent != index {
			return 0, fmt.Errorf("region %s has wrong parent link", region)
		}
		lastEnd = region.End()

		descendants, err := m.validateChildren(child)
		if err != nil {
			return 0, err
		}
		count += 1 + descendants
	}
	return count, nil
}
