package addrmap

import "fmt"

const (
	rootNode = 0  // arena index of the node spanning the whole file
	noNode   = -1 // parent of the root and marker for no ignored child
)

// node is an element of the containment tree. Nodes reference each other by
// index into the arena slice of the map.
type node struct {
	region   Region
	parent   int
	children []int // sorted by increasing offset
}

// buildTree generates the containment tree from the entry list. The root is a
// non-addressable region that spans the whole file and catches every offset
// that is not covered by an entry.
func (m *Map) buildTree() {
	root := node{
		region: Region{
			Entry: Entry{
				Length:  m.spanLength,
				Address: NonAddr,
			},
			ActualLength:    m.spanLength,
			PreLabelAddress: NonAddr,
		},
		parent: noNode,
	}

	m.nodes = make([]node, 1, len(m.entries)+1)
	m.nodes[rootNode] = root

	cursor := m.buildChildren(rootNode, 0)
	if cursor != len(m.entries) {
		panic(fmt.Sprintf("address map tree consumed %d of %d entries", cursor, len(m.entries)))
	}
}

// buildChildren adds the entries starting at the cursor that lie inside the
// given parent node, including all their descendants. It returns the cursor
// advanced to the first entry past the parent.
func (m *Map) buildChildren(parent, cursor int) int {
	parentRegion := m.nodes[parent].region
	parentEnd := parentRegion.End()

	for cursor < len(m.entries) {
		ent := m.entries[cursor]
		if ent.Offset >= parentEnd {
			break
		}
		cursor++

		preLabelAddress := NonAddr
		if parentRegion.Address != NonAddr {
			preLabelAddress = parentRegion.Address + ent.Offset - parentRegion.Offset
		}

		region := Region{
			Entry:           ent,
			ActualLength:    ent.Length,
			PreLabelAddress: preLabelAddress,
		}

		// floating regions end at the parent end or the next region start,
		// they can not have children.
		if ent.IsFloating() {
			end := parentEnd
			if cursor < len(m.entries) && m.entries[cursor].Offset < end {
				end = m.entries[cursor].Offset
			}
			region.ActualLength = end - ent.Offset
		}

		index := len(m.nodes)
		m.nodes = append(m.nodes, node{
			region: region,
			parent: parent,
		})
		m.nodes[parent].children = append(m.nodes[parent].children, index)

		if !ent.IsFloating() {
			cursor = m.buildChildren(index, cursor)
		}
	}

	return cursor
}

// offsetToNode returns the deepest node that contains the offset, starting the
// descent at the given node.
func (m *Map) offsetToNode(offset, index int) int {
	for {
		child := m.childContaining(index, offset)
		if child == noNode {
			return index
		}
		index = child
	}
}

// childContaining returns the child of the node that contains the offset.
func (m *Map) childContaining(index, offset int) int {
	for _, child := range m.nodes[index].children {
		region := m.nodes[child].region
		if region.Offset > offset {
			break
		}
		if region.Contains(offset) {
			return child
		}
	}
	return noNode
}
