package addrmap

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// OffsetToAddress converts a file offset to an address. It returns NonAddr if
// the offset is not addressable or outside the file.
func (m *Map) OffsetToAddress(offset int) int {
	if offset < 0 || offset >= m.spanLength {
		if m.logger != nil {
			m.logger.Debug("Address lookup for invalid offset", log.Hex("offset", offset))
		}
		return NonAddr
	}

	region := m.nodes[m.offsetToNode(offset, rootNode)].region
	if region.Address == NonAddr {
		return NonAddr
	}
	return region.Address + (offset - region.Offset)
}

// AddressToOffset determines the file offset that best matches the target
// address, as seen from the offset that holds the reference. It returns -1 if
// the address is not mapped.
//
// The search starts in the node that contains the source offset. All children
// of the node are scanned recursively before the node itself, then the search
// moves to the parent, skipping the subtree that was already searched. This
// resolves references in the scope of the referencing code first.
func (m *Map) AddressToOffset(srcOffset, targetAddr int) int {
	start := m.offsetToNode(srcOffset, rootNode)
	ignore := noNode

	for start != noNode {
		if offset := m.findAddress(start, ignore, targetAddr); offset >= 0 {
			return offset
		}
		ignore = start
		start = m.nodes[start].parent
	}
	return -1
}

// findAddress searches the subtree of the node depth-first for the target
// address, children first. The ignored child is skipped.
func (m *Map) findAddress(index, ignore, targetAddr int) int {
	n := &m.nodes[index]
	for _, child := range n.children {
		if child == ignore {
			continue
		}
		if offset := m.findAddress(child, noNode, targetAddr); offset >= 0 {
			return offset
		}
	}

	region := n.region
	if region.Address == NonAddr ||
		targetAddr < region.Address || targetAddr >= region.Address+region.ActualLength {
		return -1
	}

	// the address is in range, but a child can occupy its position and create
	// a hole in the address space of this node.
	position := targetAddr - region.Address
	for _, child := range n.children {
		childRegion := m.nodes[child].region
		childStart := childRegion.Offset - region.Offset
		if childStart > position {
			break
		}
		if position < childStart+childRegion.ActualLength {
			return -1
		}
	}
	return region.Offset + position
}

// FindRegion returns the region with the given offset and length.
// The length can be FloatingLen.
func (m *Map) FindRegion(offset, length int) (Region, bool) {
	if !m.validArgs(offset, length, 0) {
		panic(fmt.Sprintf("invalid region to find +%06x len=%s", offset, formatLength(length)))
	}

	index := m.childContaining(rootNode, offset)
	for index != noNode {
		region := m.nodes[index].region
		if region.Offset == offset && region.Length == length {
			return region, true
		}
		index = m.childContaining(index, offset)
	}
	return Region{}, false
}

// IsRangeUnbroken returns whether the range of offsets is inside a single
// region without any nested region starting or ending inside of it. Use this
// to check whether a multi-byte element crosses an address change. No-op
// address changes are not smoothed over.
func (m *Map) IsRangeUnbroken(offset, length int) bool {
	if length == FloatingLen || !m.validArgs(offset, length, 0) {
		panic(fmt.Sprintf("invalid range to check +%06x len=%s", offset, formatLength(length)))
	}

	n := &m.nodes[m.offsetToNode(offset, rootNode)]
	lastOffset := offset + length - 1
	if lastOffset >= n.region.End() {
		return false
	}

	for _, child := range n.children {
		childRegion := m.nodes[child].region
		if childRegion.Offset > lastOffset {
			break
		}
		if offset < childRegion.End() && lastOffset >= childRegion.Offset {
			return false
		}
	}
	return true
}
