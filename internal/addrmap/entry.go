package addrmap

import "fmt"

const (
	// OffsetMax is the largest valid file offset (16MB file).
	OffsetMax = 1<<24 - 1
	// AddrMax is the largest valid address (24-bit address space).
	AddrMax = 1<<24 - 1

	// FloatingLen is the length value of regions with a floating end point.
	FloatingLen = -1024
	// NonAddr is the address value of non-addressable regions.
	NonAddr = -1025
)

// Entry defines a single region of the map as it is stored in a project.
// Entries are values and are never modified after creation.
type Entry struct {
	Offset     int    // file offset at which the region starts
	Length     int    // length of the region or FloatingLen
	Address    int    // address of the region start or NonAddr
	PreLabel   string // label to add right before the region start
	IsRelative bool   // code generators should output a PC relative directive operand
}

// Equal returns whether all fields of both entries match.
func (e Entry) Equal(other Entry) bool {
	return e.Offset == other.Offset &&
		e.Length == other.Length &&
		e.Address == other.Address &&
		e.PreLabel == other.PreLabel &&
		e.IsRelative == other.IsRelative
}

// IsFloating returns whether the end point of the region is floating.
func (e Entry) IsFloating() bool {
	return e.Length == FloatingLen
}

func (e Entry) String() string {
	return fmt.Sprintf("[entry +%06x len=%s addr=%s pre=%q rel=%t]",
		e.Offset, formatLength(e.Length), FormatAddress(e.Address), e.PreLabel, e.IsRelative)
}

// Region is an entry augmented with values that are computed when the map
// hierarchy is built. ActualLength is never FloatingLen.
type Region struct {
	Entry

	ActualLength    int // length after resolving a floating end point
	PreLabelAddress int // address of the pre-label in the parent's address space
}

// End returns the offset one past the last byte of the region.
func (r Region) End() int {
	return r.Offset + r.ActualLength
}

// Contains returns whether the offset is inside the region.
func (r Region) Contains(offset int) bool {
	return offset >= r.Offset && offset < r.End()
}

// HasValidPreLabel returns whether the region has a pre-label that can be
// placed, which requires an addressable parent. The label syntax is not checked.
func (r Region) HasValidPreLabel() bool {
	return r.PreLabel != "" && r.PreLabelAddress != NonAddr
}

// HasValidIsRelative returns whether the relative flag can be honored.
// The relative operand is the distance between pre-label address and address.
func (r Region) HasValidIsRelative() bool {
	return r.IsRelative && r.PreLabelAddress != NonAddr && r.Address != NonAddr
}

func (r Region) String() string {
	return fmt.Sprintf("[region +%06x len=%s addr=%s actualLen=$%04x rel=%t]",
		r.Offset, formatLength(r.Length), FormatAddress(r.Address), r.ActualLength, r.IsRelative)
}

// FormatAddress formats an address as hex value, or -NA- for non-addressable.
func FormatAddress(address int) string {
	if address == NonAddr {
		return "-NA-"
	}
	return fmt.Sprintf("$%04x", address)
}

func formatLength(length int) string {
	if length == FloatingLen {
		return "float"
	}
	return fmt.Sprintf("$%04x", length)
}
