package addrmap

import "fmt"

// AddResult describes the outcome of adding an entry to the map.
type AddResult int

// add results.
const (
	Unknown          AddResult = iota
	Okay                       // entry was added
	InternalError              // internal consistency problem
	InvalidValue               // offset, length or address is out of range
	OverlapExisting            // same offset and length as an existing entry
	OverlapFloating            // shares a start offset with a floating entry
	StraddleExisting           // partially overlaps an existing entry
)

func (r AddResult) String() string {
	switch r {
	case Okay:
		return "okay"
	case InternalError:
		return "internal error"
	case InvalidValue:
		return "invalid value"
	case OverlapExisting:
		return "overlaps existing region"
	case OverlapFloating:
		return "overlaps floating region"
	case StraddleExisting:
		return "straddles existing region"
	default:
		return "unknown"
	}
}

// AddError is returned when a list of entries can not be replayed into a map.
type AddError struct {
	Entry  Entry
	Result AddResult
}

func (e *AddError) Error() string {
	return fmt.Sprintf("unable to add entry %s: %s", e.Entry, e.Result)
}
