package addrmap

import (
	"fmt"
	"strings"
)

// Format returns a dump of the change events for debugging purposes.
func (m *Map) Format() string {
	sb := &strings.Builder{}
	depth := 0
	prevOffset := -1
	prevAddr := 0

	fmt.Fprintf(sb, "Address map, len=$%04x\n", m.spanLength)

	for _, change := range m.changes {
		if !change.IsStart {
			depth--
			if change.Offset+1 != prevOffset {
				// bytes between the previous event and the end of this region
				writeAddressInfo(sb, depth+1, prevAddr, change.Offset+1-prevOffset)
			}

			fmt.Fprintf(sb, "+%06x", change.Offset)
			writeDepthLines(sb, depth, false)
			fmt.Fprintf(sb, "+- END (now %s)\n", FormatAddress(change.Address))

			// offset+1 lines up with start events
			prevOffset = change.Offset + 1
			prevAddr = change.Address
			continue
		}

		if prevOffset >= 0 && change.Offset != prevOffset {
			writeAddressInfo(sb, depth, prevAddr, change.Offset-prevOffset)
		}

		if change.Region.PreLabel != "" {
			writeDepthLines(sb, depth, true)
			fmt.Fprintf(sb, "|  pre='%s' %s\n", change.Region.PreLabel, FormatAddress(change.Region.PreLabelAddress))
		}

		fmt.Fprintf(sb, "+%06x", change.Offset)
		writeDepthLines(sb, depth, false)
		fmt.Fprintf(sb, "+- START (%s)", FormatAddress(change.Address))
		if change.IsSynthetic {
			sb.WriteString(" (auto-generated)")
		}
		sb.WriteByte('\n')

		prevOffset = change.Offset
		prevAddr = change.Address
		depth++
	}

	return sb.String()
}

func writeDepthLines(sb *strings.Builder, depth int, indent bool) {
	if indent {
		sb.WriteString("       ")
	}
	sb.WriteString("  ")
	sb.WriteString(strings.Repeat("| ", depth))
}

func writeAddressInfo(sb *strings.Builder, depth, startAddr, length int) {
	writeDepthLines(sb, depth, true)
	sb.WriteByte(' ')
	if startAddr == NonAddr {
		sb.WriteString("-NA-")
	} else {
		fmt.Fprintf(sb, "%s - %s", FormatAddress(startAddr), FormatAddress(startAddr+length-1))
	}
	fmt.Fprintf(sb, " (length=$%04x/%d bytes)\n", length, length)
}
