// Package render formats address maps for humans.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/samber/lo"
	"github.com/xlab/treeprint"
)

// Supported output formats.
const (
	FormatText  = "text"
	FormatTree  = "tree"
	FormatTable = "table"
	FormatDump  = "dump"
)

// Formats lists all supported output formats.
var Formats = []string{FormatText, FormatTree, FormatTable, FormatDump}

// Write renders the map in the given format.
func Write(w io.Writer, m *addrmap.Map, format string) error {
	var err error
	switch format {
	case FormatText:
		_, err = io.WriteString(w, Text(m))
	case FormatTree:
		_, err = io.WriteString(w, Tree(m))
	case FormatTable:
		Table(w, m)
	case FormatDump:
		_, err = io.WriteString(w, m.Format())
	default:
		return fmt.Errorf("unsupported format '%s', valid formats: %s", format, strings.Join(Formats, ", "))
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Text returns a map of the address regions with depth lines that show the
// nesting of the regions.
func Text(m *addrmap.Map) string {
	showBank := hasWideAddresses(m)
	sb := &strings.Builder{}
	depth := 0
	prevOffset := -1
	prevAddr := 0

	sb.WriteString("Map of address regions\n")

	for change := range m.Changes() {
		if change.IsStart {
			if prevOffset >= 0 && change.Offset != prevOffset {
				writeAddressInfo(sb, depth, prevAddr, change.Offset-prevOffset, showBank)
			}

			if change.Region.PreLabel != "" {
				writeDepthLines(sb, depth, true)
				fmt.Fprintf(sb, "|  pre='%s' %s\n", change.Region.PreLabel,
					formatAddress(change.Region.PreLabelAddress, showBank))
			}

			fmt.Fprintf(sb, "+%06x", change.Offset)
			writeDepthLines(sb, depth, false)
			sb.WriteString("+- start")
			if change.IsSynthetic {
				sb.WriteString(" (auto-generated)")
			}
			sb.WriteByte('\n')

			prevOffset = change.Offset
			prevAddr = change.Address
			depth++
			continue
		}

		depth--
		if change.Offset+1 != prevOffset {
			writeAddressInfo(sb, depth+1, prevAddr, change.Offset+1-prevOffset, showBank)
		}

		fmt.Fprintf(sb, "+%06x", change.Offset)
		writeDepthLines(sb, depth, false)
		sb.WriteString("+- end\n")
		writeDepthLines(sb, depth, true)
		sb.WriteByte('\n')

		prevOffset = change.Offset + 1
		prevAddr = change.Address
	}

	return sb.String()
}

// Tree returns the containment tree of the regions.
func Tree(m *addrmap.Map) string {
	showBank := hasWideAddresses(m)
	root := treeprint.New()
	top := root.AddBranch(fmt.Sprintf("address map, %s", humanize.IBytes(uint64(m.SpanLength()))))
	branches := []treeprint.Tree{top}

	for change := range m.Changes() {
		if !change.IsStart {
			branches = branches[:len(branches)-1]
			continue
		}

		region := change.Region
		description := fmt.Sprintf("+%06x-+%06x %s", region.Offset, region.End()-1,
			formatAddress(region.Address, showBank))
		switch {
		case change.IsSynthetic:
			description += " (auto-generated)"
		case region.IsFloating():
			description += " (floating)"
		}
		if region.PreLabel != "" {
			description += fmt.Sprintf(" pre='%s'", region.PreLabel)
		}

		parent := branches[len(branches)-1]
		branches = append(branches, parent.AddBranch(description))
	}

	return root.String()
}

// Table writes a table of all entries with their resolved values.
func Table(w io.Writer, m *addrmap.Map) {
	showBank := hasWideAddresses(m)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Length", "Size", "Address", "End address", "Pre-label", "Label address", "Relative"})

	starts := lo.Filter(m.ChangeList(), func(change addrmap.Change, _ int) bool {
		return change.IsStart && !change.IsSynthetic
	})

	for _, change := range starts {
		region := change.Region

		length := fmt.Sprintf("$%04x", region.ActualLength)
		if region.IsFloating() {
			length += " (float)"
		}

		endAddress := addrmap.NonAddr
		if region.Address != addrmap.NonAddr {
			endAddress = region.Address + region.ActualLength - 1
		}

		labelAddress := ""
		if region.PreLabel != "" {
			labelAddress = formatAddress(region.PreLabelAddress, showBank)
		}

		table.Append([]string{
			fmt.Sprintf("+%06x", region.Offset),
			length,
			humanize.IBytes(uint64(region.ActualLength)),
			formatAddress(region.Address, showBank),
			formatAddress(endAddress, showBank),
			region.PreLabel,
			labelAddress,
			fmt.Sprintf("%t", region.IsRelative),
		})
	}

	table.Render()
}

// hasWideAddresses returns whether any region reaches beyond a 16 bit address.
func hasWideAddresses(m *addrmap.Map) bool {
	return lo.SomeBy(m.ChangeList(), func(change addrmap.Change) bool {
		region := change.Region
		return region.Address != addrmap.NonAddr && region.Address+region.ActualLength-1 > 0xffff
	})
}

// formatAddress formats an address with an optional bank prefix for
// addresses that exceed 16 bits.
func formatAddress(address int, showBank bool) string {
	if address == addrmap.NonAddr {
		return "-NA-"
	}
	if showBank {
		return fmt.Sprintf("$%02x/%04x", address>>16, address&0xffff)
	}
	return fmt.Sprintf("$%04x", address)
}

func writeDepthLines(sb *strings.Builder, depth int, indent bool) {
	if indent {
		sb.WriteString("       ")
	}
	sb.WriteString("  ")
	sb.WriteString(strings.Repeat("| ", depth))
}

func writeAddressInfo(sb *strings.Builder, depth, startAddr, length int, showBank bool) {
	writeDepthLines(sb, depth, true)
	sb.WriteByte(' ')
	if startAddr == addrmap.NonAddr {
		sb.WriteString("-NA-")
	} else {
		fmt.Fprintf(sb, "%s - %s", formatAddress(startAddr, showBank), formatAddress(startAddr+length-1, showBank))
	}
	fmt.Fprintf(sb, "  length=%d ($%04x)\n", length, length)
}
