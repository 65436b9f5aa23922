// Package verification verifies that a project matches its input file and that
// the address map of the project is consistent.
package verification

import (
	"context"
	"fmt"
	"os"

	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/addrmap/internal/assembler"
	"github.com/retroenv/addrmap/internal/project"
	"github.com/retroenv/retrogolib/log"
)

const maxLoggedMismatches = 10

// Check verifies the project against the input data. The address map is
// validated, replayed from its entry list and every mapped region is checked
// for a consistent offset to address round trip.
func Check(logger *log.Logger, p *project.Project, data []byte) error {
	if err := p.VerifyData(data); err != nil {
		return fmt.Errorf("verifying input data: %w", err)
	}
	if err := p.AddrMap.Validate(); err != nil {
		return fmt.Errorf("validating address map: %w", err)
	}

	entries, spanLength := p.AddrMap.EntryList()
	replayed, err := addrmap.NewFromEntries(spanLength, entries)
	if err != nil {
		return fmt.Errorf("replaying address map: %w", err)
	}
	if err := checkChangesEqual(logger, p.AddrMap.ChangeList(), replayed.ChangeList()); err != nil {
		return fmt.Errorf("replayed address map mismatch: %w", err)
	}

	if err := checkRoundTrip(logger, p.AddrMap); err != nil {
		return fmt.Errorf("address round trip: %w", err)
	}
	return nil
}

func checkChangesEqual(logger *log.Logger, expected, got []addrmap.Change) error {
	if len(expected) != len(got) {
		return fmt.Errorf("mismatched change counts, %d != %d", len(expected), len(got))
	}

	var diffs uint64
	for i := range expected {
		if expected[i] == got[i] {
			continue
		}

		diffs++
		if diffs <= maxLoggedMismatches {
			logger.Error("Change mismatch",
				log.Int("index", i),
				log.Hex("offset", expected[i].Offset),
				log.String("expected", expected[i].Region.String()),
				log.String("got", got[i].Region.String()))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d change mismatches", diffs)
}

// checkRoundTrip resolves the first and last offset of every mapped region to
// its address and back. Nested regions can reuse the address space of their
// parent, so the resolved offset only has to map to the same address.
func checkRoundTrip(logger *log.Logger, m *addrmap.Map) error {
	var diffs uint64
	for change := range m.Changes() {
		region := change.Region
		if !change.IsStart || region.Address == addrmap.NonAddr || region.ActualLength == 0 {
			continue
		}

		for _, offset := range []int{region.Offset, region.End() - 1} {
			address := m.OffsetToAddress(offset)
			got := m.AddressToOffset(offset, address)
			if got >= 0 && m.OffsetToAddress(got) == address {
				continue
			}

			diffs++
			if diffs <= maxLoggedMismatches {
				logger.Error("Offset round trip mismatch",
					log.Hex("offset", offset),
					log.Hex("address", address),
					log.Int("got", got))
			}
		}
	}

	logger.Debug("Round trip checked", log.Int("regions", m.EntryCount()))
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d offset mismatches", diffs)
}

// VerifyExport assembles the exported asm file and verifies that the output
// recreates the exact input data.
func VerifyExport(ctx context.Context, logger *log.Logger, asm assembler.Assembler, asmFile string, data []byte) error {
	outputFile, err := os.CreateTemp("", "addrmap.*.bin")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	_ = outputFile.Close()
	defer func() {
		_ = os.Remove(outputFile.Name())
	}()

	if err := asm.Assemble(ctx, asmFile, outputFile.Name(), len(data)); err != nil {
		return fmt.Errorf("reassembling file using %s failed: %w", asm.Name, err)
	}

	output, err := os.ReadFile(outputFile.Name())
	if err != nil {
		return fmt.Errorf("reading assembled file for comparison: %w", err)
	}

	if err := checkBufferEqual(logger, data, output); err != nil {
		return fmt.Errorf("assembled output mismatch: %w", err)
	}
	return nil
}

func checkBufferEqual(logger *log.Logger, input, output []byte) error {
	if len(input) != len(output) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(input), len(output))
	}

	var diffs uint64
	for i := range input {
		if input[i] == output[i] {
			continue
		}

		diffs++
		if diffs <= maxLoggedMismatches {
			logger.Error("Offset mismatch",
				log.Hex("offset", i),
				log.Hex("expected", input[i]),
				log.Hex("got", output[i]))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d offset mismatches", diffs)
}
