// Package assembler defines the available assembler output formats.
package assembler

import (
	"context"
	"fmt"
	"strings"

	"github.com/retroenv/addrmap/internal/assembler/asm6"
	"github.com/retroenv/addrmap/internal/assembler/ca65"
	"github.com/retroenv/addrmap/internal/writer"
)

const (
	Asm6 = "asm6"
	Ca65 = "ca65"
)

// Names lists all supported assemblers.
var Names = []string{Asm6, Ca65}

// Assembler describes the source dialect of an assembler and how to call it.
type Assembler struct {
	Name    string
	Options writer.Options

	// Assemble builds a binary of the given size from the asm file.
	Assemble func(ctx context.Context, asmFile, outputFile string, size int) error
}

// New returns the assembler with the given name.
func New(name string) (Assembler, error) {
	switch strings.ToLower(name) {
	case Asm6, "asm6f":
		return Assembler{
			Name:    Asm6,
			Options: asm6.Options,
			Assemble: func(ctx context.Context, asmFile, outputFile string, _ int) error {
				return asm6.AssembleUsingExternalApp(ctx, asmFile, outputFile)
			},
		}, nil

	case Ca65:
		return Assembler{
			Name:     Ca65,
			Options:  ca65.Options,
			Assemble: ca65.AssembleUsingExternalApp,
		}, nil

	default:
		return Assembler{}, fmt.Errorf("unsupported assembler '%s', valid options: %s", name, strings.Join(Names, ", "))
	}
}
