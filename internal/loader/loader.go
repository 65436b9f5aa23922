// Package loader handles input file loading operations.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/addrmap/internal/detector"
	"github.com/retroenv/retrogolib/arch/system/nes/cartridge"
)

var errEmptyInput = errors.New("input file is empty")

// ErrInputTooLarge is returned for input files that exceed the offset range
// of an address map.
var ErrInputTooLarge = errors.New("input file is too large")

// Input is a loaded input file.
type Input struct {
	Data   []byte
	Format detector.Format

	// Cartridge is only set for NES images.
	Cartridge *cartridge.Cartridge
}

// Loader handles loading input files from disk.
type Loader struct{}

// New creates a new input loader.
func New() *Loader {
	return &Loader{}
}

// ReadFile reads the raw content of an input file.
func (l *Loader) ReadFile(fileName string) ([]byte, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", fileName, err)
	}
	if err := checkSize(data); err != nil {
		return nil, err
	}
	return data, nil
}

// LoadFromBytes parses the input data in the given format.
func (l *Loader) LoadFromBytes(data []byte, format detector.Format) (*Input, error) {
	if err := checkSize(data); err != nil {
		return nil, err
	}

	input := &Input{
		Data:   data,
		Format: format,
	}
	if format != detector.NES {
		return input, nil
	}

	cart, err := cartridge.LoadFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}
	input.Cartridge = cart
	return input, nil
}

func checkSize(data []byte) error {
	if len(data) == 0 {
		return errEmptyInput
	}
	if len(data) > addrmap.OffsetMax+1 {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrInputTooLarge, len(data), addrmap.OffsetMax+1)
	}
	return nil
}
