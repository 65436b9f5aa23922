// Package detector handles input format detection.
package detector

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/retroenv/addrmap/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Format is the format of an input file.
type Format string

// Supported input formats.
const (
	NES    Format = "nes"
	Binary Format = "binary"
)

var inesMagic = []byte{'N', 'E', 'S', 0x1a}

func (f Format) String() string {
	return string(f)
}

// FormatFromString returns the format for the given name.
func FormatFromString(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case NES:
		return NES, true
	case Binary:
		return Binary, true
	default:
		return "", false
	}
}

// Detector handles input format detection from options, file extensions and
// file content.
type Detector struct {
	logger *log.Logger
}

// New creates a new format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the input format. An explicitly requested format takes
// precedence, otherwise the format is detected from the filename extension
// and the file header.
func (d *Detector) Detect(opts options.Program, data []byte) Format {
	if opts.Binary {
		return Binary
	}
	if format, ok := FormatFromString(opts.System); ok {
		return format
	}

	format := d.detectFromFile(opts.Input, data)
	d.logger.Debug("Auto-detected input format",
		log.Stringer("format", format),
		log.String("file", opts.Input))
	return format
}

// detectFromFile determines the format based on file extension and the
// iNES header magic.
func (d *Detector) detectFromFile(filename string, data []byte) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".nes", bytes.HasPrefix(data, inesMagic):
		return NES
	default:
		return Binary
	}
}
