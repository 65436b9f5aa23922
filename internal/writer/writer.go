// Package writer implements common assembly file writing functionality.
package writer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/addrmap/internal/addrmap"
)

const dataBytesPerLine = 16

var errDataMismatch = errors.New("data length does not match the address map")

type lineWriterFunc func(line string, byteCount int) error

// Options of the writer.
type Options struct {
	DirectivePrefix string // prefix of all directives, for example a space
	ByteDirective   string // directive for data bytes, for example .byte
	OriginDirective string // directive that sets the program counter without padding
	OffsetComments  bool
}

// Writer implements common assembly file writing functionality.
type Writer struct {
	options Options
	writer  io.Writer
}

// New creates a new writer.
func New(writer io.Writer, options Options) *Writer {
	return &Writer{
		options: options,
		writer:  writer,
	}
}

// Write writes the data as assembly source. Every region of the map sets the
// program counter to its address and restores the address of the parent
// region at its end, so that the source reassembles to the same bytes.
func (w Writer) Write(m *addrmap.Map, data []byte, checksum uint32) error {
	if len(data) != m.SpanLength() {
		return fmt.Errorf("%w: %d != %d", errDataMismatch, len(data), m.SpanLength())
	}

	if err := w.WriteCommentHeader(len(data), checksum); err != nil {
		return err
	}

	position := 0
	for change := range m.Changes() {
		next := change.Offset
		if !change.IsStart {
			next++ // end offsets are inclusive
		}
		if err := w.writeData(data, position, next); err != nil {
			return err
		}
		position = next

		if change.IsStart {
			if err := w.writeRegionStart(change); err != nil {
				return err
			}
			continue
		}
		if err := w.writeRegionEnd(change); err != nil {
			return err
		}
	}

	return w.writeData(data, position, len(data))
}

// WriteCommentHeader writes the data length and CRC32 checksum as comments to the output.
func (w Writer) WriteCommentHeader(length int, checksum uint32) error {
	if _, err := fmt.Fprintf(w.writer, "; Data length: %d bytes\n", length); err != nil {
		return fmt.Errorf("writing data length: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "; Overall CRC32 checksum: %08x\n", checksum); err != nil {
		return fmt.Errorf("writing overall checksum: %w", err)
	}
	return nil
}

func (w Writer) writeRegionStart(change addrmap.Change) error {
	if change.IsSynthetic {
		return nil
	}
	region := change.Region

	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}

	if region.PreLabel != "" {
		if err := w.writePreLabel(region); err != nil {
			return err
		}
	}

	if region.Address == addrmap.NonAddr {
		if _, err := fmt.Fprintf(w.writer, "; +%06x non-addressable region\n", region.Offset); err != nil {
			return fmt.Errorf("writing region comment: %w", err)
		}
		return nil
	}

	line := fmt.Sprintf("%s%s $%04x", w.options.DirectivePrefix, w.options.OriginDirective, region.Address)
	var comments []string
	if w.options.OffsetComments {
		comments = append(comments, fmt.Sprintf("+%06x", region.Offset))
	}
	if region.IsRelative {
		comments = append(comments, "relative")
	}
	return w.writeLine(line, strings.Join(comments, "  "))
}

func (w Writer) writePreLabel(region addrmap.Region) error {
	// the program counter still holds the parent address at this point
	if region.HasValidPreLabel() {
		if _, err := fmt.Fprintf(w.writer, "%s:\n", region.PreLabel); err != nil {
			return fmt.Errorf("writing label: %w", err)
		}
		return nil
	}

	if _, err := fmt.Fprintf(w.writer, "; %s: pre-label is not addressable\n", region.PreLabel); err != nil {
		return fmt.Errorf("writing label comment: %w", err)
	}
	return nil
}

func (w Writer) writeRegionEnd(change addrmap.Change) error {
	if change.IsSynthetic || change.Address == addrmap.NonAddr {
		return nil
	}

	line := fmt.Sprintf("%s%s $%04x", w.options.DirectivePrefix, w.options.OriginDirective, change.Address)
	comment := ""
	if w.options.OffsetComments {
		comment = fmt.Sprintf("end of +%06x", change.Region.Offset)
	}
	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return w.writeLine(line, comment)
}

func (w Writer) writeData(data []byte, start, end int) error {
	if start >= end {
		return nil
	}

	offset := start
	lineWriter := func(line string, byteCount int) error {
		comment := ""
		if w.options.OffsetComments {
			comment = fmt.Sprintf("+%06x", offset)
		}
		offset += byteCount
		return w.writeLine(line, comment)
	}

	if err := w.BundleDataWrites(data[start:end], lineWriter); err != nil {
		return fmt.Errorf("writing data: %w", err)
	}
	return nil
}

func (w Writer) writeLine(line, comment string) error {
	var err error
	if comment == "" {
		_, err = fmt.Fprintf(w.writer, "%s\n", line)
	} else {
		_, err = fmt.Fprintf(w.writer, "%-32s ; %s\n", line, comment)
	}
	if err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// BundleDataWrites bundles writes of data bytes to print dataBytesPerLine bytes per line.
func (w Writer) BundleDataWrites(data []byte, lineWriter lineWriterFunc) error {
	remaining := len(data)
	for i := 0; remaining > 0; {
		toWrite := min(remaining, dataBytesPerLine)

		buf := &strings.Builder{}
		if _, err := fmt.Fprintf(buf, "%s%s ", w.options.DirectivePrefix, w.options.ByteDirective); err != nil {
			return fmt.Errorf("writing data prefix: %w", err)
		}

		for j := range toWrite {
			if _, err := fmt.Fprintf(buf, "$%02x, ", data[i+j]); err != nil {
				return fmt.Errorf("writing data byte: %w", err)
			}
		}

		line := strings.TrimRight(buf.String(), ", ")

		if lineWriter != nil {
			if err := lineWriter(line, toWrite); err != nil {
				return fmt.Errorf("writing data line using custom writer: %w", err)
			}
		} else {
			if _, err := fmt.Fprintf(w.writer, "%s\n", line); err != nil {
				return fmt.Errorf("writing data line: %w", err)
			}
		}

		i += toWrite
		remaining -= toWrite
	}

	return nil
}
