// Package project loads and saves address map projects.
//
// A project file starts with a magic line followed by a JSON document that
// holds the length and checksum of the binary and the address map entries.
package project

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/samber/lo"
)

// Magic is the first line of every project file.
const Magic = "### addrmap project v1.0 ###"

// ContentVersion is the version of the JSON document that is written.
const ContentVersion = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotProject is returned when the magic line is missing.
	ErrNotProject = errors.New("not a project file")
	// ErrDataMismatch is returned when data does not match the length or
	// checksum that is stored in the project.
	ErrDataMismatch = errors.New("data does not match project")
)

// Project is an address map bound to a binary file.
type Project struct {
	FileDataLength int
	FileDataCrc32  uint32

	AddrMap *addrmap.Map

	// Warnings holds the problems that were found while loading a project
	// that did not prevent it from being used.
	Warnings error
}

type serializedProject struct {
	ContentVersion int                `json:"_ContentVersion"`
	FileDataLength int32              `json:"FileDataLength"`
	FileDataCrc32  int32              `json:"FileDataCrc32"`
	AddressMap     []serializedRegion `json:"AddressMap"`
}

type serializedRegion struct {
	Offset     int32  `json:"Offset"`
	Addr       int32  `json:"Addr"`
	Length     int32  `json:"Length"`
	PreLabel   string `json:"PreLabel"`
	IsRelative bool   `json:"IsRelative"`
}

// New returns a project with an empty address map for the given data.
func New(data []byte, opts ...addrmap.Option) *Project {
	return &Project{
		FileDataLength: len(data),
		FileDataCrc32:  crc32.ChecksumIEEE(data),
		AddrMap:        addrmap.New(len(data), opts...),
	}
}

// VerifyData checks that the data matches the length and checksum of the
// binary that the project was created for.
func (p *Project) VerifyData(data []byte) error {
	if len(data) != p.FileDataLength {
		return fmt.Errorf("%w: length is %d instead of %d", ErrDataMismatch, len(data), p.FileDataLength)
	}
	if crc := crc32.ChecksumIEEE(data); crc != p.FileDataCrc32 {
		return fmt.Errorf("%w: crc32 is %08x instead of %08x", ErrDataMismatch, crc, p.FileDataCrc32)
	}
	return nil
}

// Save writes the project to the writer.
func (p *Project) Save(w io.Writer) error {
	entries, _ := p.AddrMap.EntryList()

	sp := serializedProject{
		ContentVersion: ContentVersion,
		FileDataLength: int32(p.FileDataLength),
		FileDataCrc32:  int32(p.FileDataCrc32),
		AddressMap: lo.Map(entries, func(ent addrmap.Entry, _ int) serializedRegion {
			return serializedRegion{
				Offset:     int32(ent.Offset),
				Addr:       int32(ent.Address),
				Length:     int32(ent.Length),
				PreLabel:   ent.PreLabel,
				IsRelative: ent.IsRelative,
			}
		}),
	}

	data, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}

	buf := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(buf, Magic); err != nil {
		return fmt.Errorf("writing project header: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	if err := buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	return nil
}

// Load reads a project. Address map entries that can not be added are skipped
// and reported in the Warnings field of the returned project.
func Load(r io.Reader, opts ...addrmap.Option) (*Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}

	content, ok := bytes.CutPrefix(data, []byte(Magic))
	if !ok {
		return nil, ErrNotProject
	}

	var sp serializedProject
	if err := json.Unmarshal(content, &sp); err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}

	var warnings error
	if sp.ContentVersion > ContentVersion {
		warnings = multierror.Append(warnings,
			fmt.Errorf("project was created by a newer version (content version %d)", sp.ContentVersion))
	}

	if sp.FileDataLength <= 0 || int(sp.FileDataLength) > addrmap.OffsetMax+1 {
		return nil, fmt.Errorf("invalid file data length %d", sp.FileDataLength)
	}

	p := &Project{
		FileDataLength: int(sp.FileDataLength),
		FileDataCrc32:  uint32(sp.FileDataCrc32),
		AddrMap:        addrmap.New(int(sp.FileDataLength), opts...),
	}

	for _, region := range sp.AddressMap {
		ent := addrmap.Entry{
			Offset:     int(region.Offset),
			Length:     int(region.Length),
			Address:    int(region.Addr),
			PreLabel:   region.PreLabel,
			IsRelative: region.IsRelative,
		}
		if result := p.AddrMap.AddEntry(ent); result != addrmap.Okay {
			warnings = multierror.Append(warnings, &addrmap.AddError{Entry: ent, Result: result})
		}
	}

	p.Warnings = warnings
	return p, nil
}

// LoadFile reads a project from a file.
func LoadFile(fileName string, opts ...addrmap.Option) (*Project, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", fileName, err)
	}
	defer func() { _ = file.Close() }()

	p, err := Load(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading project '%s': %w", fileName, err)
	}
	return p, nil
}

// SaveFile writes the project to a file.
func (p *Project) SaveFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", fileName, err)
	}

	if err := p.Save(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file '%s': %w", fileName, err)
	}
	return nil
}
