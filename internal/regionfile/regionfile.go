// Package regionfile imports address map regions from YAML definition files.
//
// Example:
//
//	regions:
//	  - offset: $0010
//	    length: $4000
//	    address: $8000
//	  - offset: $4010
//	    length: floating
//	    address: none
//	    label: chr_data
package regionfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/retroenv/addrmap/internal/addrmap"
	"gopkg.in/yaml.v3"
)

const (
	floatingKeyword = "floating"
	noneKeyword     = "none"
)

var errEmptyNumber = errors.New("empty number")

type document struct {
	Regions []region `yaml:"regions"`
}

type region struct {
	Offset   number       `yaml:"offset"`
	Length   lengthValue  `yaml:"length"`
	Address  addressValue `yaml:"address"`
	Label    string       `yaml:"label"`
	Relative bool         `yaml:"relative"`
}

type number struct {
	value int
	set   bool
}

func (n *number) UnmarshalYAML(node *yaml.Node) error {
	value, err := ParseNumber(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	n.value = value
	n.set = true
	return nil
}

type lengthValue struct {
	number
}

func (l *lengthValue) UnmarshalYAML(node *yaml.Node) error {
	value, err := ParseLength(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	l.value = value
	l.set = true
	return nil
}

type addressValue struct {
	number
}

func (a *addressValue) UnmarshalYAML(node *yaml.Node) error {
	value, err := ParseAddress(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	a.value = value
	a.set = true
	return nil
}

// ParseNumber parses a decimal number or a hex number with $ or 0x prefix.
func ParseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyNumber
	}

	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "$"):
		base = 16
		digits = s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base = 16
		digits = s[2:]
	}

	value, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing number '%s': %w", s, err)
	}
	return int(value), nil
}

// ParseLength parses a region length, the keyword "floating" returns
// addrmap.FloatingLen.
func ParseLength(s string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(s), floatingKeyword) {
		return addrmap.FloatingLen, nil
	}
	return ParseNumber(s)
}

// ParseAddress parses a region address, the keyword "none" returns
// addrmap.NonAddr.
func ParseAddress(s string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(s), noneKeyword) {
		return addrmap.NonAddr, nil
	}
	return ParseNumber(s)
}

// Parse reads region definitions and returns them as address map entries.
func Parse(r io.Reader) ([]addrmap.Entry, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding region file: %w", err)
	}

	var errs error
	entries := make([]addrmap.Entry, 0, len(doc.Regions))
	for i, reg := range doc.Regions {
		if !reg.Offset.set || !reg.Length.set {
			errs = multierror.Append(errs, fmt.Errorf("region %d: offset and length are required", i))
			continue
		}

		address := addrmap.NonAddr
		if reg.Address.set {
			address = reg.Address.value
		}

		entries = append(entries, addrmap.Entry{
			Offset:     reg.Offset.value,
			Length:     reg.Length.value,
			Address:    address,
			PreLabel:   reg.Label,
			IsRelative: reg.Relative,
		})
	}
	if errs != nil {
		return nil, errs
	}
	return entries, nil
}

// ParseFile reads region definitions from a file.
func ParseFile(fileName string) ([]addrmap.Entry, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", fileName, err)
	}
	defer func() { _ = file.Close() }()

	entries, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file '%s': %w", fileName, err)
	}
	return entries, nil
}

// Apply adds all entries to the map. Entries that can not be added are
// skipped, the returned error lists all of them. The number of added entries
// is returned.
func Apply(m *addrmap.Map, entries []addrmap.Entry) (int, error) {
	var errs error
	added := 0
	for _, ent := range entries {
		if result := m.AddEntry(ent); result != addrmap.Okay {
			errs = multierror.Append(errs, &addrmap.AddError{Entry: ent, Result: result})
			continue
		}
		added++
	}
	return added, errs
}
