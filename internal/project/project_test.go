package project

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func testData() []byte {
	data := make([]byte, 0x4000)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func testProject(t *testing.T) *Project {
	t.Helper()
	p := New(testData(), addrmap.WithLogger(log.NewTestLogger(t)))
	for _, ent := range []addrmap.Entry{
		{Offset: 0x0000, Length: 0x10, Address: addrmap.NonAddr, PreLabel: ""},
		{Offset: 0x0010, Length: 0x2000, Address: 0x8000},
		{Offset: 0x0100, Length: addrmap.FloatingLen, Address: 0x0300, PreLabel: "overlay", IsRelative: true},
		{Offset: 0x2010, Length: 0x1ff0, Address: 0xc000},
	} {
		assert.Equal(t, addrmap.Okay, p.AddrMap.AddEntry(ent))
	}
	return p
}

func TestSaveLoad(t *testing.T) {
	p := testProject(t)

	var buf bytes.Buffer
	assert.NoError(t, p.Save(&buf))

	output := buf.String()
	assert.True(t, strings.HasPrefix(output, Magic+"\n"))
	assert.Contains(t, output, `"_ContentVersion": 1`)
	assert.Contains(t, output, `"Length": -1024`)
	assert.Contains(t, output, `"Addr": -1025`)

	loaded, err := Load(&buf)
	assert.NoError(t, err)
	assert.Nil(t, loaded.Warnings)
	assert.Equal(t, p.FileDataLength, loaded.FileDataLength)
	assert.Equal(t, p.FileDataCrc32, loaded.FileDataCrc32)

	want, _ := p.AddrMap.EntryList()
	got, _ := loaded.AddrMap.EntryList()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry list mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, loaded.VerifyData(testData()))
}

func TestSaveLoadFile(t *testing.T) {
	p := testProject(t)
	fileName := filepath.Join(t.TempDir(), "test.amp")

	assert.NoError(t, p.SaveFile(fileName))
	loaded, err := LoadFile(fileName)
	assert.NoError(t, err)
	assert.Equal(t, 4, loaded.AddrMap.EntryCount())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.amp"))
	assert.ErrorContains(t, err, "opening file")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   string
	}{
		{
			name:  "missing magic",
			input: `{"_ContentVersion":1}`,
			err:   "not a project file",
		},
		{
			name:  "corrupt json",
			input: Magic + "\n{",
			err:   "decoding project",
		},
		{
			name:  "zero length",
			input: Magic + `{"_ContentVersion":1,"FileDataLength":0}`,
			err:   "invalid file data length 0",
		},
		{
			name:  "negative length",
			input: Magic + `{"_ContentVersion":1,"FileDataLength":-5}`,
			err:   "invalid file data length -5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.err)
		})
	}

	_, err := Load(strings.NewReader("garbage"))
	assert.True(t, errors.Is(err, ErrNotProject))
}

func TestLoadWarnings(t *testing.T) {
	input := Magic + `
{
  "_ContentVersion": 3,
  "FileDataLength": 4096,
  "FileDataCrc32": 0,
  "AddressMap": [
    {"Offset": 0, "Addr": 32768, "Length": 2048, "PreLabel": "", "IsRelative": false},
    {"Offset": 0, "Addr": 36864, "Length": 2048, "PreLabel": "", "IsRelative": false},
    {"Offset": 1024, "Addr": 40960, "Length": 2048, "PreLabel": "", "IsRelative": false},
    {"Offset": 8192, "Addr": 40960, "Length": 16, "PreLabel": "", "IsRelative": false},
    {"Offset": 2048, "Addr": 49152, "Length": -1024, "PreLabel": "tail", "IsRelative": false}
  ]
}`

	p, err := Load(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, 2, p.AddrMap.EntryCount())

	var merr *multierror.Error
	assert.True(t, errors.As(p.Warnings, &merr))
	assert.Len(t, merr.Errors, 4)
	assert.ErrorContains(t, merr.Errors[0], "newer version")

	var addErr *addrmap.AddError
	assert.True(t, errors.As(merr.Errors[1], &addErr))
	assert.Equal(t, addrmap.OverlapExisting, addErr.Result)
	assert.True(t, errors.As(merr.Errors[2], &addErr))
	assert.Equal(t, addrmap.StraddleExisting, addErr.Result)
	assert.True(t, errors.As(merr.Errors[3], &addErr))
	assert.Equal(t, addrmap.InvalidValue, addErr.Result)
}

func TestVerifyData(t *testing.T) {
	p := New(testData())
	assert.NoError(t, p.VerifyData(testData()))

	err := p.VerifyData(testData()[:0x100])
	assert.True(t, errors.Is(err, ErrDataMismatch))
	assert.ErrorContains(t, err, "length is 256 instead of 16384")

	modified := testData()
	modified[0x1234] ^= 0xff
	err = p.VerifyData(modified)
	assert.True(t, errors.Is(err, ErrDataMismatch))
	assert.ErrorContains(t, err, "crc32")
}
