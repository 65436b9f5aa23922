package verification

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/addrmap/internal/assembler"
	"github.com/retroenv/addrmap/internal/project"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func testData() []byte {
	data := make([]byte, 0x8010)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestCheck(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := project.New(testData())
	for _, ent := range []addrmap.Entry{
		{Offset: 0x0000, Length: 0x10, Address: addrmap.NonAddr},
		{Offset: 0x0010, Length: 0x4000, Address: 0x8000},
		{Offset: 0x0100, Length: addrmap.FloatingLen, Address: 0x0300, PreLabel: "overlay"},
		{Offset: 0x4010, Length: 0x4000, Address: 0xc000},
		{Offset: 0x4010, Length: 0x100, Address: 0x0400},
	} {
		assert.Equal(t, addrmap.Okay, p.AddrMap.AddEntry(ent))
	}

	assert.NoError(t, Check(logger, p, testData()))

	modified := testData()
	modified[0x20]++
	err := Check(logger, p, modified)
	assert.ErrorContains(t, err, "verifying input data")
	assert.ErrorContains(t, err, "crc32")

	err = Check(logger, p, testData()[:0x100])
	assert.ErrorContains(t, err, "length is 256")
}

func TestCheckNestedAddressReuse(t *testing.T) {
	logger := log.NewTestLogger(t)
	data := make([]byte, 0x8000)
	p := project.New(data)
	for _, ent := range []addrmap.Entry{
		{Offset: 0x0000, Length: 0x6000, Address: 0x8000},
		{Offset: 0x1000, Length: 0x4000, Address: 0x8000},
		{Offset: 0x2000, Length: 0x2000, Address: 0x7fff},
	} {
		assert.Equal(t, addrmap.Okay, p.AddrMap.AddEntry(ent))
	}

	// the innermost region wins the lookup of the shared address
	assert.Equal(t, 0x2001, p.AddrMap.AddressToOffset(0x0000, 0x8000))
	assert.NoError(t, Check(logger, p, data))
}

func TestCheckRoundTrip(t *testing.T) {
	logger := log.NewTestLogger(t)
	m := addrmap.New(0x100)
	assert.Equal(t, addrmap.Okay, m.AddEntry(addrmap.Entry{Offset: 0x10, Length: 0x10, Address: 0x1000}))
	assert.NoError(t, checkRoundTrip(logger, m))
}

func TestCheckEmptyMap(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := project.New(testData())
	assert.NoError(t, Check(logger, p, testData()))
}

func TestCheckChangesEqual(t *testing.T) {
	logger := log.NewTestLogger(t)

	m := addrmap.New(0x100)
	assert.Equal(t, addrmap.Okay, m.AddEntry(addrmap.Entry{Offset: 0x10, Length: 0x10, Address: 0x1000}))
	changes := m.ChangeList()

	assert.NoError(t, checkChangesEqual(logger, changes, m.Clone().ChangeList()))

	err := checkChangesEqual(logger, changes, changes[:2])
	assert.ErrorContains(t, err, "mismatched change counts")

	modified := m.ChangeList()
	modified[1].Address++
	modified[2].Region.PreLabel = "moved"
	err = checkChangesEqual(logger, changes, modified)
	assert.ErrorContains(t, err, "2 change mismatches")
}

func TestVerifyExport(t *testing.T) {
	logger := log.NewTestLogger(t)
	data := testData()[:0x100]

	copyAssembler := assembler.Assembler{
		Name: "copy",
		Assemble: func(_ context.Context, asmFile, outputFile string, size int) error {
			content, err := os.ReadFile(asmFile)
			if err != nil {
				return err
			}
			return os.WriteFile(outputFile, content[:size], 0600)
		},
	}

	asmFile := filepath.Join(t.TempDir(), "out.asm")
	assert.NoError(t, os.WriteFile(asmFile, data, 0600))
	assert.NoError(t, VerifyExport(context.Background(), logger, copyAssembler, asmFile, data))

	modified := slices.Clone(data)
	modified[0x10]++
	modified[0x20]++
	err := VerifyExport(context.Background(), logger, copyAssembler, asmFile, modified)
	assert.ErrorContains(t, err, "2 offset mismatches")

	failing := assembler.Assembler{
		Name: "failing",
		Assemble: func(context.Context, string, string, int) error {
			return errors.New("not installed")
		},
	}
	err = VerifyExport(context.Background(), logger, failing, asmFile, data)
	assert.ErrorContains(t, err, "reassembling file using failing failed")
}

func TestCheckBufferEqual(t *testing.T) {
	logger := log.NewTestLogger(t)
	assert.NoError(t, checkBufferEqual(logger, []byte{1, 2}, []byte{1, 2}))
	assert.ErrorContains(t, checkBufferEqual(logger, []byte{1, 2}, []byte{1}), "mismatched lengths, 2 != 1")
}
