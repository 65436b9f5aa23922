package addrmap

import (
	"fmt"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

type addressLookup struct {
	srcOffset int
	address   int
	offset    int
}

func checkLookups(t *testing.T, m *Map, lookups []addressLookup) {
	t.Helper()
	for _, l := range lookups {
		assert.Equal(t, l.offset, m.AddressToOffset(l.srcOffset, l.address),
			fmt.Sprintf("lookup of %s from +%06x", FormatAddress(l.address), l.srcOffset))
	}
}

func TestResolveSimpleLinear(t *testing.T) {
	const mapLen = 0x8000
	m := New(mapLen)
	mustAdd(t, m, 0x000000, 0x0200, 0x1000)
	mustAdd(t, m, 0x000200, 0x0500, 0x1200)
	mustAdd(t, m, 0x000700, 0x0300, 0x1700)

	assert.Equal(t, 0x1000, m.OffsetToAddress(0x000000))
	assert.Equal(t, 0x1200, m.OffsetToAddress(0x000200))
	assert.Equal(t, 0x1700, m.OffsetToAddress(0x000700))
	assert.Equal(t, 0x1100, m.OffsetToAddress(0x000100))
	assert.Equal(t, NonAddr, m.OffsetToAddress(0x004000)) // hole
	assert.Equal(t, NonAddr, m.OffsetToAddress(mapLen))   // outside
	assert.Equal(t, NonAddr, m.OffsetToAddress(-1))

	checkLookups(t, m, []addressLookup{
		{0x000000, 0x1000, 0x000000},
		{0x000200, 0x1000, 0x000000},
		{0x000700, 0x1000, 0x000000},
		{0x000000, 0x1250, 0x000250},
		{0x000200, 0x1250, 0x000250},
		{0x000700, 0x1250, 0x000250},
		{0x0001ff, 0x19ff, 0x0009ff},
		{0x0006ff, 0x19ff, 0x0009ff},
		{0x0009ff, 0x19ff, 0x0009ff},
		{0x000000, 0x7000, -1},
	})
}

func TestResolveSimpleFloatGap(t *testing.T) {
	m := New(0x8000)
	mustAdd(t, m, 0x001000, FloatingLen, 0x1000)
	mustAdd(t, m, 0x004000, 0x3000, 0x1200)
	mustAdd(t, m, 0x005000, 0x0100, NonAddr)

	region, ok := m.FindRegion(0x001000, FloatingLen)
	assert.True(t, ok)
	assert.Equal(t, 0x3000, region.ActualLength)

	assert.Equal(t, 0x1000, m.OffsetToAddress(0x001000))
	assert.Equal(t, 0x1200, m.OffsetToAddress(0x004000))
	assert.Equal(t, NonAddr, m.OffsetToAddress(0x005000))
	assert.Equal(t, 0x1001, m.OffsetToAddress(0x001001))
	assert.Equal(t, 0x1300, m.OffsetToAddress(0x004100))
	assert.Equal(t, NonAddr, m.OffsetToAddress(0x007000))

	checkLookups(t, m, []addressLookup{
		{0x000000, 0x0000, -1},
		{0x000000, 0x1005, 0x001005},
		// the floating region holds the first match of $21ff
		{0x000000, 0x21ff, 0x0021ff},
		{0x004000, 0x21ff, 0x004fff},
		// $2205 is inside the non-addressable hole of the second region
		{0x000000, 0x2205, 0x002205},
		{0x004000, 0x2205, 0x002205},
	})
}

func TestResolveNested(t *testing.T) {
	m := New(0x8000)

	// shared start offset
	for _, ent := range []Entry{
		{Offset: 0x000100, Length: 0x0400, Address: 0x4000, PreLabel: "preA0"},
		{Offset: 0x000100, Length: 0x0100, Address: 0x7000, PreLabel: "preA1"},
		{Offset: 0x000100, Length: 0x0300, Address: 0x5000, PreLabel: "preA2"},
		{Offset: 0x000100, Length: 0x0200, Address: 0x6000, PreLabel: "preA3"},
		{Offset: 0x0000ff, Length: FloatingLen, Address: 0x30ff, PreLabel: "preA4"},
		{Offset: 0x000101, Length: FloatingLen, Address: 0x3101, PreLabel: "preA5"},
	} {
		assert.Equal(t, Okay, m.AddEntry(ent))
	}
	assert.Equal(t, OverlapFloating,
		m.AddEntry(Entry{Offset: 0x000100, Length: FloatingLen, Address: 0x3100, PreLabel: "preA6"}))

	// shared end offset
	for _, ent := range []Entry{
		{Offset: 0x000fff, Length: FloatingLen, Address: 0x3fff, PreLabel: "preB0"},
		{Offset: 0x001200, Length: 0x0200, Address: 0x6000, PreLabel: "preB1"},
		{Offset: 0x001000, Length: 0x0400, Address: 0x4000, PreLabel: "preB2"},
		{Offset: 0x001100, Length: 0x0300, Address: 0x5000, PreLabel: "preB3"},
		{Offset: 0x001300, Length: 0x0100, Address: 0x7000, PreLabel: "preB4"},
		{Offset: 0x001200, Length: 1, Address: 0x8200, PreLabel: "preB5"},
		{Offset: 0x0013ff, Length: 1, Address: 0x83ff, PreLabel: "preB6"},
	} {
		assert.Equal(t, Okay, m.AddEntry(ent))
	}

	// no common edge, outside-in and inside-out
	mustAdd(t, m, 0x002000, 0x0800, 0x4000)
	mustAdd(t, m, 0x002100, 0x0600, 0x5000)
	mustAdd(t, m, 0x002200, 0x0400, 0x6000)
	mustAdd(t, m, 0x002300, 0x0200, 0x7000)
	mustAdd(t, m, 0x003300, 0x0200, 0x7000)
	mustAdd(t, m, 0x003200, 0x0400, 0x6000)
	mustAdd(t, m, 0x003100, 0x0600, 0x5000)
	mustAdd(t, m, 0x003000, 0x0800, 0x4000)

	// floater then overlap
	mustAdd(t, m, 0x004000, FloatingLen, 0x8000)
	assert.Equal(t, OverlapFloating, m.AddEntry(Entry{Offset: 0x004000, Length: 0x100, Address: 0x8000}))
	assert.True(t, m.RemoveEntry(0x004000, FloatingLen))

	assert.Equal(t, 0x30ff, m.OffsetToAddress(0x0000ff))
	assert.Equal(t, 0x7000, m.OffsetToAddress(0x000100))
	assert.Equal(t, 0x3101, m.OffsetToAddress(0x000101))
	assert.Equal(t, 0x5000, m.OffsetToAddress(0x001100))
	assert.Equal(t, 0x7000, m.OffsetToAddress(0x001300))

	checkLookups(t, m, []addressLookup{
		// the first chunk has $5000 at a start shared with children
		{0x000000, 0x5000, 0x001100},
		{0x002300, 0x5000, 0x002100},
		{0x003000, 0x5000, 0x003100},
	})

	region, ok := m.FindRegion(0x000101, FloatingLen)
	assert.True(t, ok)
	assert.Equal(t, 0xff, region.ActualLength)
	assert.Equal(t, 0x7001, region.PreLabelAddress)
	assert.True(t, region.HasValidPreLabel())

	region, ok = m.FindRegion(0x0000ff, FloatingLen)
	assert.True(t, ok)
	assert.Equal(t, 1, region.ActualLength)
	assert.Equal(t, NonAddr, region.PreLabelAddress)
	assert.False(t, region.HasValidPreLabel())
	assert.NoError(t, m.Validate())
}

func TestResolveCross(t *testing.T) {
	m := New(0x4000)
	mustAdd(t, m, 0x000000, 0x2000, 0x8000)
	mustAdd(t, m, 0x002000, 0x2000, 0x8000)
	mustAdd(t, m, 0x002100, 0x0200, 0xe100)
	mustAdd(t, m, 0x003100, 0x0200, 0xf100)

	checkLookups(t, m, []addressLookup{
		{0x000000, 0xf105, 0x003105},
		{0x002100, 0xf105, 0x003105},
		{0x003100, 0xf105, 0x003105},
		{0x000000, 0xe105, 0x002105},
		{0x002100, 0xe105, 0x002105},
		{0x003100, 0xe105, 0x002105},
		// hole in the second chunk, found in the first one
		{0x000000, 0x8105, 0x000105},
		{0x002000, 0x8105, 0x000105},
		// found in the chunk that holds the reference
		{0x000000, 0x8400, 0x000400},
		{0x002000, 0x8400, 0x002400},
		{0x002100, 0x8400, 0x002400},
		{0x003100, 0x8400, 0x002400},
		{0x000000, 0x9100, 0x001100},
	})
}

func TestResolvePyramids(t *testing.T) {
	m := New(0xc000)
	mustAdd(t, m, 0x000000, 0x6000, 0x8000)
	mustAdd(t, m, 0x001000, 0x4000, 0x8000)
	mustAdd(t, m, 0x002000, 0x2000, 0x7fff)
	mustAdd(t, m, 0x006000, 0x6000, 0x8000)
	mustAdd(t, m, 0x007000, 0x4000, 0x8000)
	mustAdd(t, m, 0x008000, 0x2000, 0x8000)

	checkLookups(t, m, []addressLookup{
		// children take priority over the start node
		{0x000000, 0x8000, 0x002001},
		{0x000000, 0x8fff, 0x003000},
		{0x001000, 0x8000, 0x002001},
		{0x001000, 0x8fff, 0x003000},
		{0x002000, 0x8000, 0x002001},
		{0x000000, 0x7fff, 0x002000},
		{0x000000, 0xd000, 0x005000},
		{0x003000, 0xd000, 0x005000},
		{0x000000, 0xc000, -1},
		{0x000000, 0xcfff, -1},
		{0x006000, 0x8000, 0x008000},
		{0x007000, 0x8000, 0x008000},
		{0x008000, 0x8000, 0x008000},
		{0x00bfff, 0x8000, 0x008000},
		// only in the first pyramid
		{0x008000, 0x7fff, 0x002000},
		{0x008000, 0xa000, -1},
	})

	tests := []struct {
		name     string
		offset   int
		length   int
		unbroken bool
	}{
		{"inside single byte", 0x000000, 1, true},
		{"inside", 0x007000, 0x0800, true},
		{"ends at edge", 0x000ffe, 2, true},
		{"starts at edge", 0x001000, 2, true},
		{"spans whole child gap", 0x007000, 0x1000, true},
		{"crossing edge", 0x000fff, 2, false},
		{"fully encapsulating", 0x005500, 0x1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unbroken, m.IsRangeUnbroken(tt.offset, tt.length))
		})
	}

	expectPanic(t, func() { m.IsRangeUnbroken(0, FloatingLen) })
	expectPanic(t, func() { m.IsRangeUnbroken(0xbfff, 2) })
}

func TestResolveRoundTrip(t *testing.T) {
	m := New(0x4000)
	mustAdd(t, m, 0x000000, 0x2000, 0x8000)
	mustAdd(t, m, 0x002000, 0x2000, 0x8000)
	mustAdd(t, m, 0x002100, 0x0200, 0xe100)
	mustAdd(t, m, 0x003100, 0x0200, NonAddr)

	for offset := 0; offset < m.SpanLength(); offset += 0x40 {
		address := m.OffsetToAddress(offset)
		if address == NonAddr {
			assert.True(t, offset >= 0x3100 && offset < 0x3300)
			continue
		}
		assert.Equal(t, offset, m.AddressToOffset(offset, address))
	}
}
