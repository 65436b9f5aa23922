// Package translate provides read-only address translation on a private copy of
// an address map, so that lookups can be shared between goroutines while the
// source map keeps being edited.
package translate

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/retroenv/addrmap/internal/addrmap"
)

// DefaultCacheSize is the number of address lookups that are cached by default.
const DefaultCacheSize = 4096

// ErrAddressUnmapped is matched by all errors for addresses without data.
var ErrAddressUnmapped = errors.New("address is not mapped")

// AddressError reports an address that could not be resolved to a data offset.
type AddressError struct {
	SrcOffset int
	Address   int
	Offset    int // resolved offset or -1
}

func (e *AddressError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("address %s referenced from +%06x: %s",
			addrmap.FormatAddress(e.Address), e.SrcOffset, ErrAddressUnmapped)
	}
	return fmt.Sprintf("address %s referenced from +%06x resolves to +%06x outside of data: %s",
		addrmap.FormatAddress(e.Address), e.SrcOffset, e.Offset, ErrAddressUnmapped)
}

// Unwrap returns ErrAddressUnmapped.
func (e *AddressError) Unwrap() error {
	return ErrAddressUnmapped
}

type lookupKey struct {
	srcOffset int
	address   int
}

// Translator converts between offsets and addresses. It can not modify the
// map it was created from.
type Translator struct {
	addrMap *addrmap.Map
	cache   *lru.Cache[lookupKey, int]
}

type config struct {
	cacheSize int
}

// Option configures a translator.
type Option func(*config)

// WithCacheSize sets the number of cached address lookups.
func WithCacheSize(size int) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// New returns a translator that works on a copy of the given map.
func New(m *addrmap.Map, opts ...Option) (*Translator, error) {
	cfg := config{
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries, spanLength := m.EntryList()
	clone, err := addrmap.NewFromEntries(spanLength, entries)
	if err != nil {
		return nil, fmt.Errorf("copying address map: %w", err)
	}

	cache, err := lru.New[lookupKey, int](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}

	return &Translator{
		addrMap: clone,
		cache:   cache,
	}, nil
}

// OffsetToAddress converts a file offset to an address.
func (t *Translator) OffsetToAddress(offset int) int {
	return t.addrMap.OffsetToAddress(offset)
}

// AddressToOffset resolves the address as referenced from the source offset.
// It returns -1 if the address is not mapped.
func (t *Translator) AddressToOffset(srcOffset, address int) int {
	key := lookupKey{srcOffset: srcOffset, address: address}
	if offset, ok := t.cache.Get(key); ok {
		return offset
	}

	offset := t.addrMap.AddressToOffset(srcOffset, address)
	t.cache.Add(key, offset)
	return offset
}

// ByteAt returns the byte of data that the address resolves to when it is
// referenced from the source offset.
func (t *Translator) ByteAt(data []byte, srcOffset, address int) (byte, error) {
	offset := t.AddressToOffset(srcOffset, address)
	if offset < 0 || offset >= len(data) {
		return 0, &AddressError{
			SrcOffset: srcOffset,
			Address:   address,
			Offset:    offset,
		}
	}
	return data[offset], nil
}

// SpanLength returns the number of bytes spanned by the map.
func (t *Translator) SpanLength() int {
	return t.addrMap.SpanLength()
}
