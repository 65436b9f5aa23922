package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/addrmap/internal/detector"
	"github.com/retroenv/retrogolib/assert"
)

func createNESImage() []byte {
	nesData := make([]byte, 16+16384) // Header + 16KB PRG
	copy(nesData[0:4], []byte{'N', 'E', 'S', 0x1A})
	nesData[4] = 1 // 1 PRG bank
	return nesData
}

func TestReadFile(t *testing.T) {
	loader := New()

	tmpFile := createTempFile(t, []byte{0x01, 0x02, 0x03, 0x04})
	data, err := loader.ReadFile(tmpFile)
	assert.NoError(t, err)
	assert.Len(t, data, 4)

	_, err = loader.ReadFile("/nonexistent/file.nes")
	assert.ErrorContains(t, err, "reading file")

	_, err = loader.ReadFile(createTempFile(t, nil))
	assert.ErrorContains(t, err, "empty")
}

func TestReadFileTooLarge(t *testing.T) {
	loader := New()

	fileName := filepath.Join(t.TempDir(), "big.bin")
	file, err := os.Create(fileName)
	assert.NoError(t, err)
	assert.NoError(t, file.Truncate(addrmap.OffsetMax+2))
	assert.NoError(t, file.Close())

	_, err = loader.ReadFile(fileName)
	assert.True(t, errors.Is(err, ErrInputTooLarge))

	_, err = loader.LoadFromBytes(make([]byte, addrmap.OffsetMax+2), detector.Binary)
	assert.True(t, errors.Is(err, ErrInputTooLarge))

	input, err := loader.LoadFromBytes(make([]byte, addrmap.OffsetMax+1), detector.Binary)
	assert.NoError(t, err)
	assert.Len(t, input.Data, addrmap.OffsetMax+1)
}

func TestLoadFromBytes(t *testing.T) {
	loader := New()

	t.Run("binary data", func(t *testing.T) {
		input, err := loader.LoadFromBytes([]byte{0x01, 0x02}, detector.Binary)
		assert.NoError(t, err)
		assert.Nil(t, input.Cartridge)
		assert.Equal(t, detector.Binary, input.Format)
		assert.Len(t, input.Data, 2)
	})

	t.Run("NES image with valid header", func(t *testing.T) {
		input, err := loader.LoadFromBytes(createNESImage(), detector.NES)
		assert.NoError(t, err)
		assert.NotNil(t, input.Cartridge)
		assert.Len(t, input.Cartridge.PRG, 16384)
	})

	t.Run("NES image with invalid header", func(t *testing.T) {
		_, err := loader.LoadFromBytes([]byte{0x01, 0x02, 0x03, 0x04}, detector.NES)
		assert.ErrorContains(t, err, "loading cartridge")
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := loader.LoadFromBytes(nil, detector.Binary)
		assert.Error(t, err)
	})
}

func createTempFile(t *testing.T, data []byte) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return tmpFile
}
