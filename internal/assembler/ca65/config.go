package ca65

import (
	"fmt"
)

const linkerConfig = `
MEMORY {
    FILE:        start = $0000,  size = $%04X,  type = ro, file = %%O, fill = yes;
}

SEGMENTS {
    CODE:        load = FILE, type = ro;
}
`

// GenerateLinkerConfig generates a ca65 linker config that outputs a single
// file of the given size. Program counter changes are done by the source.
func GenerateLinkerConfig(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("invalid output size %d", size)
	}
	return fmt.Sprintf(linkerConfig, size), nil
}
