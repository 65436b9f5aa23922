// Package ca65 provides helpers to create ca65 assembler compatible asm output.
package ca65

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/retroenv/addrmap/internal/writer"
)

const (
	assemblerName = "ca65"
	linkerName    = "ld65"
)

// Options configures the writer for ca65.
var Options = writer.Options{
	ByteDirective:   ".byte",
	OriginDirective: ".org",
	OffsetComments:  true,
}

// AssembleUsingExternalApp calls the external assembler and linker to generate
// a binary of the given size from the given asm file.
func AssembleUsingExternalApp(ctx context.Context, asmFile, outputFile string, size int) error {
	assembler := assemblerName
	linker := linkerName
	if runtime.GOOS == "windows" {
		assembler += ".exe"
		linker += ".exe"
	}

	if _, err := exec.LookPath(assembler); err != nil {
		return fmt.Errorf("%s is not installed", assembler)
	}
	if _, err := exec.LookPath(linker); err != nil {
		return fmt.Errorf("%s is not installed", linker)
	}

	objectFile, err := os.CreateTemp("", "addrmap.*.o")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	_ = objectFile.Close()
	defer func() {
		_ = os.Remove(objectFile.Name())
	}()

	cmd := exec.CommandContext(ctx, assembler, asmFile, "-o", objectFile.Name())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembling file: %s: %w", strings.TrimSpace(string(out)), err)
	}

	configFile, err := os.CreateTemp("", "addrmap.*.cfg")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	_ = configFile.Close()
	defer func() {
		_ = os.Remove(configFile.Name())
	}()

	config, err := GenerateLinkerConfig(size)
	if err != nil {
		return fmt.Errorf("generating ca65 config: %w", err)
	}
	if err := os.WriteFile(configFile.Name(), []byte(config), 0666); err != nil {
		return fmt.Errorf("writing linker config: %w", err)
	}

	cmd = exec.CommandContext(ctx, linker, "-C", configFile.Name(), "-o", outputFile, objectFile.Name())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("linking file: %s: %w", strings.TrimSpace(string(out)), err)
	}

	return nil
}
