// Package main implements the main entry point of the file offset to address map tool
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/addrmap/internal/app"
	"github.com/retroenv/addrmap/internal/cli"
	"github.com/retroenv/addrmap/internal/config"
	retroapp "github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := retroapp.Context()

	root := cli.NewRootCommand(app.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	err := root.ExecuteContext(ctx)
	if err == nil {
		return
	}

	var usageErr *cli.UsageError
	if errors.As(err, &usageErr) {
		fmt.Printf("Error: %s\n\n", usageErr)
		usageErr.ShowUsage()
		os.Exit(1)
	}

	logger := config.CreateLogger(false, false)
	// Handle context cancellation (Ctrl+C) gracefully
	if errors.Is(err, context.Canceled) {
		logger.Info("Operation cancelled")
		return
	}
	logger.Error("Command failed", log.Err(err))
	os.Exit(1)
}
