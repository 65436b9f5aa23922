// Package config handles application configuration and setup
package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// ProjectExtension is the file extension of project files.
const ProjectExtension = ".amp"

var errNoProject = errors.New("no project file or input file given")

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// ProjectFileName returns the project file to use. Without an explicit
// project file name it is derived from the input file name by replacing the
// extension.
func ProjectFileName(project, input string) (string, error) {
	if project != "" {
		return project, nil
	}
	if input == "" {
		return "", errNoProject
	}

	ext := filepath.Ext(input)
	if strings.EqualFold(ext, ProjectExtension) {
		return input, nil
	}
	return strings.TrimSuffix(input, ext) + ProjectExtension, nil
}
