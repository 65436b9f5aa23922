// Package pipeline orchestrates the project creation and loading workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/addrmap/internal/detector"
	"github.com/retroenv/addrmap/internal/loader"
	"github.com/retroenv/addrmap/internal/mapper"
	"github.com/retroenv/addrmap/internal/options"
	"github.com/retroenv/addrmap/internal/project"
	"github.com/retroenv/addrmap/internal/regionfile"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the project workflows.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new project pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
	}
}

// LoadInput reads the input file and parses it in the detected format.
func (p *Pipeline) LoadInput(ctx context.Context, opts options.Program) (*loader.Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}

	data, err := p.loader.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}

	format := p.detector.Detect(opts, data)
	input, err := p.loader.LoadFromBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}
	return input, nil
}

// Init runs the complete project creation pipeline for the input file.
func (p *Pipeline) Init(ctx context.Context, opts options.Program) (*project.Project, error) {
	input, err := p.LoadInput(ctx, opts)
	if err != nil {
		return nil, err
	}
	return p.InitWithInput(ctx, input, opts)
}

// InitWithInput creates a project for a pre-loaded input. Unless disabled,
// the default regions of the input format are added to the address map.
func (p *Pipeline) InitWithInput(ctx context.Context, input *loader.Input, opts options.Program) (*project.Project, error) {
	p.printInfo(opts, input)

	proj := project.New(input.Data, addrmap.WithLogger(p.logger))
	if opts.NoPreset || input.Cartridge == nil {
		return proj, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	banks, err := mapper.Preset(input.Cartridge)
	if err != nil {
		return nil, fmt.Errorf("generating cartridge regions: %w", err)
	}
	if size := mapper.Size(banks); size > len(input.Data) {
		return nil, fmt.Errorf("cartridge layout needs %d bytes but the file has %d", size, len(input.Data))
	}

	for _, bank := range banks {
		p.logger.Debug("Adding bank",
			log.String("name", bank.Name),
			log.Hex("offset", bank.Offset),
			log.Hex("length", bank.Length),
			log.String("address", addrmap.FormatAddress(bank.Address)))
	}

	if _, err := regionfile.Apply(proj.AddrMap, mapper.Entries(banks)); err != nil {
		return nil, fmt.Errorf("applying cartridge regions: %w", err)
	}
	return proj, nil
}

// OpenProject loads a project file. Entries that could not be restored are
// logged as warnings.
func (p *Pipeline) OpenProject(fileName string) (*project.Project, error) {
	proj, err := project.LoadFile(fileName, addrmap.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}

	var merr *multierror.Error
	switch {
	case errors.As(proj.Warnings, &merr):
		for _, warning := range merr.Errors {
			p.logger.Warn("Project file problem", log.String("file", fileName), log.Err(warning))
		}
	case proj.Warnings != nil:
		p.logger.Warn("Project file problem", log.String("file", fileName), log.Err(proj.Warnings))
	}
	return proj, nil
}

// printInfo prints information about the input being processed.
func (p *Pipeline) printInfo(opts options.Program, input *loader.Input) {
	if opts.Quiet {
		return
	}

	switch input.Format {
	case detector.NES:
		p.logger.Info("Processing NES ROM",
			log.String("file", opts.Input),
			log.Uint16("mapper", input.Cartridge.Mapper),
			log.Int("size", len(input.Data)),
		)
		if input.Cartridge.Mapper != 0 && input.Cartridge.Mapper != 3 && !opts.NoPreset {
			p.logger.Warn("Bank layout of this mapper is a guess, verify the generated regions")
		}

	case detector.Binary:
		p.logger.Info("Processing binary file",
			log.String("file", opts.Input),
			log.Int("size", len(input.Data)),
		)
	}
}
