// Package cli handles command line interface logic
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/addrmap/internal/app"
	"github.com/retroenv/addrmap/internal/config"
	"github.com/retroenv/addrmap/internal/loader"
	"github.com/retroenv/addrmap/internal/options"
	"github.com/retroenv/addrmap/internal/pipeline"
	"github.com/retroenv/addrmap/internal/project"
	"github.com/retroenv/addrmap/internal/regionfile"
	"github.com/retroenv/addrmap/internal/render"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
)

var errNoInput = errors.New("no input file given, use -i to pass the input file")

// UsageError represents an error that should show usage information
type UsageError struct {
	cmd *cobra.Command
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage of the command that failed.
func (e *UsageError) ShowUsage() {
	fmt.Print(e.cmd.UsageString())
	fmt.Println()
}

// runner holds the state that is shared by all commands of one execution.
type runner struct {
	info     app.BuildInfo
	opts     options.Program
	logger   *log.Logger
	pipeline *pipeline.Pipeline
}

// NewRootCommand creates the command tree of the address map tool.
func NewRootCommand(info app.BuildInfo) *cobra.Command {
	r := &runner{info: info}

	root := &cobra.Command{
		Use:               app.Name + " [command]",
		Short:             "Map file offsets of binary images to machine addresses",
		Version:           info.VersionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{cmd: cmd, msg: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&r.opts.Project, "project", "p", "", "address map project file (default: derived from the input file)")
	flags.StringVarP(&r.opts.Input, "input", "i", "", "input binary file")
	flags.BoolVar(&r.opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVarP(&r.opts.Quiet, "quiet", "q", false, "perform operations quietly")

	root.AddCommand(
		r.newInitCommand(),
		r.newAddCommand(),
		r.newRemoveCommand(),
		r.newImportCommand(),
		r.newShowCommand(),
		r.newOffsetToAddressCommand(),
		r.newAddressToOffsetCommand(),
		r.newPeekCommand(),
		r.newCheckCommand(),
		r.newExportCommand(),
	)
	return root
}

func (r *runner) setup(_ *cobra.Command, _ []string) error {
	r.logger = config.CreateLogger(r.opts.Debug, r.opts.Quiet)
	app.PrintBanner(r.logger, r.opts.Quiet, r.info)
	r.pipeline = pipeline.New(r.logger)
	return nil
}

// projectFile returns the name of the project file to work on.
func (r *runner) projectFile() (string, error) {
	fileName, err := config.ProjectFileName(r.opts.Project, r.opts.Input)
	if err != nil {
		return "", fmt.Errorf("%w, use -p to pass the project file", err)
	}
	return fileName, nil
}

// openProject loads the project file that the options point to.
func (r *runner) openProject() (*project.Project, string, error) {
	fileName, err := r.projectFile()
	if err != nil {
		return nil, "", err
	}

	proj, err := r.pipeline.OpenProject(fileName)
	if err != nil {
		return nil, "", err
	}
	return proj, fileName, nil
}

// openProjectWithInput loads the project and the input file and verifies
// that the project was created for the input data.
func (r *runner) openProjectWithInput(cmd *cobra.Command) (*project.Project, *loader.Input, error) {
	if r.opts.Input == "" {
		return nil, nil, errNoInput
	}

	proj, _, err := r.openProject()
	if err != nil {
		return nil, nil, err
	}

	input, err := r.pipeline.LoadInput(cmd.Context(), r.opts)
	if err != nil {
		return nil, nil, err
	}
	return proj, input, nil
}

func (r *runner) saveProject(proj *project.Project, fileName string) error {
	if err := proj.SaveFile(fileName); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	r.logger.Debug("Project saved",
		log.String("file", fileName),
		log.Int("entries", proj.AddrMap.EntryCount()))
	return nil
}

// parseNumbers parses all arguments as numbers.
func parseNumbers(args []string, name string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		number, err := regionfile.ParseNumber(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.ExactArgs(n))
}

func minimumArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.MinimumNArgs(n))
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{cmd: cmd, msg: err.Error()}
		}
		return nil
	}
}

func validateFormat(cmd *cobra.Command, format string) error {
	for _, valid := range render.Formats {
		if format == valid {
			return nil
		}
	}
	return &UsageError{
		cmd: cmd,
		msg: fmt.Sprintf("unsupported format: %s. Valid options: %s", format, strings.Join(render.Formats, ", ")),
	}
}
