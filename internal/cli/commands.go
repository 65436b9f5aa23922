package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/addrmap/internal/assembler"
	"github.com/retroenv/addrmap/internal/config"
	"github.com/retroenv/addrmap/internal/project"
	"github.com/retroenv/addrmap/internal/regionfile"
	"github.com/retroenv/addrmap/internal/render"
	"github.com/retroenv/addrmap/internal/translate"
	"github.com/retroenv/addrmap/internal/verification"
	"github.com/retroenv/addrmap/internal/writer"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
)

func (r *runner) newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <input file>",
		Short: "Create a project for an input file",
		Long: "Create a project for an input file. For NES images the header, PRG banks\n" +
			"and CHR data are added as default regions.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.opts.Input = args[0]
			fileName, err := config.ProjectFileName(r.opts.Project, r.opts.Input)
			if err != nil {
				return err
			}

			if !r.opts.Force {
				if _, err := os.Stat(fileName); err == nil {
					return fmt.Errorf("project file '%s' already exists, use --force to overwrite it", fileName)
				}
			}

			proj, err := r.pipeline.Init(cmd.Context(), r.opts)
			if err != nil {
				return err
			}
			if err := r.saveProject(proj, fileName); err != nil {
				return err
			}

			r.logger.Info("Project created",
				log.String("file", fileName),
				log.Int("entries", proj.AddrMap.EntryCount()))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&r.opts.System, "system", "s", "", "input format: nes, binary (default: auto-detect)")
	flags.BoolVar(&r.opts.Binary, "binary", false, "read input file as raw binary file without any header")
	flags.BoolVar(&r.opts.NoPreset, "no-preset", false, "do not add the default regions of the input format")
	flags.BoolVar(&r.opts.Force, "force", false, "overwrite an existing project file")
	return cmd
}

func (r *runner) newAddCommand() *cobra.Command {
	var label string
	var relative bool

	cmd := &cobra.Command{
		Use:   "add <offset> <length|floating> <address|none>",
		Short: "Add a region to the address map",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := regionfile.ParseNumber(args[0])
			if err != nil {
				return fmt.Errorf("invalid offset: %w", err)
			}
			length, err := regionfile.ParseLength(args[1])
			if err != nil {
				return fmt.Errorf("invalid length: %w", err)
			}
			address, err := regionfile.ParseAddress(args[2])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}

			proj, fileName, err := r.openProject()
			if err != nil {
				return err
			}

			ent := addrmap.Entry{
				Offset:     offset,
				Length:     length,
				Address:    address,
				PreLabel:   label,
				IsRelative: relative,
			}
			if result := proj.AddrMap.AddEntry(ent); result != addrmap.Okay {
				return &addrmap.AddError{Entry: ent, Result: result}
			}
			if err := r.saveProject(proj, fileName); err != nil {
				return err
			}

			r.logger.Info("Region added", log.String("entry", ent.String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "label to add right before the region start")
	cmd.Flags().BoolVar(&relative, "relative", false, "mark the region for PC relative address output")
	return cmd
}

func (r *runner) newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <offset> <length|floating>",
		Short: "Remove a region from the address map",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := regionfile.ParseNumber(args[0])
			if err != nil {
				return fmt.Errorf("invalid offset: %w", err)
			}
			length, err := regionfile.ParseLength(args[1])
			if err != nil {
				return fmt.Errorf("invalid length: %w", err)
			}

			proj, fileName, err := r.openProject()
			if err != nil {
				return err
			}

			// RemoveEntry only accepts valid ranges, look the entry up first
			found := false
			for _, ent := range proj.AddrMap.GetEntries(offset) {
				if ent.Length == length {
					found = true
					break
				}
			}
			if !found || !proj.AddrMap.RemoveEntry(offset, length) {
				return fmt.Errorf("no region at +%06x with length %s", offset, args[1])
			}

			if err := r.saveProject(proj, fileName); err != nil {
				return err
			}
			r.logger.Info("Region removed", log.Hex("offset", offset))
			return nil
		},
	}
}

func (r *runner) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <regions.yaml>",
		Short: "Add all regions of a YAML region definition file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := regionfile.ParseFile(args[0])
			if err != nil {
				return err
			}

			proj, fileName, err := r.openProject()
			if err != nil {
				return err
			}

			added, err := regionfile.Apply(proj.AddrMap, entries)
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, rejected := range merr.Errors {
					r.logger.Warn("Region skipped", log.Err(rejected))
				}
			}

			if added > 0 {
				if err := r.saveProject(proj, fileName); err != nil {
					return err
				}
			}

			r.logger.Info("Regions imported",
				log.Int("added", added),
				log.Int("skipped", len(entries)-added))
			return nil
		},
	}
}

func (r *runner) newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the address map",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(cmd, r.opts.Format); err != nil {
				return err
			}

			proj, _, err := r.openProject()
			if err != nil {
				return err
			}
			return render.Write(cmd.OutOrStdout(), proj.AddrMap, r.opts.Format)
		},
	}

	cmd.Flags().StringVarP(&r.opts.Format, "format", "f", render.FormatText, "output format: text, tree, table, dump")
	return cmd
}

func (r *runner) newOffsetToAddressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "o2a <offset>...",
		Short: "Convert file offsets to addresses",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offsets, err := parseNumbers(args, "offset")
			if err != nil {
				return err
			}

			proj, _, err := r.openProject()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, offset := range offsets {
				address := proj.AddrMap.OffsetToAddress(offset)
				if _, err := fmt.Fprintf(out, "+%06x %s\n", offset, addrmap.FormatAddress(address)); err != nil {
					return fmt.Errorf("writing output: %w", err)
				}
			}
			return nil
		},
	}
}

func (r *runner) newAddressToOffsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "a2o <source offset> <address>...",
		Short: "Convert addresses referenced from a file offset to file offsets",
		Args:  minimumArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumbers(args, "number")
			if err != nil {
				return err
			}

			proj, _, err := r.openProject()
			if err != nil {
				return err
			}
			translator, err := translate.New(proj.AddrMap)
			if err != nil {
				return err
			}

			srcOffset := numbers[0]
			out := cmd.OutOrStdout()
			for _, address := range numbers[1:] {
				result := "-NA-"
				if offset := translator.AddressToOffset(srcOffset, address); offset >= 0 {
					result = fmt.Sprintf("+%06x", offset)
				}
				if _, err := fmt.Fprintf(out, "%s %s\n", addrmap.FormatAddress(address), result); err != nil {
					return fmt.Errorf("writing output: %w", err)
				}
			}
			return nil
		},
	}
}

func (r *runner) newPeekCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "peek <source offset> <address>...",
		Short: "Print the input bytes that addresses referenced from a file offset resolve to",
		Args:  minimumArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumbers(args, "number")
			if err != nil {
				return err
			}

			proj, input, err := r.openProjectWithInput(cmd)
			if err != nil {
				return err
			}
			if err := proj.VerifyData(input.Data); err != nil {
				return err
			}

			translator, err := translate.New(proj.AddrMap)
			if err != nil {
				return err
			}

			srcOffset := numbers[0]
			out := cmd.OutOrStdout()
			for _, address := range numbers[1:] {
				b, err := translator.ByteAt(input.Data, srcOffset, address)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "%s $%02x\n", addrmap.FormatAddress(address), b); err != nil {
					return fmt.Errorf("writing output: %w", err)
				}
			}
			return nil
		},
	}
}

func (r *runner) newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the project against the input file and check the address map consistency",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			proj, input, err := r.openProjectWithInput(cmd)
			if err != nil {
				return err
			}
			if err := verification.Check(r.logger, proj, input.Data); err != nil {
				return fmt.Errorf("check failed: %w", err)
			}

			r.logger.Info("Check successful", log.Int("entries", proj.AddrMap.EntryCount()))
			return nil
		},
	}
}

func (r *runner) newExportCommand() *cobra.Command {
	var assemblerName, output string
	var verify, noOffsets bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the input file as assembly source with the address changes of the map",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			asm, err := assembler.New(assemblerName)
			if err != nil {
				return &UsageError{cmd: cmd, msg: err.Error()}
			}
			if verify && output == "" {
				return errors.New("can not verify console output")
			}

			proj, input, err := r.openProjectWithInput(cmd)
			if err != nil {
				return err
			}
			if err := proj.VerifyData(input.Data); err != nil {
				return err
			}

			opts := asm.Options
			opts.OffsetComments = !noOffsets
			if err := exportFile(cmd.OutOrStdout(), output, opts, proj, input.Data); err != nil {
				return err
			}

			if !verify {
				return nil
			}
			if err := verification.VerifyExport(cmd.Context(), r.logger, asm, output, input.Data); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			r.logger.Info("Verification successful")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&assemblerName, "assembler", "a", assembler.Ca65, "assembler compatibility of the generated source (asm6/ca65)")
	flags.StringVarP(&output, "output", "o", "", "name of the output .asm file, printed on console if no name given")
	flags.BoolVar(&verify, "verify", false, "verify the generated output by assembling it and comparing it to the input")
	flags.BoolVar(&noOffsets, "nooffsets", false, "do not output offsets in comments")
	return cmd
}

// exportFile writes the assembly source to the output file, or to out if no
// output file name is given.
func exportFile(out io.Writer, output string, opts writer.Options, proj *project.Project, data []byte) error {
	if output == "" {
		if err := writer.New(out, opts).Write(proj.AddrMap, data, proj.FileDataCrc32); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		return nil
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", output, err)
	}
	if err := writer.New(file, opts).Write(proj.AddrMap, data, proj.FileDataCrc32); err != nil {
		_ = file.Close()
		return fmt.Errorf("exporting: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file '%s': %w", output, err)
	}
	return nil
}
