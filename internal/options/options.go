// Package options contains the program options. The command line flags that
// set them are registered by the cli package.
package options

// Parameters contains file path options.
type Parameters struct {
	Project string // address map project file
	Input   string // input binary file
}

// Flags contains behavior options.
type Flags struct {
	System   string // input format, auto-detected if empty
	Binary   bool   // treat input as raw binary without header
	NoPreset bool   // do not generate the default regions of the input format
	Force    bool   // overwrite an existing project file
	Debug    bool
	Quiet    bool
}

// OutputFlags contains output formatting options.
type OutputFlags struct {
	Format string // text, tree, table or dump
}

// Program options of the address map tool.
type Program struct {
	Parameters
	Flags
	OutputFlags
}
