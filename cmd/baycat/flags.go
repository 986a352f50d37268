package main

import "github.com/spf13/pflag"

// manifestPathFlags registers the --manifest/-o flag shared by every
// subcommand that loads an existing manifest from a non-default location,
// following the small flag-bundle-with-a-Register-method pattern mutagen
// uses for its own reusable flag groups (e.g. its template output flags).
type manifestPathFlags struct {
	// path is the value of --manifest.
	path string
}

// Register adds the --manifest flag to flags, binding it into f.
func (f *manifestPathFlags) Register(flags *pflag.FlagSet, usage string) {
	flags.StringVarP(&f.path, "manifest", "o", "", usage)
}
