package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type cliArgs struct {
	target     string
	cfgPath    string
	overrides  stringSlice
	color      string
	copyReport bool
	verbose    bool
	saveConfig bool
	showLast   bool
}

var errUsage = errors.New("usage")

// parseArgs parses the command line. targetUsage describes the profiles the
// built-in rule table accepts.
func parseArgs(args []string, stderr io.Writer, targetUsage string) (cliArgs, error) {
	var cli cliArgs
	fs := flag.NewFlagSet("settings-converter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: settings-converter -t <profile> [flags]")
		fmt.Fprintln(fs.Output(), "Switches League client settings between profile presets.")
		fs.PrintDefaults()
	}

	fs.StringVar(&cli.target, "t", "", "Shorthand for -target")
	fs.StringVar(&cli.target, "target", "", "Required "+targetUsage)
	fs.StringVar(&cli.cfgPath, "config", "", "Path to config file (default ~/.settings-converter/config.toml)")
	fs.Var(&cli.overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&cli.color, "color", "", "Highlight changed values: auto, always or never")
	fs.BoolVar(&cli.copyReport, "copy", false, "Copy the report to the clipboard")
	fs.BoolVar(&cli.verbose, "v", false, "Verbose logging to stderr")
	fs.BoolVar(&cli.showLast, "last", false, "Print the most recently applied profile and exit")
	fs.BoolVar(&cli.saveConfig, "save-config", false, "Persist the effective config (after -c overrides) before running")

	if err := fs.Parse(args); err != nil {
		return cli, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return cli, fmt.Errorf("%w: unexpected arguments %q", errUsage, fs.Args())
	}
	if strings.TrimSpace(cli.target) == "" && !cli.showLast {
		fs.Usage()
		return cli, fmt.Errorf("%w: missing required -target, %s", errUsage, targetUsage)
	}
	return cli, nil
}
