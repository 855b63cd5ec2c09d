package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nicholasgasior/anyconvert"
)

// errDiagnostic is returned by run when the converter reported a diagnostic. The
// diagnostic itself has already been written to stderr.
var errDiagnostic = errors.New("conversion failed")

// app is the state shared by all subcommands, filled in before any of them runs.
type app struct {
	cfgFile string
	cfg     cliConfig
	logger  *slog.Logger
	toolkit *anyconvert.Toolkit
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "anyconvert",
		Short: "Convert text and files with a catalog of small converters.",
		Long: `anyconvert runs converters from a fixed catalog: encodings, hashes, data formats,
web and number utilities, colors, text transforms, images, media and documents.

Use "anyconvert list" to browse the catalog and "anyconvert run <id>" to convert.
Text is read from --text or stdin, files from --file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Configuration file path (default is ./anyconvert.yaml or $HOME/.config/anyconvert/anyconvert.yaml)")
	pf.BoolP("verbose", "v", false, "Enable debug logging on stderr")
	pf.Bool("json", false, "Print machine-readable JSON")
	pf.String("output-dir", "", "Directory for binary results (default is the current directory)")

	cmd.AddCommand(
		newListCmd(a),
		newCategoriesCmd(a),
		newDescribeCmd(a),
		newRunCmd(a),
		newMCPCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.ConfigFile != "" {
		a.logger.Debug("Using configuration file", slog.String("path", cfg.ConfigFile))
	}
	a.toolkit = anyconvert.New(anyconvert.WithLogger(a.logger))
	return nil
}
