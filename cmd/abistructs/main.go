package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/jshufro/abistructs/internal/config"
	"github.com/jshufro/abistructs/internal/logging"
)

// app carries the settings shared by every subcommand once setup has run.
type app struct {
	cfg config.Config

	configPath string
	logLevel   string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "abistructs",
		Short: "Recover the struct declarations used by contract ABIs",
		Long: `abistructs reads contract ABIs, finds every struct-shaped parameter, merges
structurally identical ones, names the anonymous ones and prints the resulting
declarations as Solidity, protobuf, Go or JSON.`,
		Version:           buildVersion(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to "+config.FileName+" (default: search upwards from the working directory)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(a.resolveCmd())
	root.AddCommand(a.signatureCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return err
		}
		if ok {
			path = found
		}
	}

	a.cfg = config.Default()
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if cmd.Flags().Changed("log-level") {
		a.cfg.Log.Level = a.logLevel
	}
	if a.noColor {
		a.cfg.Log.Color = false
	}
	if !a.cfg.Log.Color {
		color.NoColor = true
	}

	level, err := logging.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	ctx := logging.Setup(cmd.Context(), cmd.ErrOrStderr(), level, !color.NoColor)
	if path != "" {
		slogctx.Debug(ctx, "loaded config", "path", path)
	}
	cmd.SetContext(ctx)
	return nil
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, err)
}

func printWarning(w io.Writer, path string, err error) {
	color.New(color.FgYellow, color.Bold).Fprint(w, "warning: ")
	fmt.Fprintf(w, "%s: %v\n", path, err)
}

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		printError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}
