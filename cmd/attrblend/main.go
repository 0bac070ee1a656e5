// Command attrblend runs attribute blending jobs described by YAML files.
//
// Usage:
//
//	attrblend run job.yaml -o result.yaml
//	attrblend validate job.yaml
//	attrblend modes
//
// Job and result locations may be local paths or any URL understood by
// github.com/viant/afs (file://, mem://).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/attrblend"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "attrblend",
		Short:         "Blend point attributes across datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			attrblend.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log setup diagnostics")

	root.AddCommand(newRunCmd(), newValidateCmd(), newModesCmd())
	return root
}
