package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/gogpu/attrblend"
	"github.com/gogpu/attrblend/config"
)

func newRunCmd() *cobra.Command {
	var (
		output  string
		workers int
		chunk   int
		only    []string
	)

	cmd := &cobra.Command{
		Use:   "run JOB",
		Short: "Run the jobs of a job file and write the resulting datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs := afs.New()

			f, err := loadJob(ctx, fs, args[0])
			if err != nil {
				return err
			}
			plan, err := config.Build(f)
			if err != nil {
				return err
			}
			plan.ChunkSize = chunk

			pool := attrblend.NewPool(workers)
			defer pool.Close()

			log := attrblend.Logger()
			log.Info("attrblend: running", "job", args[0], "jobs", len(f.Jobs), "workers", pool.Workers())
			report, err := plan.Run(ctx, pool)
			if err != nil {
				return err
			}
			if m := report.Mismatches(); len(m) > 0 {
				log.Warn("attrblend: attribute type mismatch", "attributes", strings.Join(m, ", "))
			}

			result, err := config.Export(plan, only...)
			if err != nil {
				return err
			}
			if output == "" {
				data, err := config.Marshal(result)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := saveResult(ctx, fs, output, result); err != nil {
				return err
			}
			log.Info("attrblend: result written", "output", output, "datasets", len(result.Datasets))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "result location (default stdout)")
	flags.IntVarP(&workers, "workers", "w", 0, "worker goroutines (default GOMAXPROCS)")
	flags.IntVar(&chunk, "chunk", attrblend.DefaultChunkSize, "points per scheduled scope")
	flags.StringSliceVar(&only, "dataset", nil, "datasets to write (default all)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate JOB",
		Short: "Check a job file and initialize its jobs without blending",
		Long: `Validate parses the job file, builds its datasets and initializes every
job in file order. Jobs that read the results of earlier jobs can only be
checked by run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadJob(cmd.Context(), afs.New(), args[0])
			if err != nil {
				return err
			}
			plan, err := config.Build(f)
			if err != nil {
				return err
			}
			report, err := plan.Check()
			out := cmd.OutOrStdout()
			for _, j := range report.Jobs {
				fmt.Fprintf(out, "%-10s %-20s %d entries\n", j.Type, j.Name, j.Entries)
				if len(j.Mismatches) > 0 {
					fmt.Fprintf(out, "%-10s %-20s type mismatch: %s\n", "", "", strings.Join(j.Mismatches, ", "))
				}
			}
			return err
		},
	}
}

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List blend modes and the value kinds they support",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, m := range attrblend.Modes() {
				var kinds []string
				for _, k := range attrblend.Kinds() {
					if m.SupportsKind(k) {
						kinds = append(kinds, k.String())
					}
				}
				weight := ""
				if m.RequiresWeight() {
					weight = " (weighted)"
				}
				fmt.Fprintf(out, "%-17s%s %s\n", m, weight, strings.Join(kinds, " "))
			}
		},
	}
}
