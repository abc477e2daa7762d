package main

import (
	"github.com/spf13/cobra"

	"github.com/dagflow/dagflow/internal/ports"
)

type rootFlags struct {
	dagsDir string
	verbose bool
}

func newRootCmd(logger ports.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "dagflow",
		Short:         "dagflow composes and runs DAG pipelines of typed tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.dagsDir, "dag_dir", "d", ".dags", "Directory persisted DAG snapshots are read from and written to")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose flag; no command reads it, so log output is unchanged")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd(flags, logger))
	cmd.AddCommand(newServeCmd(flags, logger))

	return cmd
}
