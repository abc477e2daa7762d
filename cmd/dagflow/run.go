package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagflow/dagflow/internal/exec"
	"github.com/dagflow/dagflow/internal/pipeline"
	"github.com/dagflow/dagflow/internal/ports"
)

func newRunCmd(flags *rootFlags, logger ports.Logger) *cobra.Command {
	var queueBackend string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compose and run the built-in demo pipeline end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				QueueBackend: queueBackend,
				ExecMode:     exec.Sequential,
				Logger:       logger,
			}
			p, err := buildDemoPipeline(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := p.Run(ctx); err != nil {
				return err
			}

			for _, act := range p.Steps {
				if result, ok := act.Result(); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %v\n", act.Name, result)
				}
			}
			logger.Info(ctx, "pipeline run complete", "name", p.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&queueBackend, "queue-backend", "sequential", "Queue backend: default, sequential, multi-threading, multi-processing, asyncio, async")
	return cmd
}
