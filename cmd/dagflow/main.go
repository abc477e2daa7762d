package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dagflow/dagflow/internal/logx"
)

func main() {
	appLogger, err := logx.New(logx.Options{Level: "info", Component: "cli", Layer: "taskgraph"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application logger: %v\n", err)
		os.Exit(1)
	}

	correlationID := logx.GenerateCorrelationID()
	ctx := logx.WithCorrelationID(context.Background(), correlationID)

	rootCmd := newRootCmd(appLogger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
