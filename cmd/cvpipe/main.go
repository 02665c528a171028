package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/askiada/go-cvpipe/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	rootCmd, err := cli.NewRootCmd()
	if err == nil {
		err = rootCmd.ExecuteContext(ctx)
	}

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "cvpipe:", err)
		os.Exit(1)
	}
}
