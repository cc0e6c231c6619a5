// main is the entry point for the dorametrics CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/dorametrics/cmd"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute(ctx)
	iocache.CloseStores()
	stop()
	if err != nil {
		contract.LogFatal("Error starting CLI", err)
	}
}
