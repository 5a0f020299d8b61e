package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"veilchat/cmd/veilchat/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx, commands.NewRootCommand())
	stop()
	if err != nil {
		os.Exit(1)
	}
}
