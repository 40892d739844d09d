package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/cmd/review-scraper/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
