package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-articles/internal/app"
	"github.com/samvad-hq/samvad-articles/internal/config"
	"github.com/samvad-hq/samvad-articles/internal/logger"
	"github.com/samvad-hq/samvad-articles/pkg/articles"
	"github.com/samvad-hq/samvad-articles/pkg/httpclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, app.Usage)
		}
		fmt.Fprintf(os.Stderr, "articlectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := articles.New(httpclient.NewRestyClient(cfg.APIBaseURL, cfg.ClientTimeout), log)
	return app.NewConsole(client, os.Stdout, log).Run(ctx, args)
}
