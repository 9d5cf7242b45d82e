package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/screwyprof/sortition/notifier"
	"github.com/screwyprof/sortition/notifier/config"
	"github.com/screwyprof/sortition/notifier/sink"
	"github.com/screwyprof/sortition/pkg/logger"
	"github.com/screwyprof/sortition/pkg/opensea"
)

func main() {
	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := sink.New(ctx, cfg.DiscordBotToken, cfg.DiscordChannelID, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to set up notification sink", slog.Any("error", err))
		os.Exit(1)
	}

	client := opensea.NewClient(
		&http.Client{Timeout: cfg.HttpClientTimeout},
		cfg.OpenSeaAPIURL,
		opensea.WithAPIKey(cfg.OpenSeaAPIToken),
	)

	service := notifier.NewService(client, out, cfg.CollectionSlug, cfg.LookbackSeconds,
		notifier.WithContractAddress(cfg.ContractAddress),
		notifier.WithMaxPages(cfg.MaxPages),
	)

	summary, err := service.Run(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Notifier failed",
			slog.Any("error", err),
			slog.Int("sent", summary.Sent),
		)
		os.Exit(1)
	}

	if summary.Fetched == 0 {
		log.InfoContext(ctx, "No recent sales", slog.String("since", summary.Since.Format(logger.BritishTimeFormat)))
		return
	}

	if summary.Truncated {
		log.WarnContext(ctx, "Page limit reached, older sales were not sent", slog.Int("pages", summary.Pages))
	}
	log.InfoContext(ctx, "Sales sent",
		slog.Int("sent", summary.Sent),
		slog.Int("pages", summary.Pages),
		slog.String("since", summary.Since.Format(logger.BritishTimeFormat)),
	)
}
