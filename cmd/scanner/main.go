package main

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/screwyprof/sortition/pkg/chain"
	"github.com/screwyprof/sortition/pkg/logger"
	"github.com/screwyprof/sortition/pkg/pgxdb"
	"github.com/screwyprof/sortition/scanner"
	"github.com/screwyprof/sortition/scanner/config"
	"github.com/screwyprof/sortition/scanner/store/pgxstore"
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

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "Scanner failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	address, err := chain.ParseAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}

	policy, err := scanner.ParseTallyPolicy(cfg.TallyPolicy)
	if err != nil {
		return err
	}

	client, err := chain.Dial(ctx, cfg.RPCURL, &http.Client{Timeout: cfg.RPCTimeout})
	if err != nil {
		return err
	}
	defer client.Close()

	reader, err := chain.NewReader(client, address,
		chain.WithRateLimit(rate.Limit(cfg.RPCRate), cfg.RPCBurst),
		chain.WithMaxLogRange(cfg.LogRange),
	)
	if err != nil {
		return err
	}

	opts := []scanner.Option{scanner.WithPollInterval(cfg.PollInterval)}

	if cfg.DatabaseURL != "" {
		db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store, storeCloser := pgxstore.New(db)
		defer storeCloser()

		opts = append(opts, scanner.WithArchive(store))
	}

	sc := scanner.New(reader,
		scanner.WithBlockInterval(cfg.BlockInterval),
		scanner.WithMaxEnumeration(cfg.MaxEnumeration),
		scanner.WithTallyPolicy(policy),
		scanner.WithResolveAllTimestamps(cfg.ResolveAllTimestamps),
	)

	log.InfoContext(ctx, "Starting sortition scanner",
		slog.String("contract", address.Hex()),
		slog.Int64("lookbackSeconds", cfg.LookbackSeconds),
		slog.Duration("blockInterval", cfg.BlockInterval),
		slog.Duration("pollInterval", cfg.PollInterval),
		slog.Bool("archive", cfg.DatabaseURL != ""),
	)
	events, done := scanner.NewService(sc, cfg.LookbackSeconds, opts...).Start(ctx)

	var lastErr atomic.Pointer[error]
	subCloser := setupEventLogging(ctx, events, log, &lastErr)

	<-done
	subCloser()

	// a one-shot run exits non-zero when its scan failed; a polling run
	// reports failures as they happen and exits cleanly on shutdown
	if cfg.PollInterval <= 0 {
		if errp := lastErr.Load(); errp != nil {
			return *errp
		}
	}

	log.InfoContext(ctx, "Scanner stopped")
	return nil
}

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan scanner.Event, log *slog.Logger, lastErr *atomic.Pointer[error]) func() {
	return scanner.NewSubscriber(events,
		scanner.OnScanStarted(func(event scanner.ScanStarted) {
			log.InfoContext(ctx, "Scan started",
				slog.String("startedAt", event.StartedAt.Format(logger.BritishTimeFormat)),
				slog.Int64("lookbackSeconds", event.LookbackSeconds),
			)
		}),
		scanner.OnScanCompleted(func(event scanner.ScanCompleted) {
			lastErr.Store(nil)
			logScanResult(ctx, log, event)
		}),
		scanner.OnScanFailed(func(event scanner.ScanFailed) {
			lastErr.Store(&event.Err)
			log.ErrorContext(ctx, "Scan failed", slog.Any("error", event.Err))
		}),
		scanner.OnArchiveFailed(func(event scanner.ArchiveFailed) {
			log.ErrorContext(ctx, "Archiving scan failed", slog.Any("error", event.Err))
		}),
		scanner.OnPollingStarted(func(event scanner.PollingStarted) {
			log.InfoContext(ctx, "Polling started", slog.Duration("interval", event.Interval))
		}),
		scanner.OnPollingShutdown(func(event scanner.PollingShutdown) {
			log.InfoContext(ctx, "Polling stopped", slog.String("reason", event.Reason.Error()))
		}),
	)
}

func logScanResult(ctx context.Context, log *slog.Logger, event scanner.ScanCompleted) {
	r := event.Result

	if r.Incomplete != nil {
		log.WarnContext(ctx, "Entity resolution stopped early, reporting partial entities",
			slog.Any("error", r.Incomplete),
			slog.Int("resolved", len(r.Entities)),
			slog.Int("discovered", r.Discovered),
		)
	}

	if len(r.Events) == 0 {
		log.InfoContext(ctx, "Scan completed, nothing found",
			slog.Uint64("fromBlock", r.FromBlock),
			slog.Uint64("toBlock", r.ToBlock),
			slog.Int("entities", len(r.Entities)),
		)
	} else {
		log.InfoContext(ctx, "Scan completed",
			slog.Uint64("fromBlock", r.FromBlock),
			slog.Uint64("toBlock", r.ToBlock),
			slog.Int("events", len(r.Events)),
			slog.Int("entities", len(r.Entities)),
			slog.Int("nominators", len(r.Nominators)),
			slog.Duration("duration", event.Duration),
			slog.Int64("archiveID", event.ArchiveID),
		)
	}

	log.InfoContext(ctx, "Current term",
		slog.Int64("expiresAt", r.Term.ExpiresAt),
	)

	for _, ev := range r.Events {
		log.DebugContext(ctx, "Nomination",
			slog.Uint64("block", ev.BlockNumber),
			slog.Int64("term", ev.TermNumber),
			slog.String("nominator", ev.Nominator),
			slog.Int64("pixels", ev.Pixels),
		)
	}
	for _, t := range r.Nominators {
		log.InfoContext(ctx, "Nominator",
			slog.String("address", t.Nominator),
			slog.Int("nominations", t.Nominations),
			slog.Int64("pixels", t.Pixels),
		)
	}
	for _, id := range slices.Sorted(maps.Keys(r.Entities)) {
		e := r.Entities[id]
		log.InfoContext(ctx, "Nominated entity",
			slog.String("tokenID", e.TokenID),
			slog.String("nominatedTokenID", e.NominatedTokenID),
			slog.Int64("pixelCount", e.PixelCount),
		)
	}
}
