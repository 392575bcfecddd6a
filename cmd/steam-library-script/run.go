package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kula-app/steam-library-script/internal/config"
	"github.com/kula-app/steam-library-script/internal/generator"
	"github.com/kula-app/steam-library-script/internal/logging"
	"github.com/kula-app/steam-library-script/internal/output"
	"github.com/kula-app/steam-library-script/internal/script"
	"github.com/kula-app/steam-library-script/internal/skiplist"
	"github.com/kula-app/steam-library-script/internal/steam"
)

// The run function is like the main function, except that it takes in operating system fundamentals as arguments, and returns an error.
//
// If the run function finishes without an error, the script was written.
// If the run function returns an error, the caller must exit with a non-zero status.
func run(ctx context.Context, args []string, getenv func(key string) string, stdout, stderr io.Writer) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments %q: configuration is read from the environment", args[1:])
	}

	// Load configuration before any network activity
	cfg, err := config.Load(getenv)
	if err != nil {
		return err
	}

	level, levelErr := logging.ParseLevel(cfg.LogLevel)
	logger := slog.New(logging.NewTerminalHandler(stderr, level))
	if levelErr != nil {
		logger.Warn("falling back to info logging", "error", levelErr)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Without a SIGPIPE handler a write to a closed stdout kills the process
	// instead of returning EPIPE.
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)
	defer signal.Stop(sigpipe)

	skip := skiplist.Parse(cfg.SkipGames)
	strategy := cfg.SharedStrategy()
	for _, warning := range cfg.SharingWarnings() {
		logger.Warn(warning)
	}

	logger.Info("configuration loaded",
		"profile_id", cfg.ProfileID,
		"shared_strategy", strategy.String(),
		"lenders", len(cfg.LenderIDs),
		"skip_tokens", skip.Len(),
		"force_validate", cfg.ForceValidation())

	httpClient := &http.Client{}
	client := steam.NewClient(httpClient, cfg.SteamAPIURL, cfg.APIKey, logger)

	var shared steam.SharedSource
	switch strategy {
	case config.SharingFamilyGroup:
		shared = steam.NewFamilyGroupSource(client, cfg.AccessToken, cfg.FamilyGroupID, cfg.ProfileID)
	case config.SharingLenders:
		shared = steam.NewLenderSource(httpClient, cfg.SharedAPIURL, cfg.SharedAPIKey, cfg.ProfileID, cfg.LenderIDs, logger)
	}

	sink, err := output.Open(cfg.OutputFile, stdout)
	if err != nil {
		return err
	}
	// Close runs once after both sections finished; stdout is never closed
	defer sink.Close()
	if sink.IsFile() {
		logger.Info("writing script to file", "path", sink.Path())
	} else {
		logger.Debug("writing script to standard output")
	}

	gen := generator.NewGenerator(client, shared, sink, skip, script.Emitter{Validate: cfg.ForceValidation()}, cfg.ProfileID, logger)
	summary, err := gen.Run(ctx)
	if err != nil {
		if output.IsBrokenPipe(err) {
			logger.Debug("output closed by reader", "error", err)
			return nil
		}
		return err
	}

	if err := sink.Close(); err != nil {
		return err
	}

	logger.Info("script generated",
		"owned", summary.Owned,
		"shared", summary.Shared,
		"shared_skipped", summary.SharedSkipped,
		"shared_failed", summary.SharedFailed,
		"duration", summary.Duration)
	return nil
}
