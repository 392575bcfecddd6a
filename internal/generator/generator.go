package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kula-app/steam-library-script/internal/script"
	"github.com/kula-app/steam-library-script/internal/skiplist"
	"github.com/kula-app/steam-library-script/internal/steam"
)

// OwnedFetcher returns the games owned by a profile
type OwnedFetcher interface {
	OwnedGames(ctx context.Context, steamID string) ([]steam.Game, error)
}

// Summary reports how many entries each section wrote
type Summary struct {
	Owned         int
	Shared        int
	SharedSkipped bool
	SharedFailed  bool
	Duration      time.Duration
}

// Generator writes the owned and shared library sections into one sink
type Generator struct {
	owned     OwnedFetcher
	shared    steam.SharedSource
	sink      script.EntryWriter
	skip      skiplist.List
	emitter   script.Emitter
	profileID string
	logger    *slog.Logger
}

// NewGenerator creates a new generator. shared may be nil, in which case
// the shared library section is skipped.
func NewGenerator(owned OwnedFetcher, shared steam.SharedSource, sink script.EntryWriter, skip skiplist.List, emitter script.Emitter, profileID string, logger *slog.Logger) *Generator {
	return &Generator{
		owned:     owned,
		shared:    shared,
		sink:      sink,
		skip:      skip,
		emitter:   emitter,
		profileID: profileID,
		logger:    logger,
	}
}

// Run fetches both sections concurrently and returns once both finished.
//
// A failure of the owned section is returned and cancels the shared
// request. A failed shared lookup is logged and does not fail the run.
// Cancelling ctx fails the run even when both sections returned.
// Write errors fail the run regardless of the section.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	summary := &Summary{}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		n, err := g.runOwned(egCtx)
		if err != nil {
			return err
		}
		summary.Owned = n
		return nil
	})

	eg.Go(func() error {
		if g.shared == nil {
			g.logger.Info("shared library lookup skipped")
			summary.SharedSkipped = true
			return nil
		}
		return g.runShared(egCtx, summary)
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// An interrupt can end the shared lookup without failing the group
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("script generation interrupted: %w", err)
	}

	summary.Duration = time.Since(startTime)
	return summary, nil
}

func (g *Generator) runOwned(ctx context.Context) (int, error) {
	games, err := g.owned.OwnedGames(ctx, g.profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch owned games: %w", err)
	}

	kept := script.Prepare(games, g.skip)
	g.logger.Debug("owned games filtered",
		"fetched", len(games),
		"skipped", len(games)-len(kept))

	return g.emitter.Emit(g.sink, kept)
}

func (g *Generator) runShared(ctx context.Context, summary *Summary) error {
	games, err := g.shared.SharedGames(ctx)
	if err != nil {
		// Cancellation comes from a failed owned section; that error wins.
		if ctx.Err() == nil {
			g.logger.Error("failed to fetch shared games", "error", err)
		}
		summary.SharedFailed = true
		return nil
	}

	kept := script.Prepare(games, g.skip)
	g.logger.Debug("shared games filtered",
		"fetched", len(games),
		"skipped", len(games)-len(kept))

	n, err := g.emitter.Emit(g.sink, kept)
	summary.Shared = n
	return err
}
