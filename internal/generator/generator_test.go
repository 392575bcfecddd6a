package generator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kula-app/steam-library-script/internal/output"
	"github.com/kula-app/steam-library-script/internal/script"
	"github.com/kula-app/steam-library-script/internal/skiplist"
	"github.com/kula-app/steam-library-script/internal/steam"
)

type fakeOwned struct {
	games []steam.Game
	err   error
}

func (f *fakeOwned) OwnedGames(_ context.Context, _ string) ([]steam.Game, error) {
	return f.games, f.err
}

type fakeShared struct {
	games []steam.Game
	err   error
	block bool
}

func (f *fakeShared) SharedGames(ctx context.Context) ([]steam.Game, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.games, f.err
}

type failingWriter struct{}

func (failingWriter) WriteEntry(...string) error { return errors.New("disk full") }

func newTestGenerator(owned OwnedFetcher, shared steam.SharedSource, w script.EntryWriter, skip string) *Generator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerator(owned, shared, w, skiplist.Parse(skip), script.Emitter{}, "765", logger)
}

// commands returns the app_update lines of the output
func commands(out string) []string {
	var cmds []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "app_update ") {
			cmds = append(cmds, line)
		}
	}
	return cmds
}

func onlyIDs(lines []string, ids map[string]bool) []string {
	var kept []string
	for _, line := range lines {
		if ids[strings.TrimPrefix(line, "app_update ")] {
			kept = append(kept, line)
		}
	}
	return kept
}

func TestGenerator_Run(t *testing.T) {
	var buf bytes.Buffer
	sink, _ := output.Open("", &buf)

	owned := &fakeOwned{games: []steam.Game{
		{ID: 20, Title: "B", Source: steam.SourceOwned},
		{ID: 10, Title: "A", Source: steam.SourceOwned},
		{ID: 30, Title: "Skipped", Source: steam.SourceOwned},
	}}
	shared := &fakeShared{games: []steam.Game{
		{ID: 300, Title: "Shared", Source: steam.SourceShared},
		{ID: 200, Source: steam.SourceShared},
		{ID: 400, Title: "Skipped", Source: steam.SourceShared},
	}}

	summary, err := newTestGenerator(owned, shared, sink, "Skipped").Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Owned != 2 || summary.Shared != 2 || summary.SharedSkipped || summary.SharedFailed {
		t.Errorf("Run() summary = %+v", summary)
	}

	cmds := commands(buf.String())
	ownedCmds := onlyIDs(cmds, map[string]bool{"10": true, "20": true, "30": true})
	sharedCmds := onlyIDs(cmds, map[string]bool{"200": true, "300": true, "400": true})

	if diff := cmp.Diff([]string{"app_update 10", "app_update 20"}, ownedCmds); diff != "" {
		t.Errorf("owned section mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"app_update 200", "app_update 300"}, sharedCmds); diff != "" {
		t.Errorf("shared section mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "// (shared library) - https://store.steampowered.com/app/200\napp_update 200\n") {
		t.Errorf("untitled shared entry missing:\n%s", buf.String())
	}
}

func TestGenerator_Run_SharedSkipped(t *testing.T) {
	var buf bytes.Buffer
	sink, _ := output.Open("", &buf)

	owned := &fakeOwned{games: []steam.Game{{ID: 10, Title: "A"}}}
	summary, err := newTestGenerator(owned, nil, sink, "").Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.SharedSkipped || summary.Owned != 1 {
		t.Errorf("Run() summary = %+v", summary)
	}

	want := "// A - https://store.steampowered.com/app/10\napp_update 10\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestGenerator_Run_SharedFailureIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	sink, _ := output.Open("", &buf)

	owned := &fakeOwned{games: []steam.Game{{ID: 20, Title: "B"}, {ID: 10, Title: "A"}}}
	shared := &fakeShared{err: &steam.StatusError{URL: "http://example", StatusCode: 500}}

	summary, err := newTestGenerator(owned, shared, sink, "20").Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.SharedFailed || summary.Shared != 0 || summary.Owned != 1 {
		t.Errorf("Run() summary = %+v", summary)
	}

	want := "// A - https://store.steampowered.com/app/10\napp_update 10\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestGenerator_Run_OwnedFailureCancelsShared(t *testing.T) {
	var buf bytes.Buffer
	sink, _ := output.Open("", &buf)

	ownedErr := errors.New("connection refused")
	owned := &fakeOwned{err: ownedErr}
	shared := &fakeShared{block: true}

	done := make(chan error, 1)
	go func() {
		_, err := newTestGenerator(owned, shared, sink, "").Run(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ownedErr) {
			t.Errorf("Run() error = %v, want %v", err, ownedErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after the owned section failed")
	}

	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestGenerator_Run_WriteErrorFails(t *testing.T) {
	owned := &fakeOwned{games: []steam.Game{{ID: 10, Title: "A"}}}
	if _, err := newTestGenerator(owned, nil, failingWriter{}, "").Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want write failure")
	}
}

func TestGenerator_Run_InterruptDuringSharedFails(t *testing.T) {
	var buf bytes.Buffer
	sink, _ := output.Open("", &buf)

	owned := &fakeOwned{games: []steam.Game{{ID: 10, Title: "A"}}}
	shared := &fakeShared{block: true}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := newTestGenerator(owned, shared, sink, "").Run(ctx)
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after the context was cancelled")
	}
}
