package script

import (
	"fmt"
	"sort"

	"github.com/kula-app/steam-library-script/internal/skiplist"
	"github.com/kula-app/steam-library-script/internal/steam"
)

// StoreURL is the store page prefix used in entry comments
const StoreURL = "https://store.steampowered.com/app/"

// sharedLabel replaces the title of shared apps the API did not name
const sharedLabel = "(shared library)"

// EntryWriter receives the lines of one entry as a contiguous block
type EntryWriter interface {
	WriteEntry(lines ...string) error
}

// Emitter renders games as SteamCMD app_update commands
type Emitter struct {
	// Validate appends -validate to every command
	Validate bool
}

// Prepare drops skip-listed games and sorts the rest by ascending app id
func Prepare(games []steam.Game, skip skiplist.List) []steam.Game {
	kept := make([]steam.Game, 0, len(games))
	for _, g := range games {
		if skip.ShouldSkip(g.ID, g.Title) {
			continue
		}
		kept = append(kept, g)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ID < kept[j].ID
	})
	return kept
}

// Lines returns the comment and command lines for a game
func (e Emitter) Lines(g steam.Game) []string {
	title := g.Title
	if title == "" {
		title = sharedLabel
	}

	command := fmt.Sprintf("app_update %d", g.ID)
	if e.Validate {
		command += " -validate"
	}

	return []string{
		fmt.Sprintf("// %s - %s%d", title, StoreURL, g.ID),
		command,
	}
}

// Emit writes every game in order and returns how many were written
func (e Emitter) Emit(w EntryWriter, games []steam.Game) (int, error) {
	for i, g := range games {
		if err := w.WriteEntry(e.Lines(g)...); err != nil {
			return i, fmt.Errorf("failed to write app %d: %w", g.ID, err)
		}
	}
	return len(games), nil
}
