package steam

import (
	"errors"
	"fmt"
)

// Source records which library section a game came from
type Source string

const (
	SourceOwned  Source = "owned"
	SourceShared Source = "shared"
)

// Game is a single library entry. Identity is the app id; the title is
// only used for display and may be empty for shared apps.
type Game struct {
	ID     int
	Title  string
	Source Source
}

// ErrNoGames is returned when the owned games response has no game list,
// which Steam does for private profiles.
var ErrNoGames = errors.New("no games found for profile")

// StatusError is returned for non-success HTTP responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d from %s", e.StatusCode, e.URL)
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int          `json:"game_count"`
		Games     *[]ownedGame `json:"games"`
	} `json:"response"`
}

type ownedGame struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

type sharedAppsResponse struct {
	Response struct {
		Apps []sharedApp `json:"apps"`
	} `json:"response"`
}

type sharedApp struct {
	AppID int    `json:"appid"`
	Name  string `json:"name,omitempty"`
}
