package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to the Steam Web API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a new Steam Web API client
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// OwnedGames returns every game owned by the given SteamID64, including
// played free games.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]Game, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("steamid", steamID)
	query.Set("include_appinfo", "1")
	query.Set("include_played_free_games", "1")

	var resp ownedGamesResponse
	endpoint := c.baseURL + "/IPlayerService/GetOwnedGames/v1/"
	if err := getJSON(ctx, c.httpClient, endpoint, query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get owned games: %w", err)
	}
	if resp.Response.Games == nil {
		return nil, ErrNoGames
	}

	games := make([]Game, 0, len(*resp.Response.Games))
	for _, g := range *resp.Response.Games {
		games = append(games, Game{ID: g.AppID, Title: g.Name, Source: SourceOwned})
	}

	c.logger.Debug("owned games fetched",
		"steam_id", steamID,
		"game_count", resp.Response.GameCount,
		"games", len(games))

	return games, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
// Transport failures, non-2xx statuses and malformed bodies are all errors.
func getJSON(ctx context.Context, httpClient *http.Client, endpoint string, query url.Values, header http.Header, out any) error {
	reqURL := endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
