package steam

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxLenderRequests bounds the lender queries in flight at once
const maxLenderRequests = 4

// SharedSource looks up the apps made available to a profile through
// library sharing.
type SharedSource interface {
	SharedGames(ctx context.Context) ([]Game, error)
}

// FamilyGroupSource reads the shared library of a Steam family group
type FamilyGroupSource struct {
	client        *Client
	accessToken   string
	familyGroupID string
	steamID       string
}

// NewFamilyGroupSource creates a source backed by
// IFamilyGroupsService/GetSharedLibraryApps.
func NewFamilyGroupSource(client *Client, accessToken, familyGroupID, steamID string) *FamilyGroupSource {
	return &FamilyGroupSource{
		client:        client,
		accessToken:   accessToken,
		familyGroupID: familyGroupID,
		steamID:       steamID,
	}
}

// SharedGames fetches the family group's shared apps in a single request
func (s *FamilyGroupSource) SharedGames(ctx context.Context) ([]Game, error) {
	query := url.Values{}
	query.Set("access_token", s.accessToken)
	query.Set("family_groupid", s.familyGroupID)
	query.Set("steamid", s.steamID)

	header := http.Header{}
	header.Set("Authorization", "Key "+s.client.apiKey)

	var resp sharedAppsResponse
	endpoint := s.client.baseURL + "/IFamilyGroupsService/GetSharedLibraryApps/v1/"
	if err := getJSON(ctx, s.client.httpClient, endpoint, query, header, &resp); err != nil {
		return nil, fmt.Errorf("failed to get family group apps: %w", err)
	}

	games := make([]Game, 0, len(resp.Response.Apps))
	for _, app := range resp.Response.Apps {
		games = append(games, Game{ID: app.AppID, Title: app.Name, Source: SourceShared})
	}

	s.client.logger.Debug("family group apps fetched",
		"family_group_id", s.familyGroupID,
		"apps", len(games))

	return games, nil
}

// LenderSource aggregates the apps lent to a profile by individual accounts
// through a third-party API.
type LenderSource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	steamID    string
	lenderIDs  []string
	logger     *slog.Logger
}

// NewLenderSource creates a source issuing one request per lender
func NewLenderSource(httpClient *http.Client, baseURL, apiKey, steamID string, lenderIDs []string, logger *slog.Logger) *LenderSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LenderSource{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		steamID:    steamID,
		lenderIDs:  lenderIDs,
		logger:     logger,
	}
}

// SharedGames queries every lender and merges the results by app id.
// When two lenders share the same app, the lender listed later wins.
// A failure for any lender fails the whole lookup.
func (s *LenderSource) SharedGames(ctx context.Context) ([]Game, error) {
	results := make([][]sharedApp, len(s.lenderIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLenderRequests)
	for i, lenderID := range s.lenderIDs {
		i, lenderID := i, lenderID
		g.Go(func() error {
			apps, err := s.lenderApps(gctx, lenderID)
			if err != nil {
				return fmt.Errorf("lender %s: %w", lenderID, err)
			}
			results[i] = apps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get lender apps: %w", err)
	}

	merged := make(map[int]Game)
	for i, apps := range results {
		for _, app := range apps {
			if prev, ok := merged[app.AppID]; ok {
				s.logger.Debug("app shared by several lenders",
					"app_id", app.AppID,
					"previous_title", prev.Title,
					"lender_id", s.lenderIDs[i])
			}
			merged[app.AppID] = Game{ID: app.AppID, Title: app.Name, Source: SourceShared}
		}
	}

	games := make([]Game, 0, len(merged))
	for _, game := range merged {
		games = append(games, game)
	}

	s.logger.Debug("lender apps fetched",
		"lenders", len(s.lenderIDs),
		"apps", len(games))

	return games, nil
}

func (s *LenderSource) lenderApps(ctx context.Context, lenderID string) ([]sharedApp, error) {
	query := url.Values{}
	query.Set("key", s.apiKey)
	query.Set("lender_steamid", lenderID)
	query.Set("steamid", s.steamID)

	header := http.Header{}
	header.Set("Authorization", "Key "+s.apiKey)

	var resp sharedAppsResponse
	if err := getJSON(ctx, s.httpClient, s.baseURL+"/GetSharedLibraryApps/v1/", query, header, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Apps, nil
}
