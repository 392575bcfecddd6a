package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Default endpoints used when no override is configured
const (
	// DefaultSteamAPIURL is the public Steam Web API
	DefaultSteamAPIURL = "https://api.steampowered.com"

	// DefaultSharedAPIURL is the aggregation API queried per lender account
	DefaultSharedAPIURL = "https://steamapi.xpaw.me/IFamilyGroupsService"

	// APIKeyHelpURL is where users register a Steam Web API key
	APIKeyHelpURL = "https://steamcommunity.com/dev/apikey"
)

// ErrMissingRequired is returned by Load when a mandatory variable is unset
var ErrMissingRequired = errors.New("missing required environment variable")

// SharingStrategy selects how shared library apps are looked up
type SharingStrategy int

const (
	// SharingNone skips the shared library section
	SharingNone SharingStrategy = iota

	// SharingFamilyGroup queries the family group endpoint with a web access token
	SharingFamilyGroup

	// SharingLenders queries the aggregation API once per lender account
	SharingLenders
)

func (s SharingStrategy) String() string {
	switch s {
	case SharingFamilyGroup:
		return "family-group"
	case SharingLenders:
		return "lenders"
	default:
		return "none"
	}
}

// Config represents the script generator configuration
type Config struct {
	// APIKey is the Steam Web API key used for every Steam request
	APIKey string `env:"STEAM_API_KEY"`

	// ProfileID is the SteamID64 of the account the script is generated for
	ProfileID string `env:"STEAM_PROFILE_ID"`

	// AccessToken is the Steam web access token for the family group endpoint
	AccessToken string `env:"STEAM_API_TOKEN"`

	// FamilyGroupID identifies the Steam family group the profile belongs to
	FamilyGroupID string `env:"STEAM_FAMILY_ID"`

	// SharedAPIKey authorizes requests against the aggregation API
	SharedAPIKey string `env:"SHARED_API_KEY"`

	// LenderIDs are the SteamID64s of accounts lending their library
	LenderIDs []string `env:"STEAM_LENDER_IDS" envSeparator:","`

	// SkipGames is the raw comma separated list of ids or titles to leave out
	SkipGames string `env:"SKIP_GAMES"`

	// OutputFile is the script destination (empty means standard output)
	OutputFile string `env:"OUTPUT_FILE"`

	// ForceValidate appends -validate to every command when non-empty
	ForceValidate string `env:"FORCE_VALIDATE"`

	// LogLevel is one of debug, info, warn or error
	LogLevel string `env:"LOG_LEVEL"`

	// SteamAPIURL is the base URL of the Steam Web API
	SteamAPIURL string `env:"STEAM_API_URL"`

	// SharedAPIURL is the base URL of the aggregation API
	SharedAPIURL string `env:"SHARED_API_URL"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LenderIDs:    []string{},
		LogLevel:     "info",
		SteamAPIURL:  DefaultSteamAPIURL,
		SharedAPIURL: DefaultSharedAPIURL,
	}
}

// Load resolves the configuration from the given environment lookup.
// Only the variables declared on Config are consulted.
func Load(getenv func(key string) string) (*Config, error) {
	cfg := DefaultConfig()

	params, err := env.GetFieldParams(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect configuration fields: %w", err)
	}
	environment := make(map[string]string, len(params))
	for _, p := range params {
		if v := getenv(p.Key); v != "" {
			environment[p.Key] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every mandatory variable that is missing
func (c *Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "STEAM_API_KEY")
	}
	if c.ProfileID == "" {
		missing = append(missing, "STEAM_PROFILE_ID")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s (get a key at %s)", ErrMissingRequired, strings.Join(missing, ", "), APIKeyHelpURL)
}

// ForceValidation reports whether commands should carry the -validate suffix.
// Any non-empty value enables it, including "0" and "false".
func (c *Config) ForceValidation() bool { return c.ForceValidate != "" }

// SharedStrategy picks the shared library lookup. The family group wins
// when both variants are fully configured.
func (c *Config) SharedStrategy() SharingStrategy {
	switch {
	case c.AccessToken != "" && c.FamilyGroupID != "":
		return SharingFamilyGroup
	case c.SharedAPIKey != "" && len(c.LenderIDs) > 0:
		return SharingLenders
	default:
		return SharingNone
	}
}

// SharingWarnings describes the variables missing for the shared library
// section when no strategy could be selected.
func (c *Config) SharingWarnings() []string {
	if c.SharedStrategy() != SharingNone {
		return nil
	}

	var warnings []string
	lendersTouched := c.SharedAPIKey != "" || len(c.LenderIDs) > 0
	if lendersTouched {
		if c.SharedAPIKey == "" {
			warnings = append(warnings, "SHARED_API_KEY is required for querying lender libraries")
		}
		if len(c.LenderIDs) == 0 {
			warnings = append(warnings, "STEAM_LENDER_IDS is required for querying lender libraries")
		}
		return warnings
	}
	if c.AccessToken == "" {
		warnings = append(warnings, "STEAM_API_TOKEN is required for updating shared library apps")
	}
	if c.FamilyGroupID == "" {
		warnings = append(warnings, "STEAM_FAMILY_ID is required for updating shared library apps")
	}
	return warnings
}

func (c *Config) normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.ProfileID = strings.TrimSpace(c.ProfileID)

	lenders := make([]string, 0, len(c.LenderIDs))
	for _, id := range c.LenderIDs {
		if id = strings.TrimSpace(id); id != "" {
			lenders = append(lenders, id)
		}
	}
	c.LenderIDs = lenders
}
