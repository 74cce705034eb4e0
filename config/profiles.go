package config

import (
	"encoding/json"
	"fmt"
	"os"

	"backend_stm/models"
)

// ProfileCatalog is the set of verification profiles available to the test
// runner, loaded once at startup. It is immutable after construction and is
// passed by value to every component that needs it.
type ProfileCatalog struct {
	keys     []string
	profiles map[string]models.VerificationProfile
}

// profileFile mirrors one entry of profiles.json.
type profileFile struct {
	ProfileKey  string        `json:"profile_key"`
	ProfileName string        `json:"profile_name"`
	Tests       []models.Test `json:"tests"`
}

// LoadProfileCatalog reads the profile definitions from path. A missing or
// unreadable file, malformed JSON or an empty catalog are all fatal startup
// conditions and reported as errors to the caller.
func LoadProfileCatalog(path string) (ProfileCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ProfileCatalog{}, fmt.Errorf("profile catalog not found: %s: %w", path, err)
	}

	var entries []profileFile
	if err := json.Unmarshal(raw, &entries); err != nil {
		return ProfileCatalog{}, fmt.Errorf("malformed profile catalog %s: %w", path, err)
	}

	catalog := ProfileCatalog{profiles: make(map[string]models.VerificationProfile, len(entries))}
	for _, e := range entries {
		if e.ProfileKey == "" {
			return ProfileCatalog{}, fmt.Errorf("profile catalog %s: entry %q has no profile_key", path, e.ProfileName)
		}
		if _, dup := catalog.profiles[e.ProfileKey]; dup {
			return ProfileCatalog{}, fmt.Errorf("profile catalog %s: duplicate profile_key %q", path, e.ProfileKey)
		}
		catalog.keys = append(catalog.keys, e.ProfileKey)
		catalog.profiles[e.ProfileKey] = models.VerificationProfile{
			Name:  e.ProfileName,
			Tests: e.Tests,
		}
	}

	if len(catalog.profiles) == 0 {
		return ProfileCatalog{}, fmt.Errorf("profile catalog %s contains no profiles", path)
	}
	return catalog, nil
}

// Get returns the profile stored under key.
func (c ProfileCatalog) Get(key string) (models.VerificationProfile, bool) {
	p, ok := c.profiles[key]
	return p, ok
}

// GetByName returns the profile whose display name matches, preserving the
// lookup the session setup dialog performs.
func (c ProfileCatalog) GetByName(name string) (models.VerificationProfile, bool) {
	for _, key := range c.keys {
		if c.profiles[key].Name == name {
			return c.profiles[key], true
		}
	}
	return models.VerificationProfile{}, false
}

// Keys returns the profile keys in catalog order.
func (c ProfileCatalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len reports the number of profiles.
func (c ProfileCatalog) Len() int { return len(c.profiles) }
