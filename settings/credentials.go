// Package settings stores per-user credentials for translation services.
//
// Keys live in the XDG data directory:
//
//	$XDG_DATA_HOME/i18nsync/auth.json  (default: ~/.local/share/i18nsync/)
//
// The file is a JSON object keyed by service ID. File permissions are 0600
// (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. I18N_API_KEY environment variable or apiKey in the config file
//  3. This credential store
//
// A base URL stored with a key is used when the configuration sets none.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

const (
	dataDirName = "i18nsync"
	fileName    = "auth.json"
)

// Info is the entry stored per service.
type Info struct {
	Key string `json:"key"`
	// BaseURL optionally pins the endpoint the key belongs to.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all service credentials, keyed by service ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// DataDir returns the data directory. It respects $XDG_DATA_HOME and falls
// back to ~/.local/share.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk. It returns an empty store if
// the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// Services returns the IDs with stored credentials, sorted.
func (s Store) Services() []string {
	return slices.Sorted(maps.Keys(s))
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

// SetAPIKey stores key for service, replacing any previous entry.
func SetAPIKey(service, key, baseURL string) error {
	if key == "" {
		return errors.New("API key must not be empty")
	}
	store := Load()
	store[service] = &Info{Key: key, BaseURL: baseURL}
	return Save(store)
}

// GetAPIKey returns the stored key for service, or "".
func GetAPIKey(service string) string {
	if info := Load()[service]; info != nil {
		return info.Key
	}
	return ""
}

// ResolveAPIKey returns the first non-empty candidate, falling back to the
// stored key for service. Candidates are given in priority order.
func ResolveAPIKey(service string, candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return GetAPIKey(service)
}

// ResolveBaseURL returns the first non-empty candidate, falling back to the
// endpoint stored with the key of service.
func ResolveBaseURL(service string, candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	if info := Load()[service]; info != nil {
		return info.BaseURL
	}
	return ""
}

// Remove deletes the credentials of service. Removing an absent entry is
// not an error.
func Remove(service string) error {
	store := Load()
	if _, ok := store[service]; !ok {
		return nil
	}
	delete(store, service)
	return Save(store)
}

// RemoveAll deletes the credential file.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
