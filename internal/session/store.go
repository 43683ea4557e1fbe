package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// sessionState is the on-disk shape of the persisted session. The device
// identifier survives logout so guest sessions stay tied to one install.
type sessionState struct {
	DeviceID       string    `json:"device_id"`
	UserID         string    `json:"user_id,omitempty"`
	Email          string    `json:"email,omitempty"`
	Token          string    `json:"token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitzero"`
	Balance        int       `json:"balance,omitempty"`
	Guest          bool      `json:"guest,omitempty"`
	Authenticated  bool      `json:"authenticated,omitempty"`
}

// Store abstracts persistence for session state.
type Store interface {
	Load() (sessionState, error)
	Save(sessionState) error
}

// FileStore writes session state to a JSON file on disk.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore rooted at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads session state from disk. A missing file resolves to an empty state.
func (s *FileStore) Load() (sessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessionState{}, nil
		}
		return sessionState{}, fmt.Errorf("read session state: %w", err)
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return sessionState{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

// Save persists session state to disk with restricted permissions.
func (s *FileStore) Save(state sessionState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure session state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}
