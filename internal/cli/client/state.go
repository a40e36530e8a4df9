package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	envStateFile  = "GUATA_STATE_FILE"
	stateDirName  = "guata"
	stateFileName = "state.json"
)

// State is what the CLI remembers between runs: where the API lives, who is
// asking and which conversation the next ask continues.
type State struct {
	APIURL    string    `json:"api_url,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

var statePath = defaultStatePath

func defaultStatePath() (string, error) {
	if path := os.Getenv(envStateFile); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, stateDirName, stateFileName), nil
}

// StatePath returns the file the CLI state is kept in.
func StatePath() (string, error) {
	return statePath()
}

// LoadState reads the saved state. A missing file yields an empty state.
func LoadState() (*State, error) {
	path, err := statePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	return &state, nil
}

// Remember records the session the server answered in and, when given, the
// user asking.
func (s *State) Remember(sessionID, userID string) {
	if sessionID != "" {
		s.SessionID = sessionID
	}
	if userID != "" {
		s.UserID = userID
	}
	s.UpdatedAt = time.Now().UTC()
}

// Save writes the state readable by the owner only. The file is replaced
// through a rename so an interrupted save never leaves it truncated.
func (s *State) Save() error {
	path, err := statePath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+stateFileName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict state permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}
