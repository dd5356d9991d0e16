// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/carelinkhq/carelink-tui/internal/config"
	"github.com/carelinkhq/carelink-tui/internal/util"
)

// Store persists the credential under ~/.carelink so a restart does
// not force a fresh login.
type Store struct {
	path string
}

// NewStore returns a store rooted in the config directory.
func NewStore() (*Store, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session path: %w", err)
	}
	return &Store{path: filepath.Join(dir, "session.json")}, nil
}

// NewStoreAt returns a store at an explicit path, used by tests.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Save writes the credential atomically with owner-only permissions.
func (s *Store) Save(cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	// SECURITY: token on disk, keep it owner-only.
	if err := util.AtomicWriteFileWithDir(s.path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads the stored credential. A missing file, undecodable
// content or an expired token all come back as ErrNoCredential; the
// caller lands on the login view either way.
func (s *Store) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file", ErrNoCredential)
	}
	if !cred.Valid(time.Now()) {
		return nil, fmt.Errorf("%w: stored token expired", ErrNoCredential)
	}
	return &cred, nil
}

// Clear removes the stored credential. Missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
