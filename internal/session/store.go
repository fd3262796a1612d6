package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tillpos-backend/internal/domain"
)

// ErrNoToken is returned by a TokenStore that holds nothing.
var ErrNoToken = errors.New("no persisted session")

// Token is the identity kept across till restarts.
type Token struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Expired reports whether the token is past its expiry at now. A zero expiry
// never expires.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type TokenStore interface {
	Load() (Token, error)
	Save(Token) error
	Clear() error
}

// FileStore persists the token as JSON readable only by the owner.
type FileStore struct {
	Path string
}

func (s FileStore) Load() (Token, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Token{}, ErrNoToken
	}
	if err != nil {
		return Token{}, fmt.Errorf("read session file: %w", err)
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return Token{}, fmt.Errorf("decode session file: %w", err)
	}
	if t.Token == "" || t.User.ID == "" {
		return Token{}, fmt.Errorf("decode session file: incomplete token")
	}
	return t, nil
}

func (s FileStore) Save(t Token) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
