package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNotLoggedIn is returned when no stored token exists.
var ErrNotLoggedIn = errors.New("not logged in; run: ponto remote login")

// Options locates the backend and the token file.
type Options struct {
	BaseURL  string
	APIKey   string
	ClientID string
	TokenURL string
	// TokenPath is where the OAuth2 token is persisted. Empty disables persistence.
	TokenPath string
}

// TokenFilePath returns the token location under the data directory.
func TokenFilePath(base string) string {
	return filepath.Join(base, "auth", "tokens.json")
}

// oauth2Config returns the password-grant configuration for the backend.
func oauth2Config(opts Options) *oauth2.Config {
	return &oauth2.Config{
		ClientID: opts.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token from disk. A missing file yields nil, nil.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken persists a token to disk.
func saveToken(path string, tok *oauth2.Token) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Login exchanges email and password for a token and stores it.
func Login(ctx context.Context, opts Options, email, password string) (*oauth2.Token, error) {
	tok, err := oauth2Config(opts).PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := saveToken(opts.TokenPath, tok); err != nil {
		return tok, err
	}
	return tok, nil
}

// StoredToken returns the saved token, or ErrNotLoggedIn. An expired token is
// returned as is; the client refreshes it on first use.
func StoredToken(opts Options) (*oauth2.Token, error) {
	tok, err := loadToken(opts.TokenPath)
	if err != nil {
		return nil, err
	}
	if tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return nil, ErrNotLoggedIn
	}
	return tok, nil
}
