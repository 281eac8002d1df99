// Package auth manages the Google OAuth credential used for the Sheets and
// Drive APIs. The token is cached in a JSON file next to the binary and
// refreshed silently; the interactive consent flow only runs on first use or
// when the refresh token has been revoked.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	sheets "google.golang.org/api/sheets/v4"
)

// Scopes cover spreadsheet read/write plus Drive access restricted to files
// this app created. Changing them invalidates any cached token file.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveFileScope,
}

// Manager handles the OAuth flow and token persistence.
type Manager struct {
	oauth     *oauth2.Config
	tokenFile string
	log       *zap.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewManager creates a manager from an installed-app client secret file.
func NewManager(credentialsFile, tokenFile string, log *zap.Logger) (*Manager, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	m := &Manager{
		oauth:     cfg,
		tokenFile: tokenFile,
		log:       log,
	}
	_ = m.loadToken()
	return m, nil
}

// Client returns an HTTP client carrying a valid bearer credential, running
// the interactive consent flow if no usable token is cached. Refreshed
// tokens are written back to the token file.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	m.mu.Lock()
	tok := m.token
	m.mu.Unlock()

	if tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		var err error
		tok, err = m.Authorize(ctx)
		if err != nil {
			return nil, err
		}
	}

	return oauth2.NewClient(ctx, &savingTokenSource{
		base: m.oauth.TokenSource(ctx, tok),
		mgr:  m,
	}), nil
}

// Authorize runs the interactive consent flow: a local callback server is
// started on an ephemeral port, the operator opens the printed URL, and the
// resulting code is exchanged and persisted.
func (m *Manager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	defer ln.Close()

	cfg := *m.oauth
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- fmt.Errorf("oauth state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- fmt.Errorf("oauth callback missing code")
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		codeCh <- code
	})}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL in your browser to authorize gradecard:\n\n  %s\n\n", url)
	m.log.Info("waiting for oauth consent", zap.String("redirect", cfg.RedirectURL))

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	m.setToken(tok)
	if err := m.saveToken(); err != nil {
		m.log.Warn("failed to persist token", zap.Error(err))
	}
	return tok, nil
}

func (m *Manager) loadToken() error {
	data, err := os.ReadFile(m.tokenFile)
	if err != nil {
		return err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return err
	}
	m.setToken(&tok)
	return nil
}

func (m *Manager) saveToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil
	}
	data, err := json.MarshalIndent(m.token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.tokenFile, data, 0600)
}

func (m *Manager) setToken(tok *oauth2.Token) {
	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
}

// savingTokenSource persists tokens back to disk whenever the underlying
// source refreshes them.
type savingTokenSource struct {
	base oauth2.TokenSource
	mgr  *Manager
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mgr.mu.Lock()
	changed := s.mgr.token == nil || s.mgr.token.AccessToken != tok.AccessToken
	s.mgr.mu.Unlock()
	if changed {
		s.mgr.setToken(tok)
		if err := s.mgr.saveToken(); err != nil {
			s.mgr.log.Warn("failed to persist refreshed token", zap.Error(err))
		}
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
