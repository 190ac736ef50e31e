// Package session keeps the local state of a signed-in user: the bearer
// token (OS keyring with environment fallback), the display name and the
// theme preference. The three are always cleared together.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"taskboard/backend"
	"taskboard/internal/utils"
)

const (
	// ServiceName is the keyring service the token is stored under
	ServiceName = "taskboard"
	// tokenAccount is the keyring account holding the bearer token
	tokenAccount = "session"
	// EnvToken supplies a token when nothing is stored
	EnvToken = "TASKBOARD_TOKEN"
)

// Themes
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ErrNoToken is returned by Token when there is no session.
// It wraps backend.ErrUnauthorized so a request without a session is
// handled exactly like one the server rejected.
var ErrNoToken = fmt.Errorf("%w: not logged in", backend.ErrUnauthorized)

// Source indicates where the token was retrieved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceFile        Source = "file"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// Info describes the current session without exposing the token
type Info struct {
	Username string `json:"username"`
	Theme    string `json:"theme"`
	Source   Source `json:"source"`
	LoggedIn bool   `json:"logged_in"`
}

// fileState is the on-disk session.yaml
type fileState struct {
	Username string `yaml:"username,omitempty"`
	Theme    string `yaml:"theme,omitempty"`
	// Token is only written when the keyring is unavailable
	Token string `yaml:"token,omitempty"`
}

// Manager handles session operations
type Manager struct {
	mu           sync.RWMutex
	path         string
	keyring      Keyring
	getenv       func(string) string
	defaultTheme string

	state       fileState
	token       string
	source      Source
	envDisabled bool
}

// Option is a functional option for Manager
type Option func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) Option {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithEnv replaces os.Getenv for the token fallback
func WithEnv(getenv func(string) string) Option {
	return func(m *Manager) {
		m.getenv = getenv
	}
}

// WithDefaultTheme sets the theme used when none has been saved
func WithDefaultTheme(theme string) Option {
	return func(m *Manager) {
		if theme == ThemeLight || theme == ThemeDark {
			m.defaultTheme = theme
		}
	}
}

// NewManager creates a session manager persisting to path (session.yaml).
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{
		path:         path,
		keyring:      &systemKeyring{},
		getenv:       os.Getenv,
		defaultTheme: ThemeDark,
		source:       SourceNone,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the session file and the keyring. A missing file is not an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.state = fileState{}
	case err != nil:
		return fmt.Errorf("failed to read session file: %w", err)
	default:
		var st fileState
		if err := yaml.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("failed to parse session file %s: %w", m.path, err)
		}
		m.state = st
	}

	m.token, m.source = m.lookupTokenLocked()
	return nil
}

// lookupTokenLocked resolves the token: keyring first, then the session
// file, then the environment.
func (m *Manager) lookupTokenLocked() (string, Source) {
	token, err := m.keyring.Get(ServiceName, tokenAccount)
	if err == nil && token != "" {
		return token, SourceKeyring
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		utils.GetLogger().Debug("keyring lookup failed", zap.Error(err))
	}

	if m.state.Token != "" {
		return m.state.Token, SourceFile
	}

	if !m.envDisabled {
		if token := strings.TrimSpace(m.getenv(EnvToken)); token != "" {
			return token, SourceEnvironment
		}
	}

	return "", SourceNone
}

// Token implements oauth2.TokenSource. It returns ErrNoToken when there is no session.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// HasToken reports whether a session token is present
func (m *Manager) HasToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// Username returns the display name, or "" if unknown
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Username
}

// Theme returns the saved theme or the default
func (m *Manager) Theme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Theme == "" {
		return m.defaultTheme
	}
	return m.state.Theme
}

// Info returns a summary of the session
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	theme := m.state.Theme
	if theme == "" {
		theme = m.defaultTheme
	}
	return Info{
		Username: m.state.Username,
		Theme:    theme,
		Source:   m.source,
		LoggedIn: m.token != "",
	}
}

// SaveLogin stores the token and display name after a successful login.
// When the keyring cannot be used the token is kept in the session file,
// which is only readable by the owner.
func (m *Manager) SaveLogin(username, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Username = username
	m.state.Token = ""
	m.source = SourceKeyring

	if err := m.keyring.Set(ServiceName, tokenAccount, token); err != nil {
		utils.GetLogger().Warn("keyring unavailable, storing token in session file",
			zap.String("path", m.path), zap.Error(err))
		m.state.Token = token
		m.source = SourceFile
	}

	m.token = token
	m.envDisabled = false
	return m.writeLocked()
}

// SaveTheme persists the theme preference
func (m *Manager) SaveTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", backend.ErrValidation, theme)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Theme = theme
	return m.writeLocked()
}

// Clear removes the token, display name and theme. The environment token is
// ignored for the rest of the process so a rejected token is not reused.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inKeyring := m.source == SourceKeyring
	m.state = fileState{}
	m.token = ""
	m.source = SourceNone
	m.envDisabled = true

	var errs []error
	err := m.keyring.Delete(ServiceName, tokenAccount)
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
	case errors.Is(err, ErrKeyringNotAvailable) && !inKeyring:
		// nothing can be stored where there is no keyring
		utils.GetLogger().Debug("keyring unavailable, nothing to delete", zap.Error(err))
	default:
		errs = append(errs, fmt.Errorf("failed to delete keyring entry: %w", err))
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove session file: %w", err))
	}
	return errors.Join(errs...)
}

func (m *Manager) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Verify interface compliance at compile time
var _ oauth2.TokenSource = (*Manager)(nil)
