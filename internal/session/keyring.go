package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when the keyring has no entry
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringNotAvailable is returned when the OS keyring cannot be used
	ErrKeyringNotAvailable = errors.New("system keyring not available")
)

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// MockKeyring is a test implementation of the Keyring interface
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> secret
	// Unavailable makes every call fail with ErrKeyringNotAvailable
	Unavailable bool
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a secret in the mock keyring
func (m *MockKeyring) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Unavailable {
		return ErrKeyringNotAvailable
	}
	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = secret
	return nil
}

// Get retrieves a secret from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Unavailable {
		return "", ErrKeyringNotAvailable
	}
	if secret, ok := m.store[service][account]; ok {
		return secret, nil
	}
	return "", fmt.Errorf("%s/%s: %w", service, account, ErrNotFound)
}

// Delete removes a secret from the mock keyring
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Unavailable {
		return ErrKeyringNotAvailable
	}
	if _, ok := m.store[service][account]; ok {
		delete(m.store[service], account)
		return nil
	}
	return fmt.Errorf("%s/%s: %w", service, account, ErrNotFound)
}

// systemKeyring is the real keyring implementation using the OS keyring
type systemKeyring struct{}

// Set stores a secret in the system keyring
func (s *systemKeyring) Set(service, account, secret string) error {
	if err := keyring.Set(service, account, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	}
	return nil
}

// Get retrieves a secret from the system keyring
func (s *systemKeyring) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	}
	return secret, nil
}

// Delete removes a secret from the system keyring
func (s *systemKeyring) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	}
	return nil
}
