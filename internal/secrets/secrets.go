// Package secrets stores API tokens in the OS keychain so cloud
// credentials never appear in the servers file.
package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/billdonner/server-monitor/internal/domain"
)

const ServiceName = "server-monitor"

// Store persists named tokens, keyed by the collector kind that needs
// them (e.g. "hetzner").
type Store interface {
	SetToken(name string, token string) error
	GetToken(name string) (string, error)
	DeleteToken(name string) error
}

// DefaultStore returns the standard token store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(name string, token string) error {
	return keyring.Set(k.serviceName, normalize(name), token)
}

func (k *KeyringStore) GetToken(name string) (string, error) {
	token, err := keyring.Get(k.serviceName, normalize(name))
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", domain.ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteToken(name string) error {
	err := keyring.Delete(k.serviceName, normalize(name))
	if errors.Is(err, keyring.ErrNotFound) {
		return domain.ErrTokenNotFound
	}
	return err
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
