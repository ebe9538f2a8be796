package secrets

import "github.com/billdonner/server-monitor/internal/domain"

// MockStore is an in-memory token store for testing.
type MockStore struct {
	tokens map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(name string, token string) error {
	m.tokens[normalize(name)] = token
	return nil
}

func (m *MockStore) GetToken(name string) (string, error) {
	token, ok := m.tokens[normalize(name)]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	return token, nil
}

func (m *MockStore) DeleteToken(name string) error {
	key := normalize(name)
	if _, ok := m.tokens[key]; !ok {
		return domain.ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
