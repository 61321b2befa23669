package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memeshare/internal/models"
)

type memoryStore struct {
	token string
	user  *models.User
	saves int
}

func (m *memoryStore) SaveSession(token string, user *models.User) error {
	m.token = token
	m.user = user
	m.saves++
	return nil
}

func TestSessionBeginAndClearPersist(t *testing.T) {
	store := &memoryStore{}
	s := New("", nil, store, nil)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Begin("tok", &models.User{ID: "u1", Username: "pepe"}))
	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok", store.token)
	assert.Equal(t, "pepe", s.User().Username)

	s.Invalidate()
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User())
	assert.Empty(t, store.token)
	assert.Nil(t, store.user)
	assert.Equal(t, 2, store.saves)
}

func TestSessionUserIsCopied(t *testing.T) {
	u := &models.User{ID: "u1", Username: "doge"}
	s := New("tok", u, nil, nil)
	u.Username = "changed"
	got := s.User()
	got.Username = "also-changed"
	assert.Equal(t, "doge", s.User().Username)
}
