package auth

import (
	"testing"
	"time"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/models"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	users       map[string]*models.User
	activations map[int64]*models.Activation
}

func (f *fakeDirectory) GetUserByUsername(username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeDirectory) MostRecentActivation(userID int64) (*models.Activation, error) {
	activation, ok := f.activations[userID]
	if !ok {
		return nil, store.ErrActivationNotFound
	}
	return activation, nil
}

func newTestService(t *testing.T) (*Service, *fakeDirectory) {
	t.Helper()

	user := &models.User{ID: 7, Username: "alice", Email: "alice@example.org", Password: "secret"}
	require.NoError(t, user.HashPassword())

	dir := &fakeDirectory{
		users: map[string]*models.User{"alice": user},
		activations: map[int64]*models.Activation{
			7: {ID: "abc", UserID: 7, ExpireAt: time.Now().Add(time.Hour).Unix(), Activated: true},
		},
	}
	return NewService(dir, newTestManager()), dir
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	pair, err := svc.Login("alice", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login("bob", "secret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginNotActivated(t *testing.T) {
	svc, dir := newTestService(t)

	t.Run("no activation record", func(t *testing.T) {
		delete(dir.activations, 7)
		_, err := svc.Login("alice", "secret")

		var notActivated *NotActivatedError
		require.ErrorAs(t, err, &notActivated)
		assert.Equal(t, "alice@example.org", notActivated.Email)
	})

	t.Run("unconfirmed activation", func(t *testing.T) {
		dir.activations[7] = &models.Activation{ID: "abc", UserID: 7, Activated: false}
		_, err := svc.Login("alice", "secret")

		var notActivated *NotActivatedError
		assert.ErrorAs(t, err, &notActivated)
	})

	t.Run("confirmed but expired activation still logs in", func(t *testing.T) {
		dir.activations[7] = &models.Activation{
			ID:        "abc",
			UserID:    7,
			ExpireAt:  time.Now().Add(-time.Hour).Unix(),
			Activated: true,
		}
		pair, err := svc.Login("alice", "secret")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
	})
}

func TestServiceRefresh(t *testing.T) {
	svc, _ := newTestService(t)

	pair, err := svc.Login("alice", "secret")
	require.NoError(t, err)

	t.Run("with refresh token", func(t *testing.T) {
		access, err := svc.Refresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
	})

	t.Run("with access token", func(t *testing.T) {
		_, err := svc.Refresh(pair.AccessToken)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)

	pair, err := svc.Login("alice", "secret")
	require.NoError(t, err)

	claims, err := svc.tokens.Validate(pair.AccessToken, ValidateOptions{})
	require.NoError(t, err)

	userID := svc.Logout(claims)
	assert.Equal(t, int64(7), userID)

	_, err = svc.tokens.Validate(pair.AccessToken, ValidateOptions{})
	assert.ErrorIs(t, err, ErrRevokedToken)
}
