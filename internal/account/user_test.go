package account_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/hyperlocaleyes/backend/integration/database/mongo"
	"github.com/hyperlocaleyes/backend/internal/account"
)

func TestMemoryUserStore(t *testing.T) {
	t.Parallel()
	testUserStore(t, account.NewMemoryUserStore())
}

func TestMongoUserStore(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx := context.Background()
	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
	}, "users_test_"+bson.NewObjectID().Hex())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})

	s := account.NewMongoUserStore(db)
	require.NoError(t, s.EnsureIndexes(ctx))
	testUserStore(t, s)
}

func testUserStore(t *testing.T, s account.UserStore) {
	t.Helper()
	ctx := context.Background()

	hash, err := account.HashPassword("secret1")
	require.NoError(t, err)

	u := &account.User{Username: "carol", Email: "Carol@Example.com", PasswordHash: hash}
	require.NoError(t, s.Create(ctx, u))
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.Equal(t, account.RoleUser, u.Role)

	byEmail, err := s.FindByEmail(ctx, "CAROL@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	require.NoError(t, byEmail.CheckPassword("secret1"))

	byID, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Username)

	err = s.Create(ctx, &account.User{Username: "other", Email: "carol@EXAMPLE.com", PasswordHash: hash})
	assert.ErrorIs(t, err, account.ErrEmailTaken)
	err = s.Create(ctx, &account.User{Username: "carol", Email: "carol2@example.com", PasswordHash: hash})
	assert.ErrorIs(t, err, account.ErrUsernameTaken)

	next, err := account.HashPassword("secret2")
	require.NoError(t, err)
	require.NoError(t, s.SetPassword(ctx, u.ID, next))
	updated, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, updated.CheckPassword("secret1"), account.ErrInvalidPassword)
	assert.NoError(t, updated.CheckPassword("secret2"))

	_, err = s.FindByID(ctx, "000000000000000000000000")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	_, err = s.FindByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	_, err = s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	assert.ErrorIs(t, s.SetPassword(ctx, "000000000000000000000000", next), account.ErrUserNotFound)
}
