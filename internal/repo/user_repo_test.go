package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insighthub/internal/model"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
	"github.com/xxxsen/insighthub/internal/repo"
	"github.com/xxxsen/insighthub/internal/testutil"
)

func TestUserRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepo(testutil.OpenTestDB(t))

	user := &model.User{ID: "u1", Email: "a@x.com", PasswordHash: "h", Ctime: 1, Mtime: 1}
	require.NoError(t, users.Create(ctx, user))

	got, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, user, got)
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepo(testutil.OpenTestDB(t))

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "a@x.com", PasswordHash: "h"}))
	err := users.Create(ctx, &model.User{ID: "u2", Email: "a@x.com", PasswordHash: "h"})
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestUserRepoEmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepo(testutil.OpenTestDB(t))

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "a@x.com", PasswordHash: "h"}))
	require.NoError(t, users.Create(ctx, &model.User{ID: "u2", Email: "A@x.com", PasswordHash: "h"}))

	_, err := users.GetByEmail(ctx, "b@x.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
