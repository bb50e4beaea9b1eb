package repo

import (
	"context"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/insighthub/internal/model"
	"github.com/xxxsen/insighthub/internal/pkg/dbutil"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

var userFields = []string{"id", "email", "password_hash", "ctime", "mtime"}

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"ctime":         user.Ctime,
		"mtime":         user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, dbutil.Rebind(r.db, sqlStr), args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userFields)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, dbutil.Rebind(r.db, sqlStr), args...); err != nil {
		if dbutil.IsNoRows(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
