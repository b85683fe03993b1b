package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

// emailの重複
var ErrEmailAlreadyUsed = errors.New("email already used")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	//全項目を保存（emailが他ユーザーと重複したら ErrEmailAlreadyUsed）
	Update(ctx context.Context, user *model.User) error
	//無ければ ErrNotFound
	Delete(ctx context.Context, userID int64) error
}
