package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// usecaseがValidatorInterfaceに依存する約束
type UserValidator interface {
	ValidateCreate(ctx context.Context, in UserInput) error
	ValidateUpdate(ctx context.Context, userID int64, in UserInput) error
}

type UserInput struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// identity サービス側のユーザー操作
type UserUsecase struct {
	users     repo.UserRepository
	validator UserValidator
	log       *zap.Logger
}

func NewUserUsecase(users repo.UserRepository, validator UserValidator, log *zap.Logger) *UserUsecase {
	return &UserUsecase{users: users, validator: validator, log: log}
}

func (u *UserUsecase) CreateUser(ctx context.Context, in UserInput) (model.User, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateCreate(ctx, in); err != nil {
		return model.User{}, mapUserValidationError(err)
	}

	user := &model.User{}
	applyUserInput(user, in)
	if err := u.users.Create(ctx, user); err != nil {
		//検証とINSERTの間に同じemailが入った場合
		if errors.Is(err, repo.ErrEmailAlreadyUsed) {
			return model.User{}, emailConflictError()
		}
		return model.User{}, dbError(err)
	}
	u.log.Info("user created", zap.Int64("user_id", user.ID))
	return *user, nil
}

func (u *UserUsecase) GetUser(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, validationError("invalid user id")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, notFoundError(fmt.Sprintf("user not found: %d", userID))
	}
	if err != nil {
		return model.User{}, dbError(err)
	}
	return *user, nil
}

// GetUserByEmail は email 完全一致で1件
func (u *UserUsecase) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, validationError("email required")
	}
	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, notFoundError("user not found with email: " + email)
	}
	if err != nil {
		return model.User{}, dbError(err)
	}
	return *user, nil
}

// UpdateUser は全項目を置き換える（住所は注文の既定配送先になる）
func (u *UserUsecase) UpdateUser(ctx context.Context, userID int64, in UserInput) (model.User, error) {
	if userID <= 0 {
		return model.User{}, validationError("invalid user id")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, notFoundError(fmt.Sprintf("user not found: %d", userID))
	}
	if err != nil {
		return model.User{}, dbError(err)
	}

	if err := u.validator.ValidateUpdate(ctx, userID, in); err != nil {
		return model.User{}, mapUserValidationError(err)
	}

	applyUserInput(user, in)
	if err := u.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrEmailAlreadyUsed):
			return model.User{}, emailConflictError()
		case errors.Is(err, repo.ErrNotFound):
			//検証後に削除された
			return model.User{}, notFoundError(fmt.Sprintf("user not found: %d", userID))
		}
		return model.User{}, dbError(err)
	}
	u.log.Info("user updated", zap.Int64("user_id", userID))
	return *user, nil
}

func (u *UserUsecase) DeleteUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return validationError("invalid user id")
	}
	err := u.users.Delete(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFoundError(fmt.Sprintf("user not found: %d", userID))
	}
	if err != nil {
		return dbError(err)
	}
	u.log.Info("user deleted", zap.Int64("user_id", userID))
	return nil
}

func (u *UserUsecase) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return []model.User{}, dbError(err)
	}
	return users, nil
}

func applyUserInput(user *model.User, in UserInput) {
	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Phone = strings.TrimSpace(in.Phone)
	user.Address = strings.TrimSpace(in.Address)
	user.City = strings.TrimSpace(in.City)
	user.PostalCode = strings.TrimSpace(in.PostalCode)
	user.Country = strings.TrimSpace(in.Country)
}

func emailConflictError() error {
	return &HTTPError{Status: http.StatusConflict, Message: "email already used", Err: ErrConflict}
}

// validatorのエラーをHTTPErrorへ
func mapUserValidationError(err error) error {
	switch {
	case errors.Is(err, ErrConflict):
		return &HTTPError{Status: http.StatusConflict, Message: "email already used", Err: err}
	case errors.Is(err, ErrValidation):
		return &HTTPError{Status: http.StatusBadRequest, Message: validationMessage(err), Err: err}
	}
	return dbError(err)
}

// "first_name must be ...: invalid input: validation error" → 先頭だけ
func validationMessage(err error) string {
	msg, _, _ := strings.Cut(err.Error(), ":")
	return msg
}
