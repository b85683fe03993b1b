package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = fmt.Errorf("invalid input: %w", usecase.ErrValidation)

	// emailが既に使用済み
	ErrEmailAlreadyUsed = fmt.Errorf("email already used: %w", usecase.ErrConflict)
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type userValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewUserValidator(users repository.UserRepository) usecase.UserValidator {
	return &userValidator{users: users}
}

// ユーザー登録の入力を検証
func (v *userValidator) ValidateCreate(ctx context.Context, in usecase.UserInput) error {
	email, err := validateFields(in)
	if err != nil {
		return err
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return nil
}

// ユーザー更新の入力を検証（自分自身のemailはそのまま使える）
func (v *userValidator) ValidateUpdate(ctx context.Context, userID int64, in usecase.UserInput) error {
	email, err := validateFields(in)
	if err != nil {
		return err
	}

	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil && u.ID != userID {
		return ErrEmailAlreadyUsed
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return nil
}

// 形式と長さのチェック。正規化したemailを返す
func validateFields(in usecase.UserInput) (string, error) {
	email := strings.TrimSpace(in.Email)

	// 必須チェック
	if email == "" {
		return "", fmt.Errorf("email required: %w", ErrInvalidInput)
	}

	// email形式
	if !IsEmailLike(email) || len(email) > 255 {
		return "", fmt.Errorf("invalid email: %w", ErrInvalidInput)
	}

	// 名は2〜50文字
	n := len([]rune(strings.TrimSpace(in.FirstName)))
	if n < 2 || n > 50 {
		return "", fmt.Errorf("first_name must be 2-50 characters: %w", ErrInvalidInput)
	}
	if len([]rune(in.LastName)) > 50 || len(in.Phone) > 20 || len(in.Address) > 200 {
		return "", ErrInvalidInput
	}
	if len(in.City) > 100 || len(in.PostalCode) > 20 || len(in.Country) > 50 {
		return "", ErrInvalidInput
	}
	return email, nil
}

// 簡易メール形式をチェック
func IsEmailLike(s string) bool {
	return emailPattern.MatchString(s)
}
