package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer はログイン成功時のアクセストークンを発行する。
type TokenIssuer interface {
	Issue(userID int64, role model.Role) (string, error)
}

type AuthUsecase struct {
	users  repo.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAuthUsecase(users repo.UserRepository, tokens TokenIssuer, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{users: users, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserOutput struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginOutput struct {
	Token string     `json:"token"`
	User  UserOutput `json:"user"`
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserOutput{}, apperr.InvalidInput("invalid email")
	}
	if len(in.Password) < 8 {
		return UserOutput{}, apperr.InvalidInput("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserOutput{}, err
	}

	created, err := u.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	})
	if errors.Is(err, repo.ErrConflict) {
		return UserOutput{}, apperr.InvalidInput("email already registered")
	}
	if err != nil {
		return UserOutput{}, err
	}

	u.logger.Info("user registered", zap.Int64("user_id", created.ID))
	return toUserOutput(created), nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	usr, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		// メールの存在を漏らさない
		return LoginOutput{}, apperr.PermissionDenied("invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, err
	}
	if !usr.IsActive {
		return LoginOutput{}, apperr.PermissionDenied("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.Password)); err != nil {
		return LoginOutput{}, apperr.PermissionDenied("invalid credentials")
	}

	token, err := u.tokens.Issue(usr.ID, usr.Role)
	if err != nil {
		return LoginOutput{}, err
	}

	if err := u.users.UpdateLastLogin(ctx, usr.ID, time.Now()); err != nil {
		u.logger.Warn("update last login", zap.Int64("user_id", usr.ID), zap.Error(err))
	}

	return LoginOutput{Token: token, User: toUserOutput(usr)}, nil
}

func toUserOutput(usr model.User) UserOutput {
	return UserOutput{ID: usr.ID, Email: usr.Email, Role: string(usr.Role)}
}
