package usecase

import (
	"context"
	"testing"

	"shop/internal/domain/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.auth.Register(ctx, RegisterInput{
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	//メールは小文字に正規化される
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "USER", created.Role)

	out, err := env.auth.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, created.ID, out.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "another-pass"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Email: "not-an-email", Password: "s3cret-pass"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = env.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "short"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-pass"})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	//存在しないメールも同じエラー（存在を漏らさない）
	_, err = env.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}
