package service

import (
	"context"
	"testing"

	"investpro/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndSignin(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	ctx := context.Background()

	authService := NewAuthService(db, cfg)

	result, err := authService.Signup(ctx, &SignupRequest{
		Email:    "Alice@Test.Local",
		Password: "secret123",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	// 邮箱统一小写存储
	assert.Equal(t, "alice@test.local", result.User.Email)
	assert.True(t, result.User.Balance.IsZero())

	// 重复注册（大小写不同也算重复）
	_, err = authService.Signup(ctx, &SignupRequest{
		Email:    "ALICE@test.local",
		Password: "secret123",
		Name:     "Alice2",
	})
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	// 正确密码登录
	signin, err := authService.Signin(ctx, &SigninRequest{
		Email:    "alice@test.local",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, signin.User.ID)

	// 错误密码和不存在的账号返回同一个错误
	_, err = authService.Signin(ctx, &SigninRequest{
		Email:    "alice@test.local",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authService.Signin(ctx, &SigninRequest{
		Email:    "nobody@test.local",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveToken(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	ctx := context.Background()

	authService := NewAuthService(db, cfg)

	result, err := authService.Signup(ctx, &SignupRequest{
		Email:    "bob@test.local",
		Password: "secret123",
		Name:     "Bob",
	})
	require.NoError(t, err)

	user, err := authService.ResolveToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)

	_, err = authService.ResolveToken(ctx, "not-a-token")
	assert.Error(t, err)
}
