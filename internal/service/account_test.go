package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/utils"
)

func TestCreateOperator(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	svc := NewAccountService(s, bcrypt.MinCost)

	a, pw, err := svc.CreateOperator(ctx, "root", "", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, a.Role)
	assert.Equal(t, "root", a.Name)
	assert.Len(t, pw, 20)
	assert.True(t, utils.VerifyPassword(a.PasswordHash, pw))

	_, _, err = svc.CreateOperator(ctx, "root", "", "x")
	require.ErrorIs(t, err, apperr.ErrUsernameTaken)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	svc := NewAccountService(s, bcrypt.MinCost)
	a, _, err := svc.CreateOperator(ctx, "root", "Root", "pw")
	require.NoError(t, err)

	got, err := svc.Settings(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"configs": map[string]any{}}, got)

	_, err = svc.UpdateConfigs(ctx, a.ID, map[string]any{"pageSize": float64(25)})
	require.NoError(t, err)
	got, err = svc.Settings(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(25), got["configs"].(map[string]any)["pageSize"])

	_, err = svc.UpdateConfigs(ctx, a.ID, nil)
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Settings(ctx, "ghost")
	require.ErrorIs(t, err, apperr.ErrAccountMissing)
}
