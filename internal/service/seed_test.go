package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/excellense/internal/config"
	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/utils"
)

func TestSeedSuperAdmin(t *testing.T) {
	seed := config.SuperAdminSeed{Username: "root", Email: "root@x.com", Password: "pw"}
	ctx := context.Background()

	t.Run("creates once", func(t *testing.T) {
		users := newFakeUsers()
		require.NoError(t, SeedSuperAdmin(ctx, users, seed, testCost, zap.NewNop()))
		require.NoError(t, SeedSuperAdmin(ctx, users, seed, testCost, zap.NewNop()))

		require.Len(t, users.byID, 1)
		u := users.byID[1]
		assert.Equal(t, model.RoleSuperAdmin, u.Role)
		assert.True(t, utils.VerifyPassword(u.PasswordHash, "pw"))
	})

	t.Run("incomplete seed warns and skips", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		users := newFakeUsers()
		require.NoError(t, SeedSuperAdmin(ctx, users, config.SuperAdminSeed{Email: "root@x.com"}, testCost, zap.New(core)))
		assert.Empty(t, users.byID)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("store error", func(t *testing.T) {
		users := newFakeUsers()
		users.err = errors.New("db down")
		assert.Error(t, SeedSuperAdmin(ctx, users, seed, testCost, zap.NewNop()))
	})
}
