package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/config"
	"github.com/iliyamo/excellense/internal/model"
	"github.com/iliyamo/excellense/internal/repository"
	"github.com/iliyamo/excellense/internal/utils"
)

// SeedSuperAdmin makes sure the configured superadmin account exists.
// It is a no-op (with a warning) when the seed is incomplete and when a
// user with that email is already present.
func SeedSuperAdmin(ctx context.Context, users UserRepository, seed config.SuperAdminSeed, bcryptCost int, logger *zap.Logger) error {
	if !seed.Complete() {
		logger.Warn("superadmin seed variables missing, skipping seeding")
		return nil
	}
	_, err := users.GetByEmail(ctx, seed.Email)
	switch {
	case err == nil:
		logger.Info("superadmin already exists", zap.String("email", seed.Email))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	hash, err := utils.HashPassword(seed.Password, bcryptCost)
	if err != nil {
		return err
	}
	u := model.User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
	}
	if err := users.Create(ctx, &u); err != nil {
		return err
	}
	logger.Info("superadmin seeded", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
