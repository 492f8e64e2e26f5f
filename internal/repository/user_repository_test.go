package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserRepo(t *testing.T) UserRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewUserRepository(db)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	user := &models.User{Name: "Kumar", Email: "kumar@example.com", Role: models.RoleGuide}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kumar", byID.Name)

	byEmail, err := repo.GetByEmail(ctx, "kumar@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "dup@example.com"}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "dup@example.com"})

	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := setupUserRepo(t)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
