package repository

import (
	"context"
	"testing"

	"dailytrack/internal/config"
	"dailytrack/internal/infrastructure/database"
	"dailytrack/internal/model"
	"dailytrack/pkg/amount"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	return db
}

func TestSettingUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(newTestDB(t))

	err := repo.UpdateFeePercent(ctx, nil, model.ComponentExchangeEscrow, 100)
	require.ErrorIs(t, err, ErrSettingNotFound)

	_, created, err := repo.CreateIfAbsent(ctx, &model.ComponentSetting{
		Component:  model.ComponentExchangeEscrow,
		Owner:      "0x000000000000000000000000000000000000000F",
		Token:      "HTO",
		Address:    "0x00000000000000000000000000000000000000E5",
		FeePercent: 500,
	})
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, repo.UpdateFeePercent(ctx, nil, model.ComponentExchangeEscrow, 500))
	require.NoError(t, repo.UpdateFeePercent(ctx, nil, model.ComponentExchangeEscrow, 250))

	stored, err := repo.Get(ctx, nil, model.ComponentExchangeEscrow)
	require.NoError(t, err)
	assert.Equal(t, uint32(250), stored.FeePercent)

	err = repo.UpdateDailyReward(ctx, nil, model.ComponentRewardTracker, amount.Tokens(1))
	require.ErrorIs(t, err, ErrSettingNotFound)
}

func TestSettingFindByAddress(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(newTestDB(t))
	const shared = "0x0000000000000000000000000000000000000D71"

	_, _, err := repo.CreateIfAbsent(ctx, &model.ComponentSetting{
		Component: model.ComponentRewardTracker,
		Owner:     "0x000000000000000000000000000000000000000F",
		Token:     "HTO",
		Address:   shared,
	})
	require.NoError(t, err)

	other, err := repo.FindByAddress(ctx, nil, shared, model.ComponentRewardTracker)
	require.NoError(t, err)
	assert.Nil(t, other)

	other, err = repo.FindByAddress(ctx, nil, shared, model.ComponentExchangeEscrow)
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, model.ComponentRewardTracker, other.Component)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
