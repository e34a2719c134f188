package database

import (
	"context"
	"testing"

	"github.com/kentavrex/topfit/internal/models"
	"github.com/kentavrex/topfit/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRunMigrationsSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db, migrations.FS, zap.NewNop()))
	require.NoError(t, HealthCheck(context.Background(), db))

	nutrition := models.Nutrition{Protein: 10, Fat: 5, Carbohydrates: 20, Calories: 200}
	require.NoError(t, db.Create(&nutrition).Error)

	user := models.User{TelegramID: 1001, FirstName: "Test", NutritionGoalID: &nutrition.ID}
	require.NoError(t, db.Create(&user).Error)

	var loaded models.User
	require.NoError(t, db.Preload("NutritionGoal").First(&loaded, "telegram_id = ?", 1001).Error)
	require.NotNil(t, loaded.NutritionGoal)
	assert.Equal(t, 200.0, loaded.NutritionGoal.Calories)

	require.NoError(t, Close(db))
}
