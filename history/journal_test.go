package history

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"table-order/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StatusChange{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestRecordAndList(t *testing.T) {
	j := New(setupDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, models.StatusChange{OrderID: "7", Axis: models.AxisFulfillment, ToStatus: "pending", Actor: "customer"}))
	require.NoError(t, j.Record(ctx, models.StatusChange{OrderID: "8", Axis: models.AxisFulfillment, ToStatus: "pending", Actor: "customer"}))
	require.NoError(t, j.Record(ctx, models.StatusChange{OrderID: "7", Axis: models.AxisFulfillment, FromStatus: "pending", ToStatus: "confirmed", Actor: "staff"}))

	changes, err := j.ForOrder(ctx, "7")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "pending", changes[0].ToStatus)
	assert.Equal(t, "confirmed", changes[1].ToStatus)
	assert.Equal(t, "staff", changes[1].Actor)
	assert.False(t, changes[0].CreatedAt.IsZero())

	none, err := j.ForOrder(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
