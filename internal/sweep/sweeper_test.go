package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatehouse-backend/config"
	"gatehouse-backend/internal/db"
	"gatehouse-backend/internal/model"
)

func newTestSweeper(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	cfg := &config.Config{}
	cfg.Fleet.CheckoutMaxHours = 24
	cfg.Sweeper.Enabled = true
	cfg.Sweeper.Interval = time.Minute

	return NewService(cfg, gormDB, nil), gormDB
}

func seedCheckout(t *testing.T, gormDB *gorm.DB, openedAt time.Time, closed bool) model.Checkout {
	t.Helper()
	co := model.Checkout{
		ID:               uuid.NewString(),
		VehicleID:        uuid.NewString(),
		Operator:         "driver-1",
		StartingOdometer: 100,
		OpenedAt:         openedAt,
	}
	if closed {
		closedAt := openedAt.Add(time.Hour)
		co.ClosedAt = &closedAt
	}
	require.NoError(t, gormDB.Create(&co).Error)
	return co
}

func TestOverdueCheckouts(t *testing.T) {
	sweeper, gormDB := newTestSweeper(t)
	now := time.Now().UTC()

	overdueCo := seedCheckout(t, gormDB, now.Add(-30*time.Hour), false)
	seedCheckout(t, gormDB, now.Add(-2*time.Hour), false) // fresh, open
	seedCheckout(t, gormDB, now.Add(-48*time.Hour), true) // old but closed
	seedCheckout(t, gormDB, now.Add(-1*time.Hour), true)  // fresh, closed

	overdue, err := sweeper.OverdueCheckouts(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, overdueCo.ID, overdue[0].ID)
}

func TestLingeringOccupants(t *testing.T) {
	sweeper, gormDB := newTestSweeper(t)
	now := time.Now().UTC()

	lingerer := model.Occupant{
		ID:        uuid.NewString(),
		Kind:      model.KindContractor,
		State:     model.OccupantOnSite,
		Name:      "Sam Lee",
		EnteredAt: now.Add(-20 * time.Hour),
	}
	require.NoError(t, gormDB.Create(&lingerer).Error)

	fresh := model.Occupant{
		ID:        uuid.NewString(),
		Kind:      model.KindVisitor,
		State:     model.OccupantOnSite,
		Name:      "Pat Jones",
		EnteredAt: now.Add(-1 * time.Hour),
	}
	require.NoError(t, gormDB.Create(&fresh).Error)

	exitedAt := now.Add(-18 * time.Hour)
	gone := model.Occupant{
		ID:        uuid.NewString(),
		Kind:      model.KindVisitor,
		State:     model.OccupantOffSite,
		Name:      "Alex Kim",
		EnteredAt: now.Add(-20 * time.Hour),
		ExitedAt:  &exitedAt,
	}
	require.NoError(t, gormDB.Create(&gone).Error)

	lingering, err := sweeper.LingeringOccupants(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, lingering, 1)
	assert.Equal(t, lingerer.ID, lingering[0].ID)
}

func TestSweepOnceFlagsEachCheckoutOnce(t *testing.T) {
	sweeper, gormDB := newTestSweeper(t)
	now := time.Now().UTC()

	co := seedCheckout(t, gormDB, now.Add(-30*time.Hour), false)

	ctx := context.Background()
	sweeper.SweepOnce(ctx)
	assert.True(t, sweeper.notified[co.ID])

	// A second sweep must not re-flag it.
	sweeper.SweepOnce(ctx)
	assert.True(t, sweeper.notified[co.ID])
	assert.Len(t, sweeper.notified, 1)

	// Once the checkout closes, the marker is dropped.
	closedAt := now
	require.NoError(t, gormDB.Model(&model.Checkout{}).
		Where("id = ?", co.ID).Update("closed_at", closedAt).Error)
	sweeper.SweepOnce(ctx)
	assert.Empty(t, sweeper.notified)
}
