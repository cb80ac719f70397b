package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse-backend/internal/model"
)

func TestValidateSignOut(t *testing.T) {
	onSite := &model.Occupant{ID: "o1", State: model.OccupantOnSite}
	assert.Nil(t, validateSignOut(onSite))

	offSite := &model.Occupant{ID: "o2", State: model.OccupantOffSite}
	rej := validateSignOut(offSite)
	require.NotNil(t, rej)
	assert.Equal(t, KindAlreadyInState, rej.Kind)
	assert.Equal(t, "o2", rej.EntityID)
	assert.Equal(t, string(model.OccupantOffSite), rej.CurrentState)
}

func TestValidateCheckout(t *testing.T) {
	testCases := []struct {
		name         string
		state        model.VehicleState
		odometer     int64
		starting     int64
		expectedKind RejectKind
	}{
		{
			name:     "Available vehicle accepts",
			state:    model.VehicleAvailable,
			odometer: 50000,
			starting: 50000,
		},
		{
			name:         "In use rejects with conflict",
			state:        model.VehicleInUse,
			odometer:     50000,
			starting:     50000,
			expectedKind: KindConflict,
		},
		{
			name:         "Maintenance rejects with conflict",
			state:        model.VehicleMaintenance,
			odometer:     50000,
			starting:     50000,
			expectedKind: KindConflict,
		},
		{
			name:         "Negative odometer",
			state:        model.VehicleAvailable,
			odometer:     0,
			starting:     -1,
			expectedKind: KindOutOfRange,
		},
		{
			name:         "Above sanity ceiling",
			state:        model.VehicleAvailable,
			odometer:     0,
			starting:     1000000,
			expectedKind: KindOutOfRange,
		},
		{
			name:     "Exactly at ceiling",
			state:    model.VehicleAvailable,
			odometer: 0,
			starting: 999999,
		},
		{
			name:         "Below recorded reading",
			state:        model.VehicleAvailable,
			odometer:     50000,
			starting:     49999,
			expectedKind: KindOutOfRange,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := &model.Vehicle{ID: "v1", Registration: "ABC123", State: tc.state, Odometer: tc.odometer}
			rej := validateCheckout(v, tc.starting, DefaultLimits)
			if tc.expectedKind == "" {
				assert.Nil(t, rej)
				return
			}
			require.NotNil(t, rej)
			assert.Equal(t, tc.expectedKind, rej.Kind)
		})
	}
}

func TestValidateCheckIn(t *testing.T) {
	open := func(starting int64) *model.Checkout {
		return &model.Checkout{ID: "c1", VehicleID: "v1", StartingOdometer: starting, OpenedAt: time.Now().UTC()}
	}

	testCases := []struct {
		name         string
		state        model.VehicleState
		open         *model.Checkout
		ending       int64
		expectedKind RejectKind
	}{
		{
			name:   "Accepts plausible reading",
			state:  model.VehicleInUse,
			open:   open(50000),
			ending: 50200,
		},
		{
			name:         "Not checked out",
			state:        model.VehicleAvailable,
			open:         nil,
			ending:       50200,
			expectedKind: KindAlreadyInState,
		},
		{
			name:         "Odometer regression",
			state:        model.VehicleInUse,
			open:         open(50000),
			ending:       49999,
			expectedKind: KindOutOfRange,
		},
		{
			name:   "Delta exactly at ceiling",
			state:  model.VehicleInUse,
			open:   open(50000),
			ending: 51000,
		},
		{
			name:         "Delta just past ceiling",
			state:        model.VehicleInUse,
			open:         open(50000),
			ending:       51001,
			expectedKind: KindImplausibleDelta,
		},
		{
			name:         "Above sanity ceiling",
			state:        model.VehicleInUse,
			open:         open(999500),
			ending:       1000000,
			expectedKind: KindOutOfRange,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := &model.Vehicle{ID: "v1", Registration: "ABC123", State: tc.state}
			rej := validateCheckIn(v, tc.open, tc.ending, DefaultLimits)
			if tc.expectedKind == "" {
				assert.Nil(t, rej)
				return
			}
			require.NotNil(t, rej)
			assert.Equal(t, tc.expectedKind, rej.Kind)
		})
	}
}

func TestValidateMaintenance(t *testing.T) {
	available := &model.Vehicle{ID: "v1", Registration: "ABC123", State: model.VehicleAvailable}
	assert.Nil(t, validateStartMaintenance(available))

	inUse := &model.Vehicle{ID: "v1", Registration: "ABC123", State: model.VehicleInUse}
	rej := validateStartMaintenance(inUse)
	require.NotNil(t, rej)
	assert.Equal(t, KindConflict, rej.Kind)

	underMaintenance := &model.Vehicle{ID: "v1", Registration: "ABC123", State: model.VehicleMaintenance}
	rej = validateStartMaintenance(underMaintenance)
	require.NotNil(t, rej)
	assert.Equal(t, KindAlreadyInState, rej.Kind)

	assert.Nil(t, validateEndMaintenance(underMaintenance))
	rej = validateEndMaintenance(available)
	require.NotNil(t, rej)
	assert.Equal(t, KindAlreadyInState, rej.Kind)
}
