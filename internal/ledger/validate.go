package ledger

import "gatehouse-backend/internal/model"

// Limits holds the configured numeric ceilings for odometer validation.
type Limits struct {
	// MaxTripDistance is the largest plausible single-trip odometer delta.
	MaxTripDistance int64
	// OdometerCeiling is the sanity ceiling for any submitted reading.
	OdometerCeiling int64
}

// DefaultLimits mirrors the fallbacks applied by config.Load.
var DefaultLimits = Limits{
	MaxTripDistance: 1000,
	OdometerCeiling: 999999,
}

// The validators below are pure: given the freshly re-read entity snapshot
// and the proposed payload, they return nil (accept) or a typed Rejection.
// They never touch the database.

func validateSignOut(o *model.Occupant) *Rejection {
	if o.State != model.OccupantOnSite {
		return reject(KindAlreadyInState, "sign-out", o.ID, string(o.State),
			"occupant is already off site")
	}
	return nil
}

func validateCheckout(v *model.Vehicle, startingOdometer int64, limits Limits) *Rejection {
	switch v.State {
	case model.VehicleInUse:
		return reject(KindConflict, "checkout", v.ID, string(v.State),
			"vehicle %s is already checked out", v.Registration)
	case model.VehicleMaintenance:
		return reject(KindConflict, "checkout", v.ID, string(v.State),
			"vehicle %s is under maintenance", v.Registration)
	}
	if startingOdometer < 0 || startingOdometer > limits.OdometerCeiling {
		return reject(KindOutOfRange, "checkout", v.ID, string(v.State),
			"starting odometer %d is outside 0..%d", startingOdometer, limits.OdometerCeiling)
	}
	if startingOdometer < v.Odometer {
		return reject(KindOutOfRange, "checkout", v.ID, string(v.State),
			"starting odometer %d is below the recorded reading %d", startingOdometer, v.Odometer)
	}
	return nil
}

func validateCheckIn(v *model.Vehicle, open *model.Checkout, endingOdometer int64, limits Limits) *Rejection {
	if v.State != model.VehicleInUse || open == nil {
		return reject(KindAlreadyInState, "check-in", v.ID, string(v.State),
			"vehicle %s is not checked out", v.Registration)
	}
	if endingOdometer > limits.OdometerCeiling {
		return reject(KindOutOfRange, "check-in", v.ID, string(v.State),
			"ending odometer %d exceeds the ceiling %d", endingOdometer, limits.OdometerCeiling)
	}
	if endingOdometer < open.StartingOdometer {
		return reject(KindOutOfRange, "check-in", v.ID, string(v.State),
			"ending odometer %d is below the checkout reading %d", endingOdometer, open.StartingOdometer)
	}
	if delta := endingOdometer - open.StartingOdometer; delta > limits.MaxTripDistance {
		return reject(KindImplausibleDelta, "check-in", v.ID, string(v.State),
			"trip distance %d exceeds %d, verify the reading", delta, limits.MaxTripDistance)
	}
	return nil
}

func validateStartMaintenance(v *model.Vehicle) *Rejection {
	switch v.State {
	case model.VehicleInUse:
		return reject(KindConflict, "start-maintenance", v.ID, string(v.State),
			"vehicle %s is checked out", v.Registration)
	case model.VehicleMaintenance:
		return reject(KindAlreadyInState, "start-maintenance", v.ID, string(v.State),
			"vehicle %s is already under maintenance", v.Registration)
	}
	return nil
}

func validateEndMaintenance(v *model.Vehicle) *Rejection {
	if v.State != model.VehicleMaintenance {
		return reject(KindAlreadyInState, "end-maintenance", v.ID, string(v.State),
			"vehicle %s is not under maintenance", v.Registration)
	}
	return nil
}
