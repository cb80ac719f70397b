package model

import "time"

// VehicleState is the lifecycle state of a fleet vehicle.
type VehicleState string

const (
	VehicleAvailable   VehicleState = "available"
	VehicleInUse       VehicleState = "in_use"
	VehicleMaintenance VehicleState = "maintenance"
)

// Vehicle represents one fleet unit with a single exclusive-use slot.
// ActiveCheckoutID is present iff State == in_use; the unique index on it
// (and the partial unique index on open checkouts, see db.Init) enforces
// "at most one open checkout per vehicle" structurally, in addition to the
// row-lock protocol in the ledger service.
type Vehicle struct {
	ID               string       `gorm:"type:uuid;primaryKey" json:"id"`
	Registration     string       `gorm:"size:32;uniqueIndex;not null" json:"registration"`
	DisplayName      string       `gorm:"size:255" json:"displayName,omitempty"`
	State            VehicleState `gorm:"size:20;not null;index" json:"state"`
	Odometer         int64        `gorm:"not null" json:"odometer"` // monotonically non-decreasing
	ActiveCheckoutID *string      `gorm:"type:uuid;uniqueIndex" json:"activeCheckoutId,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Checkout is the opening half of one vehicle-use episode. Immutable once
// created, except for ClosedAt which is stamped by the matching check-in.
type Checkout struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID         string     `gorm:"type:uuid;index;not null" json:"vehicleId"`
	Operator          string     `gorm:"size:255;not null" json:"operator"`
	StartingOdometer  int64      `gorm:"not null" json:"startingOdometer"`
	TermsAcknowledged bool       `gorm:"not null" json:"termsAcknowledged"`
	OpenedAt          time.Time  `gorm:"not null;index" json:"openedAt"`
	ClosedAt          *time.Time `gorm:"index" json:"closedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CheckIn closes exactly one Checkout (checkout_id is unique).
type CheckIn struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID     string    `gorm:"type:uuid;uniqueIndex;not null" json:"checkoutId"`
	Operator       string    `gorm:"size:255;not null" json:"operator"`
	EndingOdometer int64     `gorm:"not null" json:"endingOdometer"`
	ClosedAt       time.Time `gorm:"not null" json:"closedAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DamageReport is an optional free-form note attached to a check-in. It has
// no effect on vehicle state.
type DamageReport struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CheckInID   string    `gorm:"type:uuid;index;not null" json:"checkInId"`
	Reporter    string    `gorm:"size:255;not null" json:"reporter"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
