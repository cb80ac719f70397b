package model

import "time"

// OccupantKind distinguishes the two tracked categories of site presence.
type OccupantKind string

const (
	KindVisitor    OccupantKind = "visitor"
	KindContractor OccupantKind = "contractor"
)

// OccupantState is the lifecycle state of a sign-in episode.
type OccupantState string

const (
	OccupantOnSite  OccupantState = "on_site"
	OccupantOffSite OccupantState = "off_site"
)

// Occupant represents one physical presence episode: a visitor or contractor
// who signed in at the kiosk. It is created on site and transitions exactly
// once to off site; a returning visitor gets a new Occupant row.
type Occupant struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        OccupantKind  `gorm:"size:20;not null" json:"kind"`
	State       OccupantState `gorm:"size:20;not null;index" json:"state"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Company     string        `gorm:"size:255" json:"company,omitempty"`
	Contact     string        `gorm:"size:255" json:"contact,omitempty"`
	HostName    string        `gorm:"size:255" json:"hostName,omitempty"`
	EnteredAt   time.Time     `gorm:"not null;index" json:"enteredAt"`
	ExitedAt    *time.Time    `json:"exitedAt,omitempty"` // set iff State == off_site
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
