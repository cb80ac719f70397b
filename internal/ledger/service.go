package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gatehouse-backend/internal/model"
	"gatehouse-backend/internal/parse"
)

// Notifier receives the ID of a vehicle that just became available. The
// ledger calls it after the transition has committed, never inside the
// transaction.
type Notifier interface {
	VehicleAvailable(vehicleID string)
}

// Service is the single entry point for all state transitions. It holds no
// state across calls; the database handle is injected at construction and
// every transition runs inside its own transaction with a row-level lock on
// the entity it touches.
type Service struct {
	db       *gorm.DB
	limits   Limits
	notifier Notifier
}

// New creates a ledger service bound to the given database handle.
func New(db *gorm.DB, limits Limits) *Service {
	if limits.MaxTripDistance <= 0 {
		limits.MaxTripDistance = DefaultLimits.MaxTripDistance
	}
	if limits.OdometerCeiling <= 0 {
		limits.OdometerCeiling = DefaultLimits.OdometerCeiling
	}
	return &Service{db: db, limits: limits}
}

// SetNotifier wires the availability notifier. Optional; without it
// check-ins simply do not announce.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// DB exposes the underlying handle for read-only display queries. Callers
// must not use such reads as a basis for a transition decision; transitions
// always re-read under lock.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// lockForUpdate applies an exclusive row lock (SELECT ... FOR UPDATE) where
// the dialect supports it. sqlite, used in tests, has a single writer and
// rejects the clause, so it is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// SignInRequest carries the identity fields for a new sign-in episode. The
// fields are opaque to the ledger; only Kind participates in the lifecycle.
type SignInRequest struct {
	Kind     model.OccupantKind
	Name     string
	Company  string
	Contact  string
	HostName string
}

// SignIn creates a new occupant in state on_site. Creation cannot conflict,
// so no lock is taken.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*model.Occupant, error) {
	now := time.Now().UTC()
	o := &model.Occupant{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		State:     model.OccupantOnSite,
		Name:      req.Name,
		Company:   req.Company,
		Contact:   req.Contact,
		HostName:  req.HostName,
		EnteredAt: now,
	}
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("sign-in: %w", err)
	}
	return o, nil
}

// SignOut transitions an occupant on_site -> off_site exactly once. A second
// sign-out is rejected with ALREADY_IN_STATE and performs zero writes.
func (s *Service) SignOut(ctx context.Context, occupantID string) (*model.Occupant, error) {
	var o model.Occupant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&o, "id = ?", occupantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return reject(KindNotFound, "sign-out", occupantID, "", "occupant not found")
			}
			return fmt.Errorf("sign-out read: %w", err)
		}
		if rej := validateSignOut(&o); rej != nil {
			return rej
		}
		now := time.Now().UTC()
		o.State = model.OccupantOffSite
		o.ExitedAt = &now
		if err := tx.Model(&model.Occupant{}).Where("id = ?", o.ID).
			Updates(map[string]any{"state": model.OccupantOffSite, "exited_at": now}).Error; err != nil {
			return fmt.Errorf("sign-out write: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CheckoutRequest opens a vehicle-use episode.
type CheckoutRequest struct {
	Registration      string
	Operator          string
	StartingOdometer  int64
	TermsAcknowledged bool
}

// Checkout transitions a vehicle available -> in_use and opens a Checkout
// record. Concurrent attempts on the same registration serialize on the row
// lock; the loser observes the winner's committed state and is rejected with
// CONFLICT.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*model.Vehicle, error) {
	reg, perr := parse.Registration(req.Registration)
	if perr != nil {
		return nil, reject(KindOutOfRange, "checkout", req.Registration, "", "invalid registration: %v", perr)
	}

	var v model.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&v, "registration = ?", reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return reject(KindNotFound, "checkout", reg, "", "no vehicle with registration %s", reg)
			}
			return fmt.Errorf("checkout read: %w", err)
		}
		if rej := validateCheckout(&v, req.StartingOdometer, s.limits); rej != nil {
			return rej
		}

		now := time.Now().UTC()
		co := &model.Checkout{
			ID:                uuid.NewString(),
			VehicleID:         v.ID,
			Operator:          req.Operator,
			StartingOdometer:  req.StartingOdometer,
			TermsAcknowledged: req.TermsAcknowledged,
			OpenedAt:          now,
		}
		if err := tx.Create(co).Error; err != nil {
			return fmt.Errorf("checkout create: %w", err)
		}
		if err := tx.Model(&model.Vehicle{}).Where("id = ?", v.ID).
			Updates(map[string]any{
				"state":              model.VehicleInUse,
				"odometer":           req.StartingOdometer,
				"active_checkout_id": co.ID,
			}).Error; err != nil {
			return fmt.Errorf("checkout update: %w", err)
		}
		v.State = model.VehicleInUse
		v.Odometer = req.StartingOdometer
		v.ActiveCheckoutID = &co.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CheckInRequest closes the open vehicle-use episode.
type CheckInRequest struct {
	Registration   string
	Operator       string
	EndingOdometer int64
}

// CheckIn transitions a vehicle in_use -> available, closing the open
// Checkout with a CheckIn record. The committed odometer never decreases:
// the ending reading is validated against the locked checkout row before any
// write happens.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (*model.Vehicle, error) {
	reg, perr := parse.Registration(req.Registration)
	if perr != nil {
		return nil, reject(KindOutOfRange, "check-in", req.Registration, "", "invalid registration: %v", perr)
	}

	var v model.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&v, "registration = ?", reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return reject(KindNotFound, "check-in", reg, "", "no vehicle with registration %s", reg)
			}
			return fmt.Errorf("check-in read: %w", err)
		}

		// The open checkout row is owned via the vehicle lock; no second
		// independent entity lock is ever taken.
		var open *model.Checkout
		if v.ActiveCheckoutID != nil {
			var co model.Checkout
			if err := tx.First(&co, "id = ?", *v.ActiveCheckoutID).Error; err != nil {
				return fmt.Errorf("check-in checkout read: %w", err)
			}
			open = &co
		}
		if rej := validateCheckIn(&v, open, req.EndingOdometer, s.limits); rej != nil {
			return rej
		}

		now := time.Now().UTC()
		ci := &model.CheckIn{
			ID:             uuid.NewString(),
			CheckoutID:     open.ID,
			Operator:       req.Operator,
			EndingOdometer: req.EndingOdometer,
			ClosedAt:       now,
		}
		if err := tx.Create(ci).Error; err != nil {
			return fmt.Errorf("check-in create: %w", err)
		}
		if err := tx.Model(&model.Checkout{}).Where("id = ?", open.ID).
			Update("closed_at", now).Error; err != nil {
			return fmt.Errorf("check-in close checkout: %w", err)
		}
		if err := tx.Model(&model.Vehicle{}).Where("id = ?", v.ID).
			Updates(map[string]any{
				"state":              model.VehicleAvailable,
				"odometer":           req.EndingOdometer,
				"active_checkout_id": nil,
			}).Error; err != nil {
			return fmt.Errorf("check-in update: %w", err)
		}
		v.State = model.VehicleAvailable
		v.Odometer = req.EndingOdometer
		v.ActiveCheckoutID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.VehicleAvailable(v.ID)
	}
	return &v, nil
}

// StartMaintenance flags an available vehicle as under maintenance. A
// checked-out vehicle cannot be flagged; the attempt loses the race and is
// rejected with CONFLICT.
func (s *Service) StartMaintenance(ctx context.Context, registration string) (*model.Vehicle, error) {
	return s.maintenance(ctx, registration, "start-maintenance", validateStartMaintenance, model.VehicleMaintenance)
}

// EndMaintenance returns a maintenance vehicle to the available pool.
func (s *Service) EndMaintenance(ctx context.Context, registration string) (*model.Vehicle, error) {
	return s.maintenance(ctx, registration, "end-maintenance", validateEndMaintenance, model.VehicleAvailable)
}

func (s *Service) maintenance(ctx context.Context, registration, transition string,
	validate func(*model.Vehicle) *Rejection, target model.VehicleState) (*model.Vehicle, error) {
	reg, perr := parse.Registration(registration)
	if perr != nil {
		return nil, reject(KindOutOfRange, transition, registration, "", "invalid registration: %v", perr)
	}

	var v model.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&v, "registration = ?", reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return reject(KindNotFound, transition, reg, "", "no vehicle with registration %s", reg)
			}
			return fmt.Errorf("%s read: %w", transition, err)
		}
		if rej := validate(&v); rej != nil {
			return rej
		}
		if err := tx.Model(&model.Vehicle{}).Where("id = ?", v.ID).
			Update("state", target).Error; err != nil {
			return fmt.Errorf("%s update: %w", transition, err)
		}
		v.State = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DamageReportRequest attaches a free-form damage note to a check-in.
type DamageReportRequest struct {
	CheckInID   string
	Reporter    string
	Description string
}

// ReportDamage appends a damage report. It has no state-machine effect and
// therefore takes no lock.
func (s *Service) ReportDamage(ctx context.Context, req DamageReportRequest) (*model.DamageReport, error) {
	var ci model.CheckIn
	if err := s.db.WithContext(ctx).First(&ci, "id = ?", req.CheckInID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reject(KindNotFound, "report-damage", req.CheckInID, "", "check-in not found")
		}
		return nil, fmt.Errorf("report-damage read: %w", err)
	}
	dr := &model.DamageReport{
		ID:          uuid.NewString(),
		CheckInID:   ci.ID,
		Reporter:    req.Reporter,
		Description: req.Description,
	}
	if err := s.db.WithContext(ctx).Create(dr).Error; err != nil {
		return nil, fmt.Errorf("report-damage create: %w", err)
	}
	return dr, nil
}

// CreateVehicleRequest registers a new fleet unit.
type CreateVehicleRequest struct {
	Registration string
	DisplayName  string
	Odometer     int64
}

// CreateVehicle registers a vehicle in state available with a seeded
// odometer. The unique index on registration backstops the duplicate check
// against a concurrent create.
func (s *Service) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*model.Vehicle, error) {
	reg, perr := parse.Registration(req.Registration)
	if perr != nil {
		return nil, reject(KindOutOfRange, "register-vehicle", req.Registration, "", "invalid registration: %v", perr)
	}
	if req.Odometer < 0 || req.Odometer > s.limits.OdometerCeiling {
		return nil, reject(KindOutOfRange, "register-vehicle", reg, "",
			"odometer %d is outside 0..%d", req.Odometer, s.limits.OdometerCeiling)
	}

	var v *model.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Vehicle
		err := tx.First(&existing, "registration = ?", reg).Error
		if err == nil {
			return reject(KindConflict, "register-vehicle", reg, string(existing.State),
				"vehicle %s is already registered", reg)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("register-vehicle read: %w", err)
		}
		v = &model.Vehicle{
			ID:           uuid.NewString(),
			Registration: reg,
			DisplayName:  req.DisplayName,
			State:        model.VehicleAvailable,
			Odometer:     req.Odometer,
		}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("register-vehicle create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
