package sweep

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"gatehouse-backend/config"
	"gatehouse-backend/internal/model"
	"gatehouse-backend/internal/notification"
)

// occupantLingerHours is how long an occupant can stay on site before the
// sweeper calls them out in the log.
const occupantLingerHours = 16

// Service periodically scans the ledger for overdue checkouts and lingering
// occupants. It is read-only against the ledger tables; its only output is
// log lines and notification jobs.
type Service struct {
	cfg        *config.Config
	db         *gorm.DB
	workerPool *notification.WorkerPool

	// checkout IDs already flagged, so one overdue checkout does not spam
	// subscribers on every sweep
	notified map[string]bool
}

// NewService creates and initializes a new sweeper service.
func NewService(cfg *config.Config, db *gorm.DB, workerPool *notification.WorkerPool) *Service {
	return &Service{
		cfg:        cfg,
		db:         db,
		workerPool: workerPool,
		notified:   make(map[string]bool),
	}
}

// Run starts the sweep process in a loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweeper.Enabled {
		log.Println("Sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting sweeper service...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Sweeper.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sweeper.Interval)
		}
	}
}

// SweepOnce performs a single scan for overdue checkouts and lingering
// occupants.
func (s *Service) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	overdue, err := s.OverdueCheckouts(ctx, now)
	if err != nil {
		log.Printf("Error scanning for overdue checkouts: %v", err)
	} else {
		seen := make(map[string]bool, len(overdue))
		for _, co := range overdue {
			seen[co.ID] = true
			age := now.Sub(co.OpenedAt).Round(time.Minute)
			log.Printf("Checkout %s (vehicle %s, operator %s) has been open for %s", co.ID, co.VehicleID, co.Operator, age)
			if s.notified[co.ID] {
				continue
			}
			s.notified[co.ID] = true
			if s.workerPool != nil {
				s.workerPool.Dispatch(notification.Job{VehicleID: co.VehicleID, Event: notification.EventOverdue})
			}
		}
		// Forget checkouts that have since been closed.
		for id := range s.notified {
			if !seen[id] {
				delete(s.notified, id)
			}
		}
	}

	lingering, err := s.LingeringOccupants(ctx, now)
	if err != nil {
		log.Printf("Error scanning for lingering occupants: %v", err)
	} else {
		for _, o := range lingering {
			age := now.Sub(o.EnteredAt).Round(time.Minute)
			log.Printf("Occupant %s (%s, %s) has been on site for %s", o.ID, o.Name, o.Kind, age)
		}
	}
}

// OverdueCheckouts returns open checkouts older than the configured ceiling.
func (s *Service) OverdueCheckouts(ctx context.Context, now time.Time) ([]model.Checkout, error) {
	cutoff := now.Add(-time.Duration(s.cfg.Fleet.CheckoutMaxHours) * time.Hour)
	var overdue []model.Checkout
	err := s.db.WithContext(ctx).
		Where("closed_at IS NULL AND opened_at < ?", cutoff).
		Order("opened_at ASC").
		Find(&overdue).Error
	return overdue, err
}

// LingeringOccupants returns occupants still on site past the linger window.
func (s *Service) LingeringOccupants(ctx context.Context, now time.Time) ([]model.Occupant, error) {
	cutoff := now.Add(-occupantLingerHours * time.Hour)
	var lingering []model.Occupant
	err := s.db.WithContext(ctx).
		Where("state = ? AND entered_at < ?", model.OccupantOnSite, cutoff).
		Order("entered_at ASC").
		Find(&lingering).Error
	return lingering, err
}
