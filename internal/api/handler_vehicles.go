package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gatehouse-backend/internal/ledger"
	"gatehouse-backend/internal/model"
)

type createVehicleRequest struct {
	Registration string `json:"registration" binding:"required"`
	DisplayName  string `json:"displayName"`
	Odometer     int64  `json:"odometer"`
}

// CreateVehicle handles POST /api/vehicles.
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.ledger.CreateVehicle(c.Request.Context(), ledger.CreateVehicleRequest{
		Registration: req.Registration,
		DisplayName:  req.DisplayName,
		Odometer:     req.Odometer,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

type checkoutRequest struct {
	Operator          string `json:"operator" binding:"required"`
	StartingOdometer  int64  `json:"startingOdometer"`
	TermsAcknowledged bool   `json:"termsAcknowledged" binding:"required"`
}

// Checkout handles POST /api/vehicles/:registration/checkout.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.ledger.Checkout(c.Request.Context(), ledger.CheckoutRequest{
		Registration:      c.Param("registration"),
		Operator:          req.Operator,
		StartingOdometer:  req.StartingOdometer,
		TermsAcknowledged: req.TermsAcknowledged,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

type checkInRequest struct {
	Operator       string `json:"operator" binding:"required"`
	EndingOdometer int64  `json:"endingOdometer"`
}

// CheckIn handles POST /api/vehicles/:registration/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.ledger.CheckIn(c.Request.Context(), ledger.CheckInRequest{
		Registration:   c.Param("registration"),
		Operator:       req.Operator,
		EndingOdometer: req.EndingOdometer,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// StartMaintenance handles POST /api/vehicles/:registration/maintenance.
func (h *Handler) StartMaintenance(c *gin.Context) {
	vehicle, err := h.ledger.StartMaintenance(c.Request.Context(), c.Param("registration"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// EndMaintenance handles DELETE /api/vehicles/:registration/maintenance.
func (h *Handler) EndMaintenance(c *gin.Context) {
	vehicle, err := h.ledger.EndMaintenance(c.Request.Context(), c.Param("registration"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

type damageReportRequest struct {
	Reporter    string `json:"reporter" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// ReportDamage handles POST /api/checkins/:id/damage.
func (h *Handler) ReportDamage(c *gin.Context) {
	var req damageReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.ledger.ReportDamage(c.Request.Context(), ledger.DamageReportRequest{
		CheckInID:   c.Param("id"),
		Reporter:    req.Reporter,
		Description: req.Description,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// GetVehicles handles GET /api/vehicles. The optional state query filters
// the fleet list. Display read only; transitions re-read under lock.
func GetVehicles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Order("registration ASC")
		if state := c.Query("state"); state != "" {
			switch model.VehicleState(state) {
			case model.VehicleAvailable, model.VehicleInUse, model.VehicleMaintenance:
				q = q.Where("state = ?", state)
			default:
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid state filter"})
				return
			}
		}

		var vehicles []model.Vehicle
		if err := q.Find(&vehicles).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vehicles"})
			return
		}
		c.JSON(http.StatusOK, vehicles)
	}
}
