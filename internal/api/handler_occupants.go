package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gatehouse-backend/internal/ledger"
	"gatehouse-backend/internal/model"
)

type signInRequest struct {
	Kind     model.OccupantKind `json:"kind" binding:"required,oneof=visitor contractor"`
	Name     string             `json:"name" binding:"required"`
	Company  string             `json:"company"`
	Contact  string             `json:"contact"`
	HostName string             `json:"hostName"`
}

// SignIn handles POST /api/occupants/sign-in.
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	occupant, err := h.ledger.SignIn(c.Request.Context(), ledger.SignInRequest{
		Kind:     req.Kind,
		Name:     req.Name,
		Company:  req.Company,
		Contact:  req.Contact,
		HostName: req.HostName,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, occupant)
}

// SignOut handles POST /api/occupants/:id/sign-out.
func (h *Handler) SignOut(c *gin.Context) {
	occupant, err := h.ledger.SignOut(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, occupant)
}

// GetOccupants handles GET /api/occupants. The optional state query filters
// to on_site or off_site. This is a display read; it bypasses the
// transition guard and is never used as transition input.
func GetOccupants(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Order("entered_at DESC")
		if state := c.Query("state"); state != "" {
			if state != string(model.OccupantOnSite) && state != string(model.OccupantOffSite) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid state filter"})
				return
			}
			q = q.Where("state = ?", state)
		}

		var occupants []model.Occupant
		if err := q.Find(&occupants).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve occupants"})
			return
		}
		c.JSON(http.StatusOK, occupants)
	}
}
