package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse-backend/internal/model"
)

func TestSubscriptionRoundTrip(t *testing.T) {
	router, gormDB := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/vehicles", gin.H{"registration": "ABC123"})
	require.Equal(t, http.StatusCreated, w.Code)
	var v model.Vehicle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))

	// Create the subscription bound to the vehicle.
	w = doJSON(t, router, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint":            "https://example.com/push/abc",
		"p256dh":              "test_p256dh",
		"auth":                "test_auth",
		"subscribed_vehicles": []string{v.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Read it back; the endpoint is passed through un-decoded.
	req := httptest.NewRequest(http.MethodGet,
		"/api/subscriptions?endpoint=https://example.com/push/abc", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)
	var got struct {
		SubscribedVehicles []string `json:"subscribed_vehicles"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &got))
	assert.Equal(t, []string{v.ID}, got.SubscribedVehicles)

	// Replacing with an empty vehicle list clears the association.
	w = doJSON(t, router, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push/abc",
		"p256dh":   "test_p256dh",
		"auth":     "test_auth",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, gormDB.Table("subscription_vehicle_mapping").Count(&count).Error)
	assert.Zero(t, count)

	// Delete the subscription.
	w = doJSON(t, router, http.MethodDelete, "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push/abc",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	var subs []model.PushSubscription
	require.NoError(t, gormDB.Find(&subs).Error)
	assert.Empty(t, subs)
}

func TestPutSubscriptionRejectsMissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push/abc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSubscriptionNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/subscriptions?endpoint=https://example.com/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
