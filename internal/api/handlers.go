package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"listingpulse/server/internal/database"
	"listingpulse/server/internal/models"
)

const recentListingsLimit = 10

// ListingStore is the part of the database the handlers use
type ListingStore interface {
	GetAllListings(ctx context.Context) ([]models.Listing, error)
	GetListingByID(ctx context.Context, id string) (*models.Listing, error)
	SearchListings(ctx context.Context, query string) ([]models.Listing, error)
	CreateListing(ctx context.Context, listing *models.Listing) error
	UpdateListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, id string) error
	GetRecentListings(ctx context.Context, limit int) ([]models.ListingSummary, error)
	Ping(ctx context.Context) error
}

// DashboardBuilder computes the dashboard payload from scratch on every call
type DashboardBuilder interface {
	Build(ctx context.Context) (*models.DashboardData, error)
}

type Handler struct {
	store     ListingStore
	dashboard DashboardBuilder
	logger    *logrus.Logger
}

func NewHandler(store ListingStore, dashboard DashboardBuilder, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		store:     store,
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *Handler) GetDashboard(c *gin.Context) {
	data, err := h.dashboard.Build(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch dashboard data")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch dashboard data",
			"code":  "AGGREGATION_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetListings returns a single listing for ?id, search results for ?query,
// and every listing otherwise.
func (h *Handler) GetListings(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		listing, err := h.store.GetListingByID(ctx, id)
		if err != nil {
			h.logger.WithError(err).WithField("id", id).Error("Failed to get listing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing"})
			return
		}
		if listing == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusOK, listing)
		return
	}

	var (
		listings []models.Listing
		err      error
	)
	if query := c.Query("query"); query != "" {
		listings, err = h.store.SearchListings(ctx, query)
	} else {
		listings, err = h.store.GetAllListings(ctx)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) CreateListing(c *gin.Context) {
	listing, ok := h.bindListing(c)
	if !ok {
		return
	}

	if err := h.store.CreateListing(c.Request.Context(), listing); err != nil {
		h.logger.WithError(err).Error("Failed to create listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	h.logger.WithField("id", listing.ID).Info("Listing created")
	c.JSON(http.StatusCreated, listing)
}

func (h *Handler) UpdateListing(c *gin.Context) {
	listing, ok := h.bindListing(c)
	if !ok {
		return
	}

	err := h.store.UpdateListing(c.Request.Context(), listing)
	switch {
	case errors.Is(err, database.ErrMissingID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID is required"})
		return
	case errors.Is(err, database.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	case err != nil:
		h.logger.WithError(err).WithField("id", listing.ID).Error("Failed to update listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *Handler) DeleteListing(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID is required"})
		return
	}

	err := h.store.DeleteListing(c.Request.Context(), id)
	if errors.Is(err, database.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to delete listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		return
	}

	h.logger.WithField("id", id).Info("Listing deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted successfully"})
}

func (h *Handler) GetRecentListings(c *gin.Context) {
	listings, err := h.store.GetRecentListings(c.Request.Context(), recentListingsLimit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recent listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) bindListing(c *gin.Context) (*models.Listing, bool) {
	var listing models.Listing
	if err := c.ShouldBindJSON(&listing); err != nil {
		h.logger.WithError(err).Error("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	if listing.Status != "" && !listing.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing status"})
		return nil, false
	}

	return &listing, true
}
