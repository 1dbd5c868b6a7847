package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ticket-service/internal/models"
	"ticket-service/internal/service"
	"ticket-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	purchaseService *service.PurchaseService
	ticketService   *service.TicketService
	eventService    *service.EventService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	purchaseService *service.PurchaseService,
	ticketService *service.TicketService,
	eventService *service.EventService,
) *Handler {
	return &Handler{
		purchaseService: purchaseService,
		ticketService:   ticketService,
		eventService:    eventService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/tickets", h.purchaseTickets)
		v1.GET("/tickets", h.listMyTickets)
		v1.GET("/tickets/verify/:code", h.verifyTicket)
		v1.GET("/tickets/:id", h.getTicket)
		v1.GET("/payments", h.listMyPayments)
		v1.GET("/events", h.listEvents)
		v1.GET("/events/dashboard/stats", h.dashboardStats)
		v1.GET("/events/:id", h.getEvent)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// customerID extracts the authenticated customer from the trusted header set
// by the auth collaborator. Authentication itself happens upstream.
func customerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-Customer-ID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid customer identity"})
		return 0, false
	}
	return id, true
}

// purchaseTickets handles ticket purchase requests
func (h *Handler) purchaseTickets(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	id, ok := customerID(c)
	if !ok {
		return
	}
	req.CustomerID = id
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	receipt, err := h.purchaseService.Purchase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// verifyTicket handles the public verify-by-code lookup
func (h *Handler) verifyTicket(c *gin.Context) {
	detail, err := h.ticketService.VerifyTicket(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// getTicket handles owner-scoped ticket detail
func (h *Handler) getTicket(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	detail, err := h.ticketService.GetTicket(c.Request.Context(), ticketID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// listMyTickets lists the caller's tickets
func (h *Handler) listMyTickets(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	tickets, err := h.ticketService.ListCustomerTickets(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// listMyPayments lists the caller's payments with their tickets
func (h *Handler) listMyPayments(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	payments, err := h.ticketService.ListCustomerPayments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// listEvents lists active events with sold counts
func (h *Handler) listEvents(c *gin.Context) {
	events, err := h.eventService.ListActiveEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// getEvent returns one event with its sold count
func (h *Handler) getEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// dashboardStats returns organizer sales statistics. The organizer identity
// comes from the trusted X-Organizer-ID header set upstream.
func (h *Handler) dashboardStats(c *gin.Context) {
	organizerID, err := strconv.ParseInt(c.GetHeader("X-Organizer-ID"), 10, 64)
	if err != nil || organizerID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid organizer identity"})
		return
	}

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
			return
		}
	}

	stats, err := h.eventService.DashboardStats(c.Request.Context(), organizerID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// respondError maps domain errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	var capErr *models.CapacityExceededError

	switch {
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrPaymentNotFound),
		errors.Is(err, models.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrEventNotActive),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     capErr.Error(),
			"remaining": capErr.Remaining,
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
