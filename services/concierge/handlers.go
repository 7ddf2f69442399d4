// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package concierge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/ParkPulse/services/parks"
	"github.com/AleutianAI/ParkPulse/services/waits"
)

// ErrorResponse is the JSON error body for every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ChatResponse is the body for a successful POST /v1/chat.
type ChatResponse struct {
	Reply     string `json:"reply"`
	RequestID string `json:"request_id"`
}

// ResortLister fetches the live resort directory. Implemented by the
// waits upstream client; handlers fall back to the static catalog when
// the live listing fails.
type ResortLister interface {
	ListResorts(ctx context.Context) ([]parks.Resort, error)
}

// Handlers carries the HTTP handlers for the concierge surface.
//
// # Thread Safety
//
// Safe for concurrent use.
type Handlers struct {
	service    *Service
	aggregator *waits.Aggregator
	resorts    ResortLister
	catalog    *parks.Catalog
	logger     *slog.Logger
}

// NewHandlers creates the handler set. resorts may be nil, in which case
// GET /v1/parks always serves the static directory.
func NewHandlers(service *Service, aggregator *waits.Aggregator,
	resorts ResortLister, catalog *parks.Catalog, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:    service,
		aggregator: aggregator,
		resorts:    resorts,
		catalog:    catalog,
		logger:     logger,
	}
}

// getOrCreateRequestID returns the inbound X-Request-ID header, minting a
// fresh UUID when the client did not send one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleChat handles POST /v1/chat.
//
// Description:
//
//	Runs the full answer pipeline for the posted conversation.
//
// Response:
//
//	200 OK: ChatResponse
//	400 Bad Request: Malformed body or empty conversation
//	503 Service Unavailable: Forced search with no provider configured
//	502 Bad Gateway: Model backend failure
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleChat(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With(slog.String("request_id", requestID), slog.String("handler", "HandleChat"))

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid request body: " + err.Error(),
			Code:      "INVALID_BODY",
			RequestID: requestID,
		})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "messages must not be empty",
			Code:      "EMPTY_CONVERSATION",
			RequestID: requestID,
		})
		return
	}

	reply, err := h.service.Answer(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrNoSearchProvider) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:     "web search was requested but no search provider is configured",
				Code:      "NO_SEARCH_PROVIDER",
				RequestID: requestID,
			})
			return
		}
		logger.Error("answer pipeline failed", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:     "the model backend did not return a response",
			Code:      "BACKEND_FAILURE",
			RequestID: requestID,
		})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Reply: reply, RequestID: requestID})
}

// HandleWaits handles GET /v1/waits?query=.
//
// Description:
//
//	Resolves the free-text query to matching ride waits across one park
//	(when the query names one) or all catalog parks. An empty result set
//	is a 200 with an empty list, not an error.
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleWaits(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "query parameter is required",
			Code:      "MISSING_PARAMETER",
			RequestID: requestID,
		})
		return
	}

	results := h.aggregator.FindRideWaits(c.Request.Context(), query)
	if results == nil {
		results = []waits.RideWait{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "request_id": requestID})
}

// HandleParkWaits handles GET /v1/parks/:id/waits.
//
// Description:
//
//	Returns the park's sorted top-of-board snapshot. Unknown park IDs
//	are a 404; an upstream failure with nothing cached is a 502.
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleParkWaits(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With(slog.String("request_id", requestID), slog.String("handler", "HandleParkWaits"))

	parkID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "park id must be an integer",
			Code:      "INVALID_PARK_ID",
			RequestID: requestID,
		})
		return
	}

	park, ok := h.catalog.ByID(parkID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "unknown park id",
			Code:      "PARK_NOT_FOUND",
			RequestID: requestID,
		})
		return
	}

	snaps, err := h.aggregator.ParkSnapshot(c.Request.Context(), parkID)
	if err != nil {
		logger.Error("park snapshot failed", slog.Int("park_id", parkID), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:     "wait-time upstream is unavailable",
			Code:      "UPSTREAM_UNAVAILABLE",
			RequestID: requestID,
		})
		return
	}
	if snaps == nil {
		snaps = []waits.RideSnapshot{}
	}

	c.JSON(http.StatusOK, gin.H{
		"park":       gin.H{"id": park.ID, "name": park.Name},
		"rides":      snaps,
		"request_id": requestID,
	})
}

// HandleParks handles GET /v1/parks.
//
// Description:
//
//	Serves the live resort directory from the upstream listing, falling
//	back to the static catalog-derived directory when the upstream is
//	unreachable. The endpoint therefore never fails.
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleParks(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With(slog.String("request_id", requestID), slog.String("handler", "HandleParks"))

	if h.resorts != nil {
		resorts, err := h.resorts.ListResorts(c.Request.Context())
		if err == nil && len(resorts) > 0 {
			c.JSON(http.StatusOK, resorts)
			return
		}
		if err != nil {
			logger.Warn("live resort listing failed, serving static directory", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusOK, h.catalog.ResortDirectory())
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/ready. The service is ready once the
// catalog is loaded, which construction guarantees.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "parks": len(h.catalog.All())})
}
