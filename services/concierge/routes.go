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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the concierge endpoints with the router group.
//
// Description:
//
//	Registers all /v1 endpoints. Only the chat endpoint is bearer-gated;
//	wait-time lookups and the park directory are public read surfaces.
//
// Endpoints:
//
//	POST /v1/chat            - Answer a conversation turn (bearer-gated)
//	GET  /v1/waits?query=    - Free-text ride wait lookup
//	GET  /v1/parks/:id/waits - Top-of-board snapshot for one park
//	GET  /v1/parks           - Resort directory (live, static fallback)
//	GET  /v1/health          - Liveness
//	GET  /v1/ready           - Readiness
//
// Example:
//
//	v1 := router.Group("/v1")
//	concierge.RegisterRoutes(v1, handlers, os.Getenv("PARKPULSE_API_TOKEN"))
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, authToken string) {
	rg.POST("/chat", BearerAuth(authToken), handlers.HandleChat)

	rg.GET("/waits", handlers.HandleWaits)
	rg.GET("/parks/:id/waits", handlers.HandleParkWaits)
	rg.GET("/parks", handlers.HandleParks)

	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/ready", handlers.HandleReady)
}
