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
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth returns middleware enforcing a static bearer token on the
// routes it wraps.
//
// Description:
//
//	Compares the Authorization header against "Bearer <token>" in
//	constant time. An empty configured token disables the check, which
//	is logged loudly once at startup so it cannot pass unnoticed.
//
// Thread Safety: The returned middleware is safe for concurrent use.
func BearerAuth(token string) gin.HandlerFunc {
	if token == "" {
		slog.Warn("API auth token is empty; chat endpoint is unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		supplied, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "missing or invalid bearer token",
				Code:  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}
