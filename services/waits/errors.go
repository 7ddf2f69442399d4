// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package waits

import "fmt"

// UpstreamError reports a non-success status or malformed payload from the
// wait-time provider for one park. A failed park never blanks out a
// multi-park aggregation; callers catch per-park errors and continue.
type UpstreamError struct {
	ParkID int
	Status int // HTTP status, 0 when the failure was transport or decode
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("waits: upstream park %d returned status %d: %s", e.ParkID, e.Status, e.Reason)
	}
	return fmt.Sprintf("waits: upstream park %d: %s", e.ParkID, e.Reason)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
