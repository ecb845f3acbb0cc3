// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the Gemini and R2 clients. Per-call deadlines come from
// the caller's context; this is only the outer bound.
var HTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}
