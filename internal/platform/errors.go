package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the platform API. 4xx responses are
// permanent: retrying the same request cannot succeed.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("platform api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsPermanent reports whether err is a platform 4xx. Network errors and 5xx
// responses are transient and left for the next scheduled pass.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Permanent()
	}
	return false
}
