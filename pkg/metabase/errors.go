package metabase

import (
	"errors"
	"fmt"
)

// APIError is returned when Metabase answers with a status that is not a
// success for the endpoint, or reports a failed query. It is the only error
// the services convert into an envelope; transport failures are returned
// as plain errors.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("metabase returned status %d: %s", e.StatusCode, e.Body)
}

// AsAPIError reports whether err wraps an *APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
