package sparql

import (
	"errors"
	"fmt"
)

// ErrQueryExecution matches every QueryExecutionError with errors.Is.
var ErrQueryExecution = errors.New("query execution failed")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// QueryExecutionError reports a failed endpoint request: a transport
// failure, an HTTP status of 400 or above, or an undecodable response.
type QueryExecutionError struct {
	Endpoint   string
	StatusCode int    // zero when no response was received
	Body       string // start of the response body, if any
	Err        error
}

func (e *QueryExecutionError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("query on %s failed with HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("query on %s failed with HTTP %d", e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("query on %s failed: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("query on %s failed", e.Endpoint)
	}
}

// Unwrap returns the underlying cause.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrQueryExecution.
func (e *QueryExecutionError) Is(target error) bool {
	return target == ErrQueryExecution
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
