package pennsieve

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	// ErrNotFound matches API errors with status 404.
	ErrNotFound = errors.New("pennsieve: resource not found")
	// ErrUnauthorized matches API errors with status 401 or 403.
	ErrUnauthorized = errors.New("pennsieve: unauthorized")
	// ErrAuthenticationFailed wraps failures while obtaining an access token.
	ErrAuthenticationFailed = errors.New("pennsieve: authentication failed")
)

// APIError is a non-success HTTP response from the Pennsieve API.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (apiError *APIError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", apiError.Operation, apiError.StatusCode, apiError.Body)
}

// Is maps status codes onto the package sentinels.
func (apiError *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return apiError.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden
	default:
		return false
	}
}

func handleResponse(response *req.Response, requestError error, operation string) error {
	if requestError != nil {
		return fmt.Errorf("%s: %w", operation, requestError)
	}

	if response.IsErrorState() {
		return &APIError{
			Operation:  operation,
			StatusCode: response.StatusCode,
			Body:       response.String(),
		}
	}

	return nil
}
