package chessdto

import "fmt"

// APIError is returned by the REST client for any non-2xx response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	if e == nil {
		return "chess api error"
	}
	if e.Message != "" {
		return fmt.Sprintf("chess api error: status=%d %s", e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("chess api error: status=%d code=%s", e.Status, e.Code)
	}
	return fmt.Sprintf("chess api error: status=%d", e.Status)
}

// ErrorBody is the JSON error envelope the backend uses for 4xx/5xx responses.
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// UserMessage picks the most specific human-readable text.
func (b ErrorBody) UserMessage() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}
