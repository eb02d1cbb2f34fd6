// File: internal/middleware/constants.go
package middleware

// Context keys for values middleware attaches to requests.
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	RequestIDKey contextKey = "request_id"
)
