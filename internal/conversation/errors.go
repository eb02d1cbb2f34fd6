// File: internal/conversation/errors.go
package conversation

import "errors"

var (
	// ErrNoChatSelected is returned by Send when no chat is active. The
	// relay is never consulted in this case.
	ErrNoChatSelected = errors.New("no chat selected")

	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrExchangeInFlight is returned by Send while a previous exchange
	// is still awaiting its reply.
	ErrExchangeInFlight = errors.New("an exchange is already in flight")

	// ErrExchangeSuperseded is returned when the reply for an exchange
	// arrives after the session has moved to a different chat. The reply
	// is discarded.
	ErrExchangeSuperseded = errors.New("exchange superseded by chat switch")
)
