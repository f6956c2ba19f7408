package chat

import "errors"

var (
	// ErrStoreDenied marks a permission/authorization failure at the record
	// store. It implies a configuration problem, not a transient fault.
	ErrStoreDenied = errors.New("chat: record store access denied")

	// ErrStoreUnavailable marks a transient record store fault (network,
	// missing schema). Callers surface it and do not retry automatically.
	ErrStoreUnavailable = errors.New("chat: record store unavailable")

	// ErrEmptyBody is returned for empty or whitespace-only message bodies.
	ErrEmptyBody = errors.New("chat: message body is empty")

	// ErrBodyTooLong is returned when a body exceeds MaxBodyLen.
	ErrBodyTooLong = errors.New("chat: message body exceeds length bound")
)
