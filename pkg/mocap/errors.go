package mocap

import "errors"

// Sentinel errors for the mocap package.
var (
	// ErrClosed indicates the client was closed and will not reconnect.
	ErrClosed = errors.New("mocap: client closed")

	// ErrInvalidMessage indicates a malformed bridge message.
	ErrInvalidMessage = errors.New("mocap: invalid message")

	// ErrBridgeUnreachable indicates the bridge describe probe failed.
	ErrBridgeUnreachable = errors.New("mocap: bridge unreachable")

	// ErrNoTrack indicates a script references a body with no track.
	ErrNoTrack = errors.New("mocap: no track for body")
)
