package behavior

import "errors"

// Sentinel errors for the behavior package. These surface at setup
// and retune time only; ticking never errors.
var (
	// ErrUnknownKind indicates a setup entry with an unrecognized behavior kind.
	ErrUnknownKind = errors.New("behavior: unknown behavior kind")

	// ErrUnknownProp indicates a behavior references a prop the setup never declared.
	ErrUnknownProp = errors.New("behavior: unknown prop")

	// ErrMissingField indicates a required setup field was left empty.
	ErrMissingField = errors.New("behavior: missing required field")

	// ErrDuplicateName indicates two setup entries share a name.
	ErrDuplicateName = errors.New("behavior: duplicate name")

	// ErrBadPatch indicates a retune patch could not be parsed.
	ErrBadPatch = errors.New("behavior: invalid tuning patch")
)
