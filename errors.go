package templatesync

import "errors"

// Errors returned by the public API. Per-target seek and write failures are
// deliberately NOT here: those are contained inside the fan-out and reported
// as per-target outcomes, never as a call-level error.
var (
	// ErrTargetExists is returned when attaching a preview under a key that is
	// already taken.
	ErrTargetExists = errors.New("preview target already attached under this key")

	// ErrNoSuchTarget is returned when toggling a key that was never attached.
	ErrNoSuchTarget = errors.New("no preview target attached under this key")

	// ErrMainTargetAlwaysActive is returned when a caller tries to toggle the
	// main target; it participates in every write unconditionally.
	ErrMainTargetAlwaysActive = errors.New("main preview target cannot be toggled")

	// ErrRoleMismatch is returned when a derived expansion is applied through
	// a binding of the wrong role.
	ErrRoleMismatch = errors.New("binding role does not match this selection")

	// ErrNoRenderer is returned when a render is submitted on a session that
	// was built without a renderer.
	ErrNoRenderer = errors.New("session has no renderer configured")

	// ErrRenderInProgress is returned when a render is submitted while a
	// previous one is still running.
	ErrRenderInProgress = errors.New("a render is already in progress")

	// ErrNoRenderReady is returned when downloading before a render finished.
	ErrNoRenderReady = errors.New("no finished render to download")
)
