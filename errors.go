package drape

import "errors"

var (
	// ErrNilDevice is returned by NewRenderer when no device is given.
	ErrNilDevice = errors.New("drape: nil device")

	// ErrInvalidViewport is returned by RenderFrame for an empty viewport.
	ErrInvalidViewport = errors.New("drape: invalid viewport")

	// ErrClosed is returned by RenderFrame after Close.
	ErrClosed = errors.New("drape: renderer closed")
)
