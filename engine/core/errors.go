package core

import (
	"errors"
)

var (
	// ErrSwapchainOutOfDate is returned when the surface went stale and the
	// swapchain was rebuilt. The current frame must be skipped.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date, recreated")
	// ErrFrameInProgress is returned when a frame operation is called out of order.
	ErrFrameInProgress = errors.New("frame operation called out of order")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrUnknown         = errors.New("unknown")
)
