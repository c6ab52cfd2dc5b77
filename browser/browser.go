// Package browser drives headless rendering environment used to find out
// which page elements are visible in the initial viewport.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when page did not reach network quiescence in time.
	ErrTimeout = errors.New("page did not settle in time")
	// ErrEnvironment wraps failures of the rendering environment itself.
	ErrEnvironment = errors.New("rendering environment failure")
)

// Browser is a running rendering environment shared by all pages of a build.
type Browser interface {
	// NewPage opens new tab with requested viewport.
	NewPage(ctx context.Context, width, height int) (Page, error)
	Close() error
}

// Page is a single browser tab.
type Page interface {
	// Load renders html and waits for network quiescence no longer than
	// timeout.
	Load(ctx context.Context, html string, timeout time.Duration) error
	// MeasureViewportSkeleton returns skeleton document of elements
	// intersecting viewport of given size.
	MeasureViewportSkeleton(ctx context.Context, width, height int) (string, error)
	Close() error
}
