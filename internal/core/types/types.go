package types

import "portgrab/pkg/types"

// Redirecting internal types to public pkg/types for compatibility
// New code should import "portgrab/pkg/types" directly.

type PortResult = types.PortResult
type PortStatus = types.PortStatus

var CountOpen = types.CountOpen

const (
	StatusOpen   = types.StatusOpen
	StatusClosed = types.StatusClosed
	NoBanner     = types.NoBanner
)
