package ratelimit

// Limits configures the /download rate limits
type Limits struct {
	PerClient     int64 // Requests per window for one client IP
	Global        int64 // Requests per window across all clients
	WindowSeconds int   // Fixed window length
}

// DefaultLimits is used when nothing is configured
var DefaultLimits = Limits{
	PerClient:     10,
	Global:        100,
	WindowSeconds: 60,
}

// Normalize fills unset fields from DefaultLimits
func (l Limits) Normalize() Limits {
	if l.PerClient <= 0 {
		l.PerClient = DefaultLimits.PerClient
	}
	if l.Global <= 0 {
		l.Global = DefaultLimits.Global
	}
	if l.WindowSeconds <= 0 {
		l.WindowSeconds = DefaultLimits.WindowSeconds
	}
	return l
}
