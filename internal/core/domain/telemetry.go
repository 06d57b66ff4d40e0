package domain

import "time"

// Dependency describes one call to an external service, as reported to
// telemetry.
type Dependency struct {
	Type          string
	Target        string
	Operation     string
	Data          string
	ResultCode    string
	Success       bool
	Duration      time.Duration
	RequestCharge float64
}
