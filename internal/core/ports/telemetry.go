package ports

import "github.com/heliumapi/helium/internal/core/domain"

type Telemetry interface {
	TrackEvent(name string)
	TrackDependency(dep domain.Dependency)
}
