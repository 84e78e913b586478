package repo

import (
	"errors"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/monitor"
)

var ErrDuplicateUID = errors.New("duplicate service uid")

// ServiceStore is the read port used by the status surfaces (API, CLI).
type ServiceStore interface {
	List() []*monitor.Service
	// Get looks a service up by uid, then by name.
	Get(id string) (*monitor.Service, bool)
	Snapshots() []domain.ServiceSnapshot
}
