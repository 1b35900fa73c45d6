/**
 * @description
 * Simulator flag reads and versioned updates. Flags drive the order simulator
 * (default test tags, auto-collection, ingestion pause) and are only writable
 * by admins through compare-and-set.
 */

package app

import (
	"context"
	"log"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// GetSimulatorFlags returns the current simulator configuration.
func (s *Service) GetSimulatorFlags(ctx context.Context, principal *domain.Principal) (*domain.SimulatorFlags, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.GetSimulatorFlags(ctx)
}

// UpdateSimulatorFlags applies a compare-and-set update. Callers must supply
// the version they read; a stale version surfaces as a conflict so two
// operators cannot silently overwrite each other.
func (s *Service) UpdateSimulatorFlags(ctx context.Context, principal *domain.Principal, req domain.UpdateSimulatorFlagsRequest) (*domain.SimulatorFlags, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	flags, err := s.repo.UpdateSimulatorFlags(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=app operation=update_simulator_flags version=%d ingest_paused=%t simulation=%t",
		flags.Version, flags.OrderIngestPaused, flags.SimulationEnabled)
	return flags, nil
}
