/**
 * @description
 * This file defines the simulator feature-flag record. Flags are an explicitly
 * versioned configuration row updated with compare-and-set, never ambient
 * mutable global state.
 */

package domain

import "time"

// SimulatorFlags is the versioned configuration record driving the test
// simulator. Updates must supply the version they read; a stale version is
// rejected with a conflict.
type SimulatorFlags struct {
	Version            int64     `json:"version"`
	SimulationEnabled  bool      `json:"simulation_enabled"`
	AutoCollectOrders  bool      `json:"auto_collect_orders"`
	OrderIngestPaused  bool      `json:"order_ingest_paused"`
	DefaultTestTag     *string   `json:"default_test_tag,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpdateSimulatorFlagsRequest is the DTO for the compare-and-set update.
type UpdateSimulatorFlagsRequest struct {
	ExpectedVersion   int64   `json:"expected_version"`
	SimulationEnabled bool    `json:"simulation_enabled"`
	AutoCollectOrders bool    `json:"auto_collect_orders"`
	OrderIngestPaused bool    `json:"order_ingest_paused"`
	DefaultTestTag    *string `json:"default_test_tag,omitempty"`
}
