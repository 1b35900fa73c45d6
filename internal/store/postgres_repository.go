/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for principals, orders, custody events, and simulator flags.
 * Bundle, superbundle, and deposit methods live in their own files alongside.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - State transitions are guarded UPDATEs (`WHERE money_state = ANY(...)`);
 *   a zero-row result is re-read and classified as not-found, conflict, or
 *   ownership mismatch so concurrent losers get a precise error.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

var (
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrBundleNotFound         = errors.New("bundle not found")
	ErrSuperBundleNotFound    = errors.New("superbundle not found")
	ErrDepositNotFound        = errors.New("deposit not found")
	ErrStateConflict          = errors.New("entity is not in the required state")
	ErrNotOwned               = errors.New("record is not owned by the acting principal")
	ErrOrderAlreadyBundled    = errors.New("order already belongs to a bundle")
	ErrBundleAlreadyIncluded  = errors.New("bundle already belongs to a superbundle")
	ErrDuplicateDepositNumber = errors.New("deposit number already exists")
	ErrFlagsVersionConflict   = errors.New("simulator flags were updated concurrently")
)

// PostgresRepository is a concrete implementation of the Repository interface
// for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// isUniqueViolation reports whether err is a unique-constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const orderColumns = `
	id, order_number, store_id, payment_type, cod_type, order_amount, cod_amount,
	collected_amount, money_state, rider_id, rider_name, asm_id, asm_name,
	bundle_id, collected_at, handover_to_asm_at, deposited_at, reconciled_at,
	cancelled_at, rto_at, test_tag, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.StoreID, &o.PaymentType, &o.CODType,
		&o.OrderAmount, &o.CODAmount, &o.CollectedAmount, &o.MoneyState,
		&o.RiderID, &o.RiderName, &o.ASMID, &o.ASMName, &o.BundleID,
		&o.CollectedAt, &o.HandoverToASMAt, &o.DepositedAt, &o.ReconciledAt,
		&o.CancelledAt, &o.RTOAt, &o.TestTag, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindPrincipalByAuthSubject resolves the auth subject of a verified bearer
// credential to the internal principal profile.
func (r *PostgresRepository) FindPrincipalByAuthSubject(ctx context.Context, subject string) (*domain.Principal, error) {
	var p domain.Principal
	query := `SELECT id, auth_subject, role, rider_id, asm_id, sm_id, name FROM users WHERE auth_subject = $1`
	err := r.db.QueryRow(ctx, query, subject).Scan(
		&p.UserID, &p.AuthSubject, &p.Role, &p.RiderID, &p.ASMID, &p.SMID, &p.Name,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpsertPrincipal stores or refreshes the local projection of an auth-service
// profile, keyed on the auth subject.
func (r *PostgresRepository) UpsertPrincipal(ctx context.Context, p *domain.Principal) error {
	query := `
		INSERT INTO users (id, auth_subject, role, rider_id, asm_id, sm_id, name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (auth_subject) DO UPDATE
		SET role = EXCLUDED.role, rider_id = EXCLUDED.rider_id,
		    asm_id = EXCLUDED.asm_id, sm_id = EXCLUDED.sm_id,
		    name = EXCLUDED.name, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, p.UserID, p.AuthSubject, p.Role, p.RiderID, p.ASMID, p.SMID, p.Name)
	return err
}

// UpsertOrder inserts the order or no-ops when the order_number already
// exists, returning the persisted row either way.
func (r *PostgresRepository) UpsertOrder(ctx context.Context, o *domain.Order) (*domain.Order, bool, error) {
	query := `
		INSERT INTO orders (id, order_number, store_id, payment_type, cod_type,
			order_amount, cod_amount, money_state, test_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_number) DO NOTHING
		RETURNING ` + orderColumns
	created, err := scanOrder(r.db.QueryRow(ctx, query,
		o.ID, o.OrderNumber, o.StoreID, o.PaymentType, o.CODType,
		o.OrderAmount, o.CODAmount, o.MoneyState, o.TestTag,
	))
	if err == nil {
		return created, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}

	existing, err := r.FindOrderByNumber(ctx, o.OrderNumber)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindOrderByNumber retrieves an order by its external order number.
func (r *PostgresRepository) FindOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepository) collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// FindOrdersByIDs retrieves the orders for the given ids, in no fixed order.
func (r *PostgresRepository) FindOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(rows)
}

// FindOrdersByNumbers retrieves the orders for the given order numbers.
func (r *PostgresRepository) FindOrdersByNumbers(ctx context.Context, numbers []string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = ANY($1)`
	rows, err := r.db.Query(ctx, query, numbers)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(rows)
}

// ApplyRiderEvent appends the rider audit event and applies the corresponding
// guarded money-state transition in one transaction. The order row is only
// updated when its current state is an allowed predecessor of the target
// state; otherwise the transaction rolls back with ErrStateConflict. An empty
// target state records the event and the rider assignment without a custody
// transition.
func (r *PostgresRepository) ApplyRiderEvent(ctx context.Context, ev *domain.RiderEvent, riderName *string, to domain.MoneyState) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var updated *domain.Order
	if to == "" {
		updated, err = r.assignRider(ctx, tx, ev, riderName)
	} else {
		updated, err = r.transitionOrder(ctx, tx, ev, riderName, to)
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO rider_events (id, order_id, rider_id, event_type, amount) VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.OrderID, ev.RiderID, ev.EventType, ev.Amount,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PostgresRepository) assignRider(ctx context.Context, tx pgx.Tx, ev *domain.RiderEvent, riderName *string) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET rider_id = $1, rider_name = COALESCE($2, rider_name), updated_at = NOW()
		WHERE id = $3
		RETURNING ` + orderColumns
	updated, err := scanOrder(tx.QueryRow(ctx, query, ev.RiderID, riderName, ev.OrderID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *PostgresRepository) transitionOrder(ctx context.Context, tx pgx.Tx, ev *domain.RiderEvent, riderName *string, to domain.MoneyState) (*domain.Order, error) {
	var stamp string
	switch {
	case to == domain.MoneyStateCollectedByRider:
		stamp = "collected_at = NOW(),"
	case ev.EventType == domain.RiderEventRTO:
		stamp = "rto_at = NOW(),"
	case to == domain.MoneyStateCancelled:
		stamp = "cancelled_at = NOW(),"
	}

	query := `
		UPDATE orders
		SET money_state = $1, ` + stamp + `
		    rider_id = $2,
		    rider_name = COALESCE($3, rider_name),
		    collected_amount = CASE WHEN $4::bigint IS NOT NULL AND $1 = 'COLLECTED_BY_RIDER'
		                            THEN $4::bigint ELSE collected_amount END,
		    updated_at = NOW()
		WHERE id = $5 AND money_state = ANY($6)
		RETURNING ` + orderColumns
	predecessors := allowedPredecessors(to)
	updated, err := scanOrder(tx.QueryRow(ctx, query,
		to, ev.RiderID, riderName, ev.Amount, ev.OrderID, predecessors,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyOrderConflict(ctx, ev.OrderID)
		}
		return nil, err
	}
	return updated, nil
}

// classifyOrderConflict distinguishes a missing order from a state conflict
// after a guarded update matched zero rows.
func (r *PostgresRepository) classifyOrderConflict(ctx context.Context, orderID uuid.UUID) error {
	var state domain.MoneyState
	err := r.db.QueryRow(ctx, `SELECT money_state FROM orders WHERE id = $1`, orderID).Scan(&state)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrOrderNotFound
		}
		return err
	}
	return ErrStateConflict
}

// UpdateOrderCollectionStatus records a non-collection reason (or clears one)
// on an order. Non-admin ASMs may only touch orders assigned to them.
func (r *PostgresRepository) UpdateOrderCollectionStatus(ctx context.Context, upd domain.OrderCollectionUpdate, asmID *uuid.UUID) error {
	query := `
		UPDATE orders
		SET collection_status = $1, non_collection_reason = $2,
		    future_collection_date = $3, updated_at = NOW()
		WHERE order_number = $4 AND ($5::uuid IS NULL OR asm_id = $5)
	`
	result, err := r.db.Exec(ctx, query, upd.Status, upd.Reason, upd.FutureCollectionDate, upd.OrderNumber, asmID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		if _, findErr := r.FindOrderByNumber(ctx, upd.OrderNumber); findErr != nil {
			return findErr
		}
		return ErrNotOwned
	}
	return nil
}

// GetSimulatorFlags returns the single versioned simulator configuration row.
func (r *PostgresRepository) GetSimulatorFlags(ctx context.Context) (*domain.SimulatorFlags, error) {
	var f domain.SimulatorFlags
	query := `
		SELECT version, simulation_enabled, auto_collect_orders, order_ingest_paused,
		       default_test_tag, updated_at
		FROM simulator_flags WHERE singleton = true
	`
	err := r.db.QueryRow(ctx, query).Scan(
		&f.Version, &f.SimulationEnabled, &f.AutoCollectOrders,
		&f.OrderIngestPaused, &f.DefaultTestTag, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateSimulatorFlags applies a compare-and-set update keyed on the version
// the caller read. A concurrent writer wins the race; the loser observes
// ErrFlagsVersionConflict and must re-read.
func (r *PostgresRepository) UpdateSimulatorFlags(ctx context.Context, req domain.UpdateSimulatorFlagsRequest) (*domain.SimulatorFlags, error) {
	var f domain.SimulatorFlags
	query := `
		UPDATE simulator_flags
		SET version = version + 1, simulation_enabled = $1, auto_collect_orders = $2,
		    order_ingest_paused = $3, default_test_tag = $4, updated_at = NOW()
		WHERE singleton = true AND version = $5
		RETURNING version, simulation_enabled, auto_collect_orders, order_ingest_paused,
		          default_test_tag, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		req.SimulationEnabled, req.AutoCollectOrders, req.OrderIngestPaused,
		req.DefaultTestTag, req.ExpectedVersion,
	).Scan(
		&f.Version, &f.SimulationEnabled, &f.AutoCollectOrders,
		&f.OrderIngestPaused, &f.DefaultTestTag, &f.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrFlagsVersionConflict
		}
		return nil, err
	}
	return &f, nil
}

// allowedPredecessors converts the domain transition table into the text array
// the guarded UPDATE matches money_state against.
func allowedPredecessors(to domain.MoneyState) []string {
	states := domain.MoneyStatePredecessors(to)
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// marshalBreakdown serializes a denomination breakdown for a JSONB column.
func marshalBreakdown(b domain.Breakdown) ([]byte, error) {
	if b == nil {
		b = domain.Breakdown{}
	}
	return json.Marshal(b)
}
