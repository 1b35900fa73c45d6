/**
 * @description
 * PostgreSQL implementation of the rider-bundle methods: creation with
 * all-or-nothing membership, sealing, ASM acceptance/rejection, and listings.
 *
 * @notes
 * - Exclusive membership (an order in at most one active bundle) is enforced
 *   by a partial unique index on rider_bundle_orders(order_id) WHERE active;
 *   the guarded order update and the constraint together close the race where
 *   two concurrent creations both read "unbundled".
 * - Rejection reverts member orders to COLLECTED_BY_RIDER and clears their
 *   bundle_id inside the same transaction, then deactivates the membership
 *   rows for audit.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

const bundleColumns = `
	id, rider_id, rider_name, asm_id, expected_amount, breakdown, photo_proofs,
	digital_signoff, status, validated_amount, rejection_reason, sealed_at,
	handedover_at, rejected_at, test_tag, created_at, updated_at`

func scanBundle(row pgx.Row) (*domain.RiderBundle, error) {
	var b domain.RiderBundle
	err := row.Scan(
		&b.ID, &b.RiderID, &b.RiderName, &b.ASMID, &b.ExpectedAmount,
		&b.Breakdown, &b.PhotoProofs, &b.DigitalSignoff, &b.Status,
		&b.ValidatedAmount, &b.RejectionReason, &b.SealedAt, &b.HandedOverAt,
		&b.RejectedAt, &b.TestTag, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBundleWithOrders inserts the bundle row, the immutable membership
// rows, and moves every member order to BUNDLED. Partial success is
// disallowed: if any order fails the guarded update (state changed or another
// bundle claimed it between read and write), the whole transaction rolls back.
func (r *PostgresRepository) CreateBundleWithOrders(ctx context.Context, b *domain.RiderBundle, orderIDs []uuid.UUID) error {
	breakdown, err := marshalBreakdown(b.Breakdown)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rider_bundles (id, rider_id, rider_name, asm_id, expected_amount,
			breakdown, photo_proofs, digital_signoff, status, test_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.RiderID, b.RiderName, b.ASMID, b.ExpectedAmount,
		breakdown, b.PhotoProofs, b.DigitalSignoff, b.Status, b.TestTag,
	)
	if err != nil {
		return err
	}

	// Membership rows freeze each order's custody amount at creation time.
	_, err = tx.Exec(ctx, `
		INSERT INTO rider_bundle_orders (id, bundle_id, order_id, amount, active)
		SELECT gen_random_uuid(), $1, o.id,
		       CASE WHEN o.collected_amount > 0 THEN o.collected_amount ELSE o.cod_amount END,
		       true
		FROM orders o WHERE o.id = ANY($2)`,
		b.ID, orderIDs,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderAlreadyBundled
		}
		return err
	}

	result, err := tx.Exec(ctx, `
		UPDATE orders
		SET money_state = $1, bundle_id = $2, updated_at = NOW()
		WHERE id = ANY($3) AND money_state = $4 AND bundle_id IS NULL AND rider_id = $5`,
		domain.MoneyStateBundled, b.ID, orderIDs,
		domain.MoneyStateCollectedByRider, b.RiderID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() != int64(len(orderIDs)) {
		return fmt.Errorf("%w: %d of %d orders were eligible for bundling",
			ErrStateConflict, result.RowsAffected(), len(orderIDs))
	}

	return tx.Commit(ctx)
}

// FindBundleByID retrieves a bundle together with its member-order count.
func (r *PostgresRepository) FindBundleByID(ctx context.Context, id uuid.UUID) (*domain.RiderBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM rider_bundles WHERE id = $1`
	b, err := scanBundle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBundleNotFound
		}
		return nil, err
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM rider_bundle_orders WHERE bundle_id = $1 AND active`, id,
	).Scan(&b.OrderCount)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindBundlesByIDs retrieves the bundles for the given ids.
func (r *PostgresRepository) FindBundlesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.RiderBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM rider_bundles WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []domain.RiderBundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *b)
	}
	return bundles, rows.Err()
}

// FindBundleOrders retrieves the active member orders of a bundle.
func (r *PostgresRepository) FindBundleOrders(ctx context.Context, bundleID uuid.UUID) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders o
		WHERE o.id IN (SELECT order_id FROM rider_bundle_orders WHERE bundle_id = $1 AND active)`
	rows, err := r.db.Query(ctx, query, bundleID)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(rows)
}

// ListBundles returns bundles visible to the given scope, newest first.
func (r *PostgresRepository) ListBundles(ctx context.Context, riderID, asmID *uuid.UUID, opts domain.BundleListOptions) ([]domain.RiderBundle, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + bundleColumns + ` FROM rider_bundles
		WHERE ($1::uuid IS NULL OR rider_id = $1)
		  AND ($2::uuid IS NULL OR asm_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.db.Query(ctx, query, riderID, asmID, opts.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []domain.RiderBundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *b)
	}
	return bundles, rows.Err()
}

// SealBundle transitions CREATED -> READY_FOR_HANDOVER and freezes the bundle.
// Member orders follow in the same transaction. Non-admin riders may only seal
// their own bundles.
func (r *PostgresRepository) SealBundle(ctx context.Context, bundleID uuid.UUID, riderID *uuid.UUID) (*domain.RiderBundle, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE rider_bundles
		SET status = $1, sealed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3 AND ($4::uuid IS NULL OR rider_id = $4)
		RETURNING ` + bundleColumns
	b, err := scanBundle(tx.QueryRow(ctx, query,
		domain.BundleReadyForHandover, bundleID, domain.BundleCreated, riderID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyBundleConflict(ctx, bundleID, domain.BundleCreated, riderID, nil)
		}
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET money_state = $1, updated_at = NOW()
		WHERE bundle_id = $2 AND money_state = $3`,
		domain.MoneyStateReadyForHandover, bundleID, domain.MoneyStateBundled,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// AcceptBundle transitions READY_FOR_HANDOVER -> HANDEDOVER_TO_ASM, records
// the validated amount and the ASM's recount, pushes member orders to
// HANDOVER_TO_ASM, and appends one HANDOVER_TO_ASM audit event per order.
// An acting ASM claims an unassigned bundle; the bundle's resulting asm_id is
// what member orders inherit. acceptedBy only stamps the audit rows.
func (r *PostgresRepository) AcceptBundle(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, acceptedBy uuid.UUID, validatedAmount int64, actualBreakdown domain.Breakdown) (*domain.RiderBundle, error) {
	var actual []byte
	if actualBreakdown != nil {
		var err error
		actual, err = marshalBreakdown(actualBreakdown)
		if err != nil {
			return nil, err
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE rider_bundles
		SET status = $1, validated_amount = $2, asm_id = COALESCE(asm_id, $3),
		    actual_breakdown = COALESCE($4, actual_breakdown),
		    handedover_at = NOW(), updated_at = NOW()
		WHERE id = $5 AND status = $6 AND ($3::uuid IS NULL OR asm_id IS NULL OR asm_id = $3)
		RETURNING ` + bundleColumns
	b, err := scanBundle(tx.QueryRow(ctx, query,
		domain.BundleHandedOverToASM, validatedAmount, asmID, actual,
		bundleID, domain.BundleReadyForHandover,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyBundleConflict(ctx, bundleID, domain.BundleReadyForHandover, nil, asmID)
		}
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET money_state = $1, asm_id = $2, handover_to_asm_at = NOW(), updated_at = NOW()
		WHERE bundle_id = $3 AND money_state = $4`,
		domain.MoneyStateHandoverToASM, b.ASMID, bundleID, domain.MoneyStateReadyForHandover,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO asm_events (id, order_id, asm_id, event_type, amount)
		SELECT gen_random_uuid(), rbo.order_id, $1, $2, rbo.amount
		FROM rider_bundle_orders rbo WHERE rbo.bundle_id = $3 AND rbo.active`,
		acceptedBy, domain.ASMEventHandoverToASM, bundleID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// RejectBundle transitions READY_FOR_HANDOVER -> REJECTED and reverts every
// member order to COLLECTED_BY_RIDER with its bundle_id cleared, so the rider
// can re-bundle. Membership rows are deactivated, not deleted.
func (r *PostgresRepository) RejectBundle(ctx context.Context, bundleID uuid.UUID, asmID *uuid.UUID, reason string) (*domain.RiderBundle, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE rider_bundles
		SET status = $1, rejection_reason = $2, rejected_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4 AND ($5::uuid IS NULL OR asm_id IS NULL OR asm_id = $5)
		RETURNING ` + bundleColumns
	b, err := scanBundle(tx.QueryRow(ctx, query,
		domain.BundleRejected, reason, bundleID, domain.BundleReadyForHandover, asmID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyBundleConflict(ctx, bundleID, domain.BundleReadyForHandover, nil, asmID)
		}
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET money_state = $1, bundle_id = NULL, updated_at = NOW()
		WHERE bundle_id = $2 AND money_state IN ($3, $4)`,
		domain.MoneyStateCollectedByRider, bundleID,
		domain.MoneyStateBundled, domain.MoneyStateReadyForHandover,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE rider_bundle_orders SET active = false WHERE bundle_id = $1`, bundleID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// classifyBundleConflict distinguishes not-found, wrong-status, and ownership
// mismatch after a guarded bundle update matched zero rows.
func (r *PostgresRepository) classifyBundleConflict(ctx context.Context, bundleID uuid.UUID, wantStatus domain.BundleStatus, riderID, asmID *uuid.UUID) error {
	var status domain.BundleStatus
	var ownerRider uuid.UUID
	var ownerASM *uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT status, rider_id, asm_id FROM rider_bundles WHERE id = $1`, bundleID,
	).Scan(&status, &ownerRider, &ownerASM)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrBundleNotFound
		}
		return err
	}
	if status != wantStatus {
		return fmt.Errorf("%w: bundle is %s, expected %s", ErrStateConflict, status, wantStatus)
	}
	if riderID != nil && ownerRider != *riderID {
		return ErrNotOwned
	}
	if asmID != nil && ownerASM != nil && *ownerASM != *asmID {
		return ErrNotOwned
	}
	return ErrStateConflict
}
