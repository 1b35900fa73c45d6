/**
 * @description
 * PostgreSQL implementation of the ASM superbundle methods: creation with
 * all-or-nothing bundle membership, sealing, handover to SM, and the per-ASM
 * handover summary.
 *
 * @notes
 * - A bundle may appear in at most one superbundle, enforced by a unique index
 *   on superbundle_bundles(bundle_id). If membership insertion fails after the
 *   superbundle row is written, the transaction rolls back wholly; no orphaned
 *   superbundle survives.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

const superBundleColumns = `
	id, asm_id, asm_name, sm_id, expected_amount, breakdown, digital_signoff,
	status, deposit_id, sealed_at, handedover_at, test_tag, created_at, updated_at`

func scanSuperBundle(row pgx.Row) (*domain.ASMSuperBundle, error) {
	var sb domain.ASMSuperBundle
	err := row.Scan(
		&sb.ID, &sb.ASMID, &sb.ASMName, &sb.SMID, &sb.ExpectedAmount,
		&sb.Breakdown, &sb.DigitalSignoff, &sb.Status, &sb.DepositID,
		&sb.SealedAt, &sb.HandedOverAt, &sb.TestTag, &sb.CreatedAt, &sb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sb, nil
}

// CreateSuperBundleWithBundles inserts the superbundle, the bundle-membership
// rows, and marks every member bundle and its orders INCLUDED_IN_SUPERBUNDLE.
// Every member bundle must be HANDEDOVER_TO_ASM and owned by the same ASM at
// the moment of inclusion; any shortfall rolls the whole creation back.
func (r *PostgresRepository) CreateSuperBundleWithBundles(ctx context.Context, sb *domain.ASMSuperBundle, bundleIDs []uuid.UUID) error {
	breakdown, err := marshalBreakdown(sb.Breakdown)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO asm_superbundles (id, asm_id, asm_name, sm_id, expected_amount,
			breakdown, digital_signoff, status, test_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sb.ID, sb.ASMID, sb.ASMName, sb.SMID, sb.ExpectedAmount,
		breakdown, sb.DigitalSignoff, sb.Status, sb.TestTag,
	)
	if err != nil {
		return err
	}

	// Membership rows freeze each bundle's custody amount at inclusion time.
	_, err = tx.Exec(ctx, `
		INSERT INTO superbundle_bundles (id, superbundle_id, bundle_id, amount)
		SELECT gen_random_uuid(), $1, b.id, COALESCE(b.validated_amount, b.expected_amount)
		FROM rider_bundles b WHERE b.id = ANY($2)`,
		sb.ID, bundleIDs,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBundleAlreadyIncluded
		}
		return err
	}

	result, err := tx.Exec(ctx, `
		UPDATE rider_bundles
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3 AND asm_id = $4`,
		domain.BundleInSuperBundle, bundleIDs, domain.BundleHandedOverToASM, sb.ASMID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() != int64(len(bundleIDs)) {
		return fmt.Errorf("%w: %d of %d bundles were eligible for aggregation",
			ErrStateConflict, result.RowsAffected(), len(bundleIDs))
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET money_state = $1, updated_at = NOW()
		WHERE money_state = $2 AND bundle_id IN (
			SELECT bundle_id FROM superbundle_bundles WHERE superbundle_id = $3
		)`,
		domain.MoneyStateInSuperBundle, domain.MoneyStateHandoverToASM, sb.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindSuperBundleByID retrieves a superbundle with its member-bundle count.
func (r *PostgresRepository) FindSuperBundleByID(ctx context.Context, id uuid.UUID) (*domain.ASMSuperBundle, error) {
	query := `SELECT ` + superBundleColumns + ` FROM asm_superbundles WHERE id = $1`
	sb, err := scanSuperBundle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSuperBundleNotFound
		}
		return nil, err
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM superbundle_bundles WHERE superbundle_id = $1`, id,
	).Scan(&sb.BundleCount)
	if err != nil {
		return nil, err
	}
	return sb, nil
}

// FindSuperBundlesByIDs retrieves the superbundles for the given ids.
func (r *PostgresRepository) FindSuperBundlesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ASMSuperBundle, error) {
	query := `SELECT ` + superBundleColumns + ` FROM asm_superbundles WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ASMSuperBundle
	for rows.Next() {
		sb, err := scanSuperBundle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sb)
	}
	return out, rows.Err()
}

// ListSuperBundles returns superbundles visible to the given scope, newest
// first. The SM filter admits unassigned superbundles alongside the SM's own,
// matching the visibility rule for single reads.
func (r *PostgresRepository) ListSuperBundles(ctx context.Context, asmID, smID *uuid.UUID, opts domain.SuperBundleListOptions) ([]domain.ASMSuperBundle, error) {
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
		SELECT ` + superBundleColumns + ` FROM asm_superbundles
		WHERE ($1::uuid IS NULL OR asm_id = $1)
		  AND ($2::uuid IS NULL OR sm_id IS NULL OR sm_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.db.Query(ctx, query, asmID, smID, opts.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ASMSuperBundle
	for rows.Next() {
		sb, err := scanSuperBundle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sb)
	}
	return out, rows.Err()
}

// SealSuperBundle transitions CREATED -> READY_FOR_HANDOVER.
func (r *PostgresRepository) SealSuperBundle(ctx context.Context, id uuid.UUID, asmID *uuid.UUID) (*domain.ASMSuperBundle, error) {
	query := `
		UPDATE asm_superbundles
		SET status = $1, sealed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3 AND ($4::uuid IS NULL OR asm_id = $4)
		RETURNING ` + superBundleColumns
	sb, err := scanSuperBundle(r.db.QueryRow(ctx, query,
		domain.SuperBundleReadyForHandover, id, domain.SuperBundleCreated, asmID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifySuperBundleConflict(ctx, id, domain.SuperBundleCreated, asmID)
		}
		return nil, err
	}
	return sb, nil
}

// HandoverSuperBundle transitions READY_FOR_HANDOVER -> HANDEDOVER_TO_SM and
// assigns the receiving SM.
func (r *PostgresRepository) HandoverSuperBundle(ctx context.Context, id uuid.UUID, asmID *uuid.UUID, smID uuid.UUID) (*domain.ASMSuperBundle, error) {
	query := `
		UPDATE asm_superbundles
		SET status = $1, sm_id = $2, handedover_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4 AND ($5::uuid IS NULL OR asm_id = $5)
		RETURNING ` + superBundleColumns
	sb, err := scanSuperBundle(r.db.QueryRow(ctx, query,
		domain.SuperBundleHandedOverToSM, smID, id, domain.SuperBundleReadyForHandover, asmID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifySuperBundleConflict(ctx, id, domain.SuperBundleReadyForHandover, asmID)
		}
		return nil, err
	}
	return sb, nil
}

// HandoverSummary assembles the per-ASM view of cash awaiting handover.
func (r *PostgresRepository) HandoverSummary(ctx context.Context, asmID uuid.UUID) (*domain.HandoverSummary, error) {
	summary := &domain.HandoverSummary{ASMID: asmID}

	pending, err := r.ListBundles(ctx, nil, &asmID, domain.BundleListOptions{
		Status: string(domain.BundleReadyForHandover), Limit: 100,
	})
	if err != nil {
		return nil, err
	}
	summary.PendingBundles = pending
	for _, b := range pending {
		summary.PendingAmount += b.ExpectedAmount
	}

	query := `
		SELECT ` + superBundleColumns + ` FROM asm_superbundles
		WHERE asm_id = $1 AND status != $2
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, asmID, domain.SuperBundleInDeposit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		sb, err := scanSuperBundle(rows)
		if err != nil {
			return nil, err
		}
		summary.OpenSuperBundles = append(summary.OpenSuperBundles, *sb)
		summary.CustodyAmount += sb.ExpectedAmount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Accepted bundles not yet aggregated are also ASM custody.
	var acceptedAmount int64
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(COALESCE(validated_amount, expected_amount)), 0)
		FROM rider_bundles WHERE asm_id = $1 AND status = $2`,
		asmID, domain.BundleHandedOverToASM,
	).Scan(&acceptedAmount)
	if err != nil {
		return nil, err
	}
	summary.CustodyAmount += acceptedAmount

	return summary, nil
}

// classifySuperBundleConflict distinguishes not-found, wrong-status, and
// ownership mismatch after a guarded superbundle update matched zero rows.
func (r *PostgresRepository) classifySuperBundleConflict(ctx context.Context, id uuid.UUID, wantStatus domain.SuperBundleStatus, asmID *uuid.UUID) error {
	var status domain.SuperBundleStatus
	var ownerASM uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT status, asm_id FROM asm_superbundles WHERE id = $1`, id,
	).Scan(&status, &ownerASM)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrSuperBundleNotFound
		}
		return err
	}
	if asmID != nil && ownerASM != *asmID {
		return ErrNotOwned
	}
	if status != wantStatus {
		return fmt.Errorf("%w: superbundle is %s, expected %s", ErrStateConflict, status, wantStatus)
	}
	return ErrStateConflict
}
