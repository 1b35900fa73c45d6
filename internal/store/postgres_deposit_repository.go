/**
 * @description
 * PostgreSQL implementation of the deposit methods: deposit creation from
 * superbundles (linking every descendant order), the legacy direct
 * order-to-deposit path, and deposit reads.
 *
 * @notes
 * - deposit_number carries a unique constraint; duplicate submission fails
 *   with ErrDuplicateDepositNumber instead of creating a second financial
 *   record.
 * - The deposit-order join table is append-only.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

const depositColumns = `
	id, deposit_number, asm_id, asm_name, deposited_by_id, expected_amount,
	actual_amount, validation_status, slip_ref, bank_account, status,
	deposit_date, test_tag, created_at, updated_at`

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var d domain.Deposit
	err := row.Scan(
		&d.ID, &d.DepositNumber, &d.ASMID, &d.ASMName, &d.DepositedByID,
		&d.ExpectedAmount, &d.ActualAmount, &d.ValidationStatus, &d.SlipRef,
		&d.BankAccount, &d.Status, &d.DepositDate, &d.TestTag,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDepositFromSuperBundles inserts the deposit, marks every source
// superbundle INCLUDED_IN_DEPOSIT, links every descendant order (superbundle
// -> bundle -> order) into deposit_orders, advances those orders to DEPOSITED,
// and appends one DEPOSITED audit event per order. All in one transaction.
func (r *PostgresRepository) CreateDepositFromSuperBundles(ctx context.Context, dep *domain.Deposit, superbundleIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertDeposit(ctx, tx, dep); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `
		UPDATE asm_superbundles
		SET status = $1, deposit_id = $2, updated_at = NOW()
		WHERE id = ANY($3) AND status IN ($4, $5)`,
		domain.SuperBundleInDeposit, dep.ID, superbundleIDs,
		domain.SuperBundleReadyForHandover, domain.SuperBundleHandedOverToSM,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() != int64(len(superbundleIDs)) {
		return fmt.Errorf("%w: %d of %d superbundles were eligible for deposit",
			ErrStateConflict, result.RowsAffected(), len(superbundleIDs))
	}

	// Link every descendant order through the membership chain.
	_, err = tx.Exec(ctx, `
		INSERT INTO deposit_orders (id, deposit_id, order_id, amount, collection_status)
		SELECT gen_random_uuid(), $1, rbo.order_id, rbo.amount, $2
		FROM superbundle_bundles sbb
		JOIN rider_bundle_orders rbo ON rbo.bundle_id = sbb.bundle_id AND rbo.active
		WHERE sbb.superbundle_id = ANY($3)`,
		dep.ID, domain.CollectionCollected, superbundleIDs,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET money_state = $1, deposited_at = NOW(), updated_at = NOW()
		WHERE money_state = $2 AND id IN (SELECT order_id FROM deposit_orders WHERE deposit_id = $3)`,
		domain.MoneyStateDeposited, domain.MoneyStateInSuperBundle, dep.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO asm_events (id, order_id, asm_id, event_type, amount)
		SELECT gen_random_uuid(), do_.order_id, $1, $2, do_.amount
		FROM deposit_orders do_ WHERE do_.deposit_id = $3`,
		dep.ASMID, domain.ASMEventDeposited, dep.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateLegacyDeposit inserts a deposit built directly from orders that were
// never bundled. Only collected orders advance to DEPOSITED and get a
// DEPOSITED audit event; non-collected orders are recorded in the join table
// with their reason.
func (r *PostgresRepository) CreateLegacyDeposit(ctx context.Context, dep *domain.Deposit, items []LegacyDepositOrderParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertDeposit(ctx, tx, dep); err != nil {
		return err
	}

	var collectedIDs []uuid.UUID
	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO deposit_orders (id, deposit_id, order_id, amount,
				collection_status, non_collection_reason, future_collection_date)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)`,
			dep.ID, item.OrderID, item.Amount, item.Status,
			item.Reason, item.FutureCollectionDate,
		)
		if err != nil {
			return err
		}
		if item.Status == domain.CollectionCollected {
			collectedIDs = append(collectedIDs, item.OrderID)
		}
	}

	if len(collectedIDs) > 0 {
		result, err := tx.Exec(ctx, `
			UPDATE orders
			SET money_state = $1, deposited_at = NOW(), updated_at = NOW()
			WHERE id = ANY($2) AND money_state = $3`,
			domain.MoneyStateDeposited, collectedIDs, domain.MoneyStateCollectedByRider,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() != int64(len(collectedIDs)) {
			return fmt.Errorf("%w: %d of %d orders were eligible for direct deposit",
				ErrStateConflict, result.RowsAffected(), len(collectedIDs))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO asm_events (id, order_id, asm_id, event_type, amount)
			SELECT gen_random_uuid(), do_.order_id, $1, $2, do_.amount
			FROM deposit_orders do_
			WHERE do_.deposit_id = $3 AND do_.collection_status = $4`,
			dep.ASMID, domain.ASMEventDeposited, dep.ID, domain.CollectionCollected,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertDeposit(ctx context.Context, tx pgx.Tx, dep *domain.Deposit) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO deposits (id, deposit_number, asm_id, asm_name, deposited_by_id,
			expected_amount, actual_amount, validation_status, slip_ref, bank_account,
			status, deposit_date, test_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		dep.ID, dep.DepositNumber, dep.ASMID, dep.ASMName, dep.DepositedByID,
		dep.ExpectedAmount, dep.ActualAmount, dep.ValidationStatus, dep.SlipRef,
		dep.BankAccount, dep.Status, dep.DepositDate, dep.TestTag,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateDepositNumber
	}
	return err
}

// FindDepositByID retrieves a deposit with its linked-order count.
func (r *PostgresRepository) FindDepositByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`
	d, err := scanDeposit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM deposit_orders WHERE deposit_id = $1`, id,
	).Scan(&d.OrderCount)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindDepositOrders retrieves the join rows for a deposit.
func (r *PostgresRepository) FindDepositOrders(ctx context.Context, depositID uuid.UUID) ([]domain.DepositOrder, error) {
	query := `
		SELECT id, deposit_id, order_id, amount, collection_status,
		       non_collection_reason, future_collection_date, created_at
		FROM deposit_orders WHERE deposit_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, depositID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DepositOrder
	for rows.Next() {
		var o domain.DepositOrder
		err := rows.Scan(
			&o.ID, &o.DepositID, &o.OrderID, &o.Amount, &o.CollectionStatus,
			&o.NonCollectionReason, &o.FutureCollectionDate, &o.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
