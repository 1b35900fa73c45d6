/**
 * @description
 * Deposit reconciliation: creating a bank deposit from superbundles, the
 * legacy direct order-to-deposit path, and per-order collection-status
 * updates. An amount mismatch flags the deposit for manual reconciliation; it
 * never blocks creation. Duplicate deposit numbers fail.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/store"
)

var ErrSuperBundlesNotEligible = fmt.Errorf("one or more superbundles are not eligible")

// CreateDepositFromSuperBundles reconciles one or more superbundles into a
// bank deposit. Every superbundle must be READY_FOR_HANDOVER or
// HANDEDOVER_TO_SM; for non-admin SM actors, an assigned SM id must match the
// actor. Validation status is computed against the summed custody amount.
func (s *Service) CreateDepositFromSuperBundles(ctx context.Context, principal *domain.Principal, req domain.CreateDepositRequest) (*domain.Deposit, error) {
	if principal.Role != domain.RoleSM && !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if len(req.SuperBundleIDs) == 0 {
		return nil, ErrEmptySuperBundleSet
	}
	if strings.TrimSpace(req.DepositNumber) == "" {
		return nil, ErrDepositNumberMissing
	}

	superbundles, err := s.repo.FindSuperBundlesByIDs(ctx, req.SuperBundleIDs)
	if err != nil {
		return nil, err
	}
	if len(superbundles) != len(req.SuperBundleIDs) {
		return nil, fmt.Errorf("%w: %d of %d superbundles not found",
			ErrSuperBundlesNotEligible, len(req.SuperBundleIDs)-len(superbundles), len(req.SuperBundleIDs))
	}

	var expected int64
	var asmID *uuid.UUID
	var asmName *string
	for i := range superbundles {
		sb := &superbundles[i]
		if sb.Status != domain.SuperBundleReadyForHandover && sb.Status != domain.SuperBundleHandedOverToSM {
			return nil, fmt.Errorf("%w: superbundle %s is %s",
				ErrSuperBundlesNotEligible, sb.ID, sb.Status)
		}
		if !principal.IsAdmin() && sb.SMID != nil &&
			(principal.SMID == nil || *sb.SMID != *principal.SMID) {
			return nil, fmt.Errorf("%w: superbundle %s is assigned to another SM",
				ErrSuperBundlesNotEligible, sb.ID)
		}
		expected += sb.ExpectedAmount
		if asmID == nil {
			asmID = &sb.ASMID
			asmName = sb.ASMName
		}
	}

	deposit := &domain.Deposit{
		ID:               uuid.New(),
		DepositNumber:    strings.TrimSpace(req.DepositNumber),
		ASMID:            asmID,
		ASMName:          asmName,
		DepositedByID:    principal.UserID,
		ExpectedAmount:   expected,
		ActualAmount:     req.ActualAmount,
		ValidationStatus: validationStatus(expected, req.ActualAmount),
		SlipRef:          req.SlipRef,
		BankAccount:      req.BankAccount,
		Status:           domain.DepositCreated,
		DepositDate:      depositDateOrNow(req.DepositDate),
		TestTag:          req.TestTag,
	}

	if err := s.repo.CreateDepositFromSuperBundles(ctx, deposit, req.SuperBundleIDs); err != nil {
		return nil, err
	}

	if deposit.ValidationStatus == domain.ValidationMismatch {
		log.Printf("level=warn component=app operation=create_deposit outcome=mismatch deposit_number=%s expected=%s actual=%s",
			deposit.DepositNumber, FormatPaise(expected), FormatPaise(*req.ActualAmount))
	} else {
		log.Printf("level=info component=app operation=create_deposit deposit_number=%s expected_amount=%s superbundles=%d",
			deposit.DepositNumber, FormatPaise(expected), len(req.SuperBundleIDs))
	}
	s.publishCustodyEvent(ctx, "deposit.created", "deposit", deposit.ID, string(deposit.ValidationStatus), expected, principal.UserID)

	return deposit, nil
}

// CreateLegacyDeposit reconciles never-bundled orders directly into a deposit.
// Each order carries its own collection status; only collected orders advance
// to DEPOSITED and receive a DEPOSITED audit event, while non-collected ones
// are recorded with their reason.
func (s *Service) CreateLegacyDeposit(ctx context.Context, principal *domain.Principal, req domain.CreateLegacyDepositRequest) (*domain.Deposit, error) {
	if principal.Role != domain.RoleSM && principal.Role != domain.RoleASM && !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if len(req.Orders) == 0 {
		return nil, ErrEmptyOrderSet
	}
	if strings.TrimSpace(req.DepositNumber) == "" {
		return nil, ErrDepositNumberMissing
	}

	numbers := make([]string, 0, len(req.Orders))
	byNumber := make(map[string]domain.LegacyDepositItem, len(req.Orders))
	for _, item := range req.Orders {
		if item.Status == domain.CollectionNotCollected && (item.Reason == nil || strings.TrimSpace(*item.Reason) == "") {
			return nil, fmt.Errorf("%w: order %s is NOT_COLLECTED without a reason",
				ErrOrdersNotEligible, item.OrderNumber)
		}
		numbers = append(numbers, item.OrderNumber)
		byNumber[item.OrderNumber] = item
	}

	orders, err := s.repo.FindOrdersByNumbers(ctx, numbers)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(numbers) {
		return nil, fmt.Errorf("%w: %d of %d orders not found",
			ErrOrdersNotEligible, len(numbers)-len(orders), len(numbers))
	}

	var expected int64
	params := make([]store.LegacyDepositOrderParams, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		item := byNumber[o.OrderNumber]
		if item.Status == domain.CollectionCollected {
			if o.BundleID != nil {
				return nil, fmt.Errorf("%w: order %s belongs to bundle %s; use the superbundle path",
					ErrOrdersNotEligible, o.OrderNumber, o.BundleID)
			}
			if o.MoneyState != domain.MoneyStateCollectedByRider {
				return nil, fmt.Errorf("%w: order %s is %s, expected %s",
					ErrOrdersNotEligible, o.OrderNumber, o.MoneyState, domain.MoneyStateCollectedByRider)
			}
			expected += o.CustodyAmount()
		}
		params = append(params, store.LegacyDepositOrderParams{
			OrderID:              o.ID,
			OrderNumber:          o.OrderNumber,
			Amount:               o.CustodyAmount(),
			Status:               item.Status,
			Reason:               item.Reason,
			FutureCollectionDate: item.FutureCollectionDate,
		})
	}

	deposit := &domain.Deposit{
		ID:               uuid.New(),
		DepositNumber:    strings.TrimSpace(req.DepositNumber),
		DepositedByID:    principal.UserID,
		ASMID:            principal.ScopedASMID(),
		ASMName:          principal.Name,
		ExpectedAmount:   expected,
		ActualAmount:     req.ActualAmount,
		ValidationStatus: validationStatus(expected, req.ActualAmount),
		SlipRef:          req.SlipRef,
		BankAccount:      req.BankAccount,
		Status:           domain.DepositCreated,
		DepositDate:      depositDateOrNow(req.DepositDate),
		TestTag:          req.TestTag,
	}

	if err := s.repo.CreateLegacyDeposit(ctx, deposit, params); err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=create_legacy_deposit deposit_number=%s orders=%d expected_amount=%s validation=%s",
		deposit.DepositNumber, len(params), FormatPaise(expected), deposit.ValidationStatus)
	s.publishCustodyEvent(ctx, "deposit.created", "deposit", deposit.ID, string(deposit.ValidationStatus), expected, principal.UserID)

	return deposit, nil
}

// GetDeposit retrieves a deposit. Deposits are visible to SMs and admins, and
// to the ASM whose custody they reconcile.
func (s *Service) GetDeposit(ctx context.Context, principal *domain.Principal, id uuid.UUID) (*domain.Deposit, error) {
	deposit, err := s.repo.FindDepositByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch principal.Role {
	case domain.RoleAdmin, domain.RoleSM:
		return deposit, nil
	case domain.RoleASM:
		if principal.ASMID != nil && deposit.ASMID != nil && *deposit.ASMID == *principal.ASMID {
			return deposit, nil
		}
	}
	return nil, ErrForbidden
}

// GetDepositOrders retrieves the per-order breakdown of a visible deposit.
func (s *Service) GetDepositOrders(ctx context.Context, principal *domain.Principal, id uuid.UUID) ([]domain.DepositOrder, error) {
	if _, err := s.GetDeposit(ctx, principal, id); err != nil {
		return nil, err
	}
	return s.repo.FindDepositOrders(ctx, id)
}

// UpdateCollectionStatus records a single order's non-collection reason.
func (s *Service) UpdateCollectionStatus(ctx context.Context, principal *domain.Principal, upd domain.OrderCollectionUpdate) error {
	if principal.Role != domain.RoleASM && principal.Role != domain.RoleSM && !principal.IsAdmin() {
		return ErrForbidden
	}
	if upd.Status == domain.CollectionNotCollected && (upd.Reason == nil || strings.TrimSpace(*upd.Reason) == "") {
		return fmt.Errorf("%w: NOT_COLLECTED requires a reason", ErrOrdersNotEligible)
	}
	return s.repo.UpdateOrderCollectionStatus(ctx, upd, principal.ScopedASMID())
}

// UpdateCollectionStatusBulk applies collection-status updates for many
// orders, reporting per-order failures without aborting the rest.
func (s *Service) UpdateCollectionStatusBulk(ctx context.Context, principal *domain.Principal, updates []domain.OrderCollectionUpdate) map[string]error {
	failures := make(map[string]error)
	for _, upd := range updates {
		if err := s.UpdateCollectionStatus(ctx, principal, upd); err != nil {
			failures[upd.OrderNumber] = err
		}
	}
	return failures
}

// validationStatus compares the received amount to the expected custody
// amount through the shared tolerance. A missing actual amount leaves the
// deposit PENDING for later reconciliation.
func validationStatus(expected int64, actual *int64) domain.DepositValidation {
	if actual == nil {
		return domain.ValidationPending
	}
	if WithinTolerance(*actual, expected) {
		return domain.ValidationValidated
	}
	return domain.ValidationMismatch
}

func depositDateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
