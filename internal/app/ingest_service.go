/**
 * @description
 * Webhook ingestion: order creation from the upstream order system and rider
 * custody events. Order ingestion is idempotent on order_number; rider events
 * are appended to the audit trail and drive guarded money-state transitions.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

const webhookRateWindow = time.Minute

// RateLimitExceededError reports a webhook source that exhausted its window.
type RateLimitExceededError struct {
	RetryAfterSeconds int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("webhook rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

// IngestOrder records an inbound order. Replays of the same order_number
// return the existing order unchanged; COD orders start UNCOLLECTED and
// prepaid orders are closed immediately as NOT_APPLICABLE.
func (s *Service) IngestOrder(ctx context.Context, hook domain.OrderWebhook) (*domain.Order, bool, error) {
	if err := s.consumeWebhookBudget(ctx, "orders", hook.StoreID); err != nil {
		return nil, false, err
	}

	flags, err := s.repo.GetSimulatorFlags(ctx)
	if err != nil {
		return nil, false, err
	}
	if flags.OrderIngestPaused {
		return nil, false, ErrIngestPaused
	}

	if hook.OrderNumber == "" {
		return nil, false, fmt.Errorf("%w: order_number is required", ErrOrdersNotEligible)
	}
	paymentType := domain.PaymentType(hook.PaymentType)
	if paymentType != domain.PaymentCOD && paymentType != domain.PaymentPrepaid {
		return nil, false, fmt.Errorf("%w: unknown payment type %q", ErrOrdersNotEligible, hook.PaymentType)
	}

	order := &domain.Order{
		ID:          uuid.New(),
		OrderNumber: hook.OrderNumber,
		StoreID:     hook.StoreID,
		PaymentType: paymentType,
		OrderAmount: hook.OrderAmount,
		MoneyState:  domain.MoneyStateNotApplicable,
		TestTag:     hook.TestTag,
	}
	if paymentType == domain.PaymentCOD {
		order.MoneyState = domain.MoneyStateUncollected
		order.CODAmount = hook.OrderAmount
		if hook.CODAmount != nil {
			order.CODAmount = *hook.CODAmount
		}
		if hook.CODType != nil {
			ct := domain.CODType(*hook.CODType)
			order.CODType = &ct
		} else {
			ct := domain.CODHard
			order.CODType = &ct
		}
	}
	if order.TestTag == nil && flags.SimulationEnabled {
		order.TestTag = flags.DefaultTestTag
	}

	stored, created, err := s.repo.UpsertOrder(ctx, order)
	if err != nil {
		return nil, false, err
	}
	if !created {
		log.Printf("level=info component=app operation=ingest_order outcome=duplicate order_number=%s", stored.OrderNumber)
		return stored, false, nil
	}

	log.Printf("level=info component=app operation=ingest_order order_number=%s payment_type=%s money_state=%s",
		stored.OrderNumber, stored.PaymentType, stored.MoneyState)
	s.publishCustodyEvent(ctx, "order.created", "order", stored.ID, string(stored.MoneyState), stored.CODAmount, uuid.Nil)

	return stored, true, nil
}

// IngestRiderEvent appends a rider custody event and applies its money-state
// transition. The event determines the target state; the current state must be
// a valid predecessor or the call fails with a conflict.
func (s *Service) IngestRiderEvent(ctx context.Context, hook domain.RiderEventWebhook) (*domain.Order, error) {
	if err := s.consumeWebhookBudget(ctx, "rider-events", hook.RiderID.String()); err != nil {
		return nil, err
	}

	eventType := domain.RiderEventType(hook.EventType)
	var to domain.MoneyState
	switch eventType {
	case domain.RiderEventCollected:
		to = domain.MoneyStateCollectedByRider
	case domain.RiderEventCancelled, domain.RiderEventRTO:
		to = domain.MoneyStateCancelled
	case domain.RiderEventDispatched:
		// Dispatch is a logistics event with no custody effect; record it
		// against the current state.
		to = ""
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, hook.EventType)
	}

	ev := &domain.RiderEvent{
		ID:        uuid.New(),
		RiderID:   hook.RiderID,
		EventType: eventType,
		Amount:    hook.Amount,
	}

	order, err := s.repo.FindOrderByNumber(ctx, hook.OrderNumber)
	if err != nil {
		return nil, err
	}
	ev.OrderID = order.ID

	if to != "" {
		if err := CheckTransition(order.OrderNumber, order.MoneyState, to); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.ApplyRiderEvent(ctx, ev, hook.RiderName, to)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app operation=ingest_rider_event order_number=%s event_type=%s money_state=%s rider_id=%s",
		updated.OrderNumber, eventType, updated.MoneyState, hook.RiderID)
	routingKey := "order.event"
	if eventType == domain.RiderEventCollected {
		routingKey = "order.collected"
	}
	s.publishCustodyEvent(ctx, routingKey, "order", updated.ID, string(updated.MoneyState), updated.CustodyAmount(), hook.RiderID)

	return updated, nil
}

// consumeWebhookBudget enforces the per-source webhook rate limit when a
// limiter is configured.
func (s *Service) consumeWebhookBudget(ctx context.Context, scope, subject string) error {
	if s.rateLimiter == nil || s.webhookRatePerMin <= 0 {
		return nil
	}
	_, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, scope, subject, s.webhookRatePerMin, webhookRateWindow)
	if err != nil {
		// Limiter outages must not take webhook ingestion down with them.
		log.Printf("level=warn component=app msg=\"rate limiter unavailable, allowing request\" scope=%s err=%v", scope, err)
		return nil
	}
	if retryAfter > 0 {
		return &RateLimitExceededError{RetryAfterSeconds: retryAfter}
	}
	return nil
}
