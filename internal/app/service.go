/**
 * @description
 * This file contains the core of the cash-custody application service. The
 * `Service` struct orchestrates every custody operation — order ingestion,
 * rider bundling, ASM acceptance and aggregation, and deposit reconciliation —
 * coordinating between the database repository, the auth service client, and
 * the message broker.
 *
 * Key features:
 * - Resolves the acting principal once per request into a typed capability
 *   object consumed uniformly by every operation.
 * - Checks every precondition fail-fast before any write; multi-row writes are
 *   delegated to transactional repository methods so partial commits cannot
 *   happen.
 * - Publishes custody events to RabbitMQ for asynchronous consumers.
 *
 * @dependencies
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/authclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/store"
	"github.com/DhavalFatnani/cod-dashboard-sub001/pkg/authclient"
	"github.com/DhavalFatnani/cod-dashboard-sub001/pkg/rabbitmq"
)

// defaultCustodyExchange is the topic exchange custody events are published to
// unless the deployment overrides it.
const defaultCustodyExchange = "custody.events"

var (
	ErrStateConflict          = errors.New("custody state conflict")
	ErrForbidden              = errors.New("operation not permitted for this role")
	ErrEmptyOrderSet          = errors.New("at least one order is required")
	ErrEmptyBundleSet         = errors.New("at least one bundle is required")
	ErrEmptySuperBundleSet    = errors.New("at least one superbundle is required")
	ErrSignoffRequired        = errors.New("digital signoff is required")
	ErrRejectionReasonMissing = errors.New("a rejection reason is required")
	ErrInvalidDecision        = errors.New("decision must be ACCEPT or REJECT")
	ErrInvalidEventType       = errors.New("unknown rider event type")
	ErrDepositNumberMissing   = errors.New("a deposit number is required")
	ErrOrdersNotEligible      = errors.New("one or more orders are not eligible")
	ErrBundlesNotEligible     = errors.New("one or more bundles are not eligible")
	ErrIngestPaused           = errors.New("order ingestion is paused")
)

// RateLimiter is the webhook rate-limit facility. A nil limiter disables
// limiting.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for cash custody.
type Service struct {
	repo          store.Repository
	authClient    *authclient.Client
	events        rabbitmq.Publisher
	eventExchange string

	rateLimiter       RateLimiter
	webhookRatePerMin int
}

// NewService creates a new custody service instance.
func NewService(repo store.Repository, auth *authclient.Client, events rabbitmq.Publisher) *Service {
	if events == nil {
		events = &rabbitmq.EventProducerFallback{}
	}
	return &Service{
		repo:          repo,
		authClient:    auth,
		events:        events,
		eventExchange: defaultCustodyExchange,
	}
}

// SetEventExchange overrides the topic exchange custody events are published to.
func (s *Service) SetEventExchange(exchange string) {
	if exchange != "" {
		s.eventExchange = exchange
	}
}

// SetWebhookRateLimiter wires the optional redis-backed webhook limiter.
func (s *Service) SetWebhookRateLimiter(limiter RateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.webhookRatePerMin = perMinute
}

// ResolvePrincipal turns a verified bearer subject into the typed capability
// object every operation consumes. The local projection is authoritative for
// reads; on a miss the auth service is consulted and the profile cached.
func (s *Service) ResolvePrincipal(ctx context.Context, subject string) (*domain.Principal, error) {
	p, err := s.repo.FindPrincipalByAuthSubject(ctx, subject)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrPrincipalNotFound) || s.authClient == nil {
		return nil, err
	}

	profile, err := s.authClient.GetProfile(ctx, subject)
	if err != nil {
		if errors.Is(err, authclient.ErrProfileNotFound) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, err
	}

	p, err = principalFromProfile(profile)
	if err != nil {
		return nil, err
	}
	if upsertErr := s.repo.UpsertPrincipal(ctx, p); upsertErr != nil {
		log.Printf("level=warn component=app msg=\"principal cache upsert failed\" subject=%s err=%v", subject, upsertErr)
	}
	return p, nil
}

func principalFromProfile(profile *authclient.Profile) (*domain.Principal, error) {
	userID, err := uuid.Parse(profile.UserID)
	if err != nil {
		return nil, err
	}
	p := &domain.Principal{
		UserID:      userID,
		AuthSubject: profile.Subject,
		Role:        domain.Role(profile.Role),
		Name:        profile.Name,
	}
	if p.RiderID, err = parseOptionalUUID(profile.RiderID); err != nil {
		return nil, err
	}
	if p.ASMID, err = parseOptionalUUID(profile.ASMID); err != nil {
		return nil, err
	}
	if p.SMID, err = parseOptionalUUID(profile.SMID); err != nil {
		return nil, err
	}
	return p, nil
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// publishCustodyEvent fans a custody transition out to the broker. Publish
// failures are logged, never surfaced: the audit tables are the system of
// record.
func (s *Service) publishCustodyEvent(ctx context.Context, routingKey, entityType string, entityID uuid.UUID, status string, amount int64, actorID uuid.UUID) {
	payload := domain.CustodyEventPayload{
		EntityType: entityType,
		EntityID:   entityID,
		Status:     status,
		Amount:     amount,
		ActorID:    actorID,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, s.eventExchange, routingKey, payload); err != nil {
		log.Printf("level=warn component=app msg=\"custody event publish failed\" routing_key=%s entity_id=%s err=%v", routingKey, entityID, err)
	}
}
