package finance

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CashSessionService runs the cash drawer lifecycle. At most one session
// per tenant is OPEN or REOPENED.
type CashSessionService struct {
	uow         appshared.UnitOfWork
	sessionRepo finance.CashSessionRepository
	metrics     *telemetry.BusinessMetrics
	clock       appshared.Clock
	logger      *zap.Logger
}

// NewCashSessionService creates a new CashSessionService
func NewCashSessionService(uow appshared.UnitOfWork, sessionRepo finance.CashSessionRepository) *CashSessionService {
	return &CashSessionService{
		uow:         uow,
		sessionRepo: sessionRepo,
		clock:       appshared.SystemClock,
		logger:      zap.NewNop(),
	}
}

// SetMetrics sets the business metrics recorder
func (s *CashSessionService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// SetClock sets the time source
func (s *CashSessionService) SetClock(clock appshared.Clock) {
	s.clock = clock
}

// SetLogger sets the base logger
func (s *CashSessionService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Open starts a new session unless one is already active
func (s *CashSessionService) Open(ctx context.Context, tenantID uuid.UUID, req OpenSessionRequest) (*CashSessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_session", "open",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
	)
	defer span.End()

	var session *finance.CashSession
	err := s.uow.Execute(ctx, func(repos appshared.Repositories) error {
		if err := ensureNoActive(ctx, repos, tenantID, uuid.Nil); err != nil {
			return err
		}
		cs, err := finance.OpenCashSession(tenantID, req.OperatorID, req.OpeningBalance, s.clock())
		if err != nil {
			return err
		}
		if err := repos.CashSessions().Save(ctx, cs); err != nil {
			return err
		}
		session = cs
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, session.ID.String())
	logger.Enrich(ctx, s.logger).Info("Cash session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("operator_id", session.OperatorID.String()),
		zap.String("opening_balance", session.OpeningBalance.StringFixed(2)))

	response := ToCashSessionResponse(session)
	return &response, nil
}

// Close reconciles the drawer against the point-of-sale orders placed since
// the session started
func (s *CashSessionService) Close(ctx context.Context, tenantID, sessionID uuid.UUID, req CloseSessionRequest) (*CashSessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_session", "close",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID.String()),
	)
	defer span.End()

	var session *finance.CashSession
	err := s.uow.Execute(ctx, func(repos appshared.Repositories) error {
		cs, err := repos.CashSessions().FindByIDForTenant(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		if !cs.IsActive() {
			return shared.ErrInvalidSessionTransition.
				WithDetail("status", string(cs.Status)).
				WithDetail("action", "close")
		}

		now := s.clock()
		sales, err := repos.Orders().SumByPaymentMethod(ctx, tenantID, trade.OriginPOS, cs.StartingOpen, now)
		if err != nil {
			return err
		}
		if err := cs.Close(req.CountedCashAmount, req.Notes, sales, now); err != nil {
			return err
		}
		if err := repos.CashSessions().SaveWithLock(ctx, cs); err != nil {
			return err
		}
		session = cs
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSessionClosed(ctx, tenantID, *session.Difference)
	log := logger.Enrich(ctx, s.logger).With(
		zap.String("session_id", session.ID.String()),
		zap.String("expected", session.ExpectedCashAmount.StringFixed(2)),
		zap.String("counted", session.CountedCashAmount.StringFixed(2)),
		zap.String("difference", session.Difference.StringFixed(2)),
	)
	if session.Difference.IsZero() {
		log.Info("Cash session closed")
	} else {
		log.Warn("Cash session closed with difference")
	}

	response := ToCashSessionResponse(session)
	return &response, nil
}

// Reopen puts a finalized session back in use, provided no other session is active
func (s *CashSessionService) Reopen(ctx context.Context, tenantID, sessionID uuid.UUID) (*CashSessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_session", "reopen",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID.String()),
	)
	defer span.End()

	var session *finance.CashSession
	err := s.uow.Execute(ctx, func(repos appshared.Repositories) error {
		cs, err := repos.CashSessions().FindByIDForTenant(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		if err := cs.Reopen(s.clock()); err != nil {
			return err
		}
		if err := ensureNoActive(ctx, repos, tenantID, cs.ID); err != nil {
			return err
		}
		if err := repos.CashSessions().SaveWithLock(ctx, cs); err != nil {
			return err
		}
		session = cs
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Cash session reopened", zap.String("session_id", session.ID.String()))
	response := ToCashSessionResponse(session)
	return &response, nil
}

// ensureNoActive fails with SESSION_ALREADY_OPEN when a session other than
// except is OPEN or REOPENED
func ensureNoActive(ctx context.Context, repos appshared.Repositories, tenantID, except uuid.UUID) error {
	active, err := repos.CashSessions().FindActive(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if active.ID == except {
		return nil
	}
	return shared.ErrSessionAlreadyOpen.WithDetail("session_id", active.ID.String())
}

// Current returns the active session of the tenant
func (s *CashSessionService) Current(ctx context.Context, tenantID uuid.UUID) (*CashSessionResponse, error) {
	session, err := s.sessionRepo.FindActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	response := ToCashSessionResponse(session)
	return &response, nil
}

// Get retrieves a session by ID
func (s *CashSessionService) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*CashSessionResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	response := ToCashSessionResponse(session)
	return &response, nil
}

// List retrieves a page of sessions
func (s *CashSessionService) List(ctx context.Context, tenantID uuid.UUID, filter SessionListFilter) ([]CashSessionResponse, int64, error) {
	f := filter.Filter()
	if filter.Status != "" {
		f.Filters["status"] = strings.ToUpper(filter.Status)
	}
	sessions, total, err := s.sessionRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]CashSessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = ToCashSessionResponse(&sessions[i])
	}
	return responses, total, nil
}
