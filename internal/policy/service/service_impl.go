package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/brokerage/internal/audit/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	"github.com/smallbiznis/brokerage/internal/events"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/internal/lock"
	"github.com/smallbiznis/brokerage/internal/observability/logger"
	"github.com/smallbiznis/brokerage/internal/observability/metrics"
	"github.com/smallbiznis/brokerage/internal/policy/domain"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"github.com/smallbiznis/brokerage/internal/sequence"
	"github.com/smallbiznis/brokerage/pkg/db"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        config.Config
	RatingConfig  *config.RatingConfigHolder
	Repo          domain.Repository
	QuotationRepo quotationdomain.Repository
	InsurerRepo   insurerdomain.Repository
	Lock          *lock.PolicyLock    `optional:"true"`
	Events        events.Publisher    `optional:"true"`
	Metrics       *metrics.Metrics    `optional:"true"`
	AuditSvc      auditdomain.Service `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	portalBaseURL string
	ratingConfig  *config.RatingConfigHolder
	repo          domain.Repository
	quotationRepo quotationdomain.Repository
	insurerRepo   insurerdomain.Repository
	lock          *lock.PolicyLock
	events        events.Publisher
	metrics       *metrics.Metrics
	auditSvc      auditdomain.Service
}

func New(p Params) domain.Service {
	publisher := p.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("policy.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		portalBaseURL: p.Config.PaymentPortalURL,
		ratingConfig:  p.RatingConfig,
		repo:          p.Repo,
		quotationRepo: p.QuotationRepo,
		insurerRepo:   p.InsurerRepo,
		lock:          p.Lock,
		events:        publisher,
		metrics:       p.Metrics,
		auditSvc:      p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePolicyRequest) (domain.Policy, error) {
	quotationID, err := parseID(req.QuotationID, quotationdomain.ErrInvalidID)
	if err != nil {
		return domain.Policy{}, err
	}
	q, err := s.quotationRepo.FindByID(ctx, s.db, quotationID)
	if err != nil {
		return domain.Policy{}, err
	}
	if q == nil {
		return domain.Policy{}, quotationdomain.ErrNotFound
	}
	if q.HasPolicy {
		return domain.Policy{}, domain.ErrQuotationAlreadyIssued
	}
	if !q.CanBecomePolicy() {
		return domain.Policy{}, domain.ErrQuotationNotIssuable
	}

	var verr validation.Error
	start, startOK := parseDate(&verr, "start_date", req.StartDate, true)
	end, endOK := parseDate(&verr, "end_date", req.EndDate, true)
	if startOK && endOK && !end.After(start) {
		verr.Add("end_date", "before_start", "end_date must be after start_date")
	}
	medium := strings.TrimSpace(req.PaymentMedium)
	if medium == "" {
		verr.Add("payment_medium", "required", "payment_medium is required")
	}
	installments := 1
	if req.Installments != nil {
		installments = *req.Installments
	}
	if installments < 1 {
		verr.Add("installments", "invalid_value", "installments must be at least 1")
	}
	frequency, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		verr.Add("frequency", "invalid_value", "frequency must be one of monthly, quarterly, semiannual, annual")
	}

	premium := q.TotalPremium.Decimal
	if req.PremiumTotal != nil {
		premium = req.PremiumTotal.Round(2)
	}
	if !premium.IsPositive() {
		verr.Add("premium_total", "not_positive", "premium_total must be greater than zero")
	}
	otherCosts := decimal.Zero
	if req.OtherCosts != nil {
		otherCosts = req.OtherCosts.Round(2)
		if otherCosts.IsNegative() {
			verr.Add("other_costs", "negative", "other_costs must not be negative")
		}
	}
	if err := verr.Err(); err != nil {
		return domain.Policy{}, err
	}

	insurer, err := s.insurerRepo.FindByID(ctx, s.db, q.InsurerID)
	if err != nil {
		return domain.Policy{}, err
	}
	// Commission follows the quotation's stored premium; an override only
	// reprices the split and the schedule.
	q.Price(insurer)

	rate := decimal.Zero
	if q.FinancingPlanID != nil {
		plan, err := s.insurerRepo.FindFinancing(ctx, s.db, *q.FinancingPlanID)
		if err != nil {
			return domain.Policy{}, err
		}
		if plan != nil {
			rate = plan.MonthlyRate
		}
	}

	now := s.clock.Now().UTC()
	code, err := sequence.New(sequence.PolicyTemplate, now)
	if err != nil {
		return domain.Policy{}, err
	}
	net, tax := domain.SplitPremium(premium, s.ratingConfig.Get().Tax())
	p := domain.Policy{
		ID:            s.genID.Generate(),
		Code:          code,
		QuotationID:   q.ID,
		StartDate:     start,
		EndDate:       end,
		PaymentMedium: medium,
		Frequency:     frequency,
		CarteraStatus: domain.CarteraCurrent,
		NetPremium:    net,
		Tax:           tax,
		OtherCosts:    otherCosts,
		Commission:    q.TotalCommission,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if number := strings.TrimSpace(req.InsurerPolicyNumber); number != "" {
		p.InsurerPolicyNumber = &number
	}
	if req.GeneratePlan == nil || *req.GeneratePlan {
		p.Installments = domain.BuildSchedule(premium, installments, start, frequency, rate)
	}
	for i := range p.Installments {
		p.Installments[i].ID = s.genID.Generate()
		p.Installments[i].PolicyID = p.ID
		p.Installments[i].PortalToken = uuid.NewString()
		p.Installments[i].CreatedAt = now
		p.Installments[i].UpdatedAt = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.ExistsForQuotation(ctx, tx, q.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrQuotationAlreadyIssued
		}
		return s.repo.Insert(ctx, tx, &p)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			if exists, lookupErr := s.repo.ExistsForQuotation(ctx, s.db, q.ID); lookupErr == nil && exists {
				return domain.Policy{}, domain.ErrQuotationAlreadyIssued
			}
		}
		return domain.Policy{}, err
	}

	s.metrics.RecordPolicyIssued(ctx, string(frequency))
	s.publish(ctx, events.TypePolicyIssued, map[string]any{
		"policy_id":    p.ID.String(),
		"policy_code":  p.Code,
		"quotation_id": q.ID.String(),
		"premium":      premium.StringFixed(2),
		"installments": len(p.Installments),
	})
	s.audit(ctx, "policy.create", p.ID, map[string]any{
		"policy_code":  p.Code,
		"quotation_id": q.ID.String(),
	})
	s.policyLog(ctx, &p).Info("policy issued",
		zap.String("frequency", string(frequency)),
		zap.Int("installments", len(p.Installments)),
	)

	s.derive(&p)
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Policy, error) {
	policyID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Policy{}, err
	}
	return s.get(ctx, s.db, policyID)
}

func (s *Service) GetByCode(ctx context.Context, code string) (domain.Policy, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Policy{}, domain.ErrNotFound
	}
	p, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return domain.Policy{}, err
	}
	if p == nil {
		return domain.Policy{}, domain.ErrNotFound
	}
	s.derive(p)
	return *p, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPolicyRequest) ([]domain.Policy, error) {
	var (
		filter domain.ListPolicyFilter
		verr   validation.Error
	)
	if strings.TrimSpace(req.CarteraStatus) != "" {
		status, err := domain.ParseCarteraStatus(req.CarteraStatus)
		if err != nil {
			verr.Add("cartera_status", "invalid_value", "cartera_status must be one of Al Día, Vencida, En Mora, Cancelada")
		}
		filter.CarteraStatus = status
	}
	if from, ok := parseDate(&verr, "from", req.From, false); ok {
		filter.StartFrom = &from
	}
	if to, ok := parseDate(&verr, "to", req.To, false); ok {
		filter.StartTo = &to
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if req.ActiveOnly {
		today := clock.Today(s.clock)
		filter.ActiveOn = &today
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Policy, 0, len(items))
	for _, item := range items {
		s.derive(item)
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) UpdateCarteraStatus(ctx context.Context, id string, status string) (domain.Policy, error) {
	policyID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Policy{}, err
	}
	next, err := domain.ParseCarteraStatus(status)
	if err != nil {
		return domain.Policy{}, validation.New("cartera_status", "invalid_value", "cartera_status must be one of Al Día, Vencida, En Mora, Cancelada")
	}

	var updated domain.Policy
	err = s.lock.Do(ctx, policyID.String(), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := s.repo.FindByID(ctx, tx, policyID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrNotFound
			}
			rows, err := s.repo.UpdateCartera(ctx, tx, p.ID, p.Version, next, s.clock.Now().UTC())
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrConcurrentUpdate
			}
			updated, err = s.get(ctx, tx, policyID)
			return err
		})
	})
	if err != nil {
		return domain.Policy{}, err
	}

	s.audit(ctx, "policy.cartera", updated.ID, map[string]any{
		"cartera_status": string(updated.CarteraStatus),
	})
	return updated, nil
}

func (s *Service) RegisterPayment(ctx context.Context, req domain.RegisterPaymentRequest) (domain.Policy, error) {
	policyID, err := parseID(req.PolicyID, domain.ErrInvalidID)
	if err != nil {
		return domain.Policy{}, err
	}
	var verr validation.Error
	if req.Number < 1 {
		verr.Add("number", "invalid_value", "installment number must be at least 1")
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		verr.Add("amount", "not_positive", "amount must be greater than zero")
	}
	today := clock.Today(s.clock)
	paidDate := today
	if date, ok := parseDate(&verr, "paid_date", req.PaidDate, false); ok {
		paidDate = date
	}
	if err := verr.Err(); err != nil {
		return domain.Policy{}, err
	}
	var reference *string
	if ref := strings.TrimSpace(req.Reference); ref != "" {
		reference = &ref
	}

	var (
		updated domain.Policy
		paid    domain.PaidInstallment
	)
	err = s.lock.Do(ctx, policyID.String(), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := s.repo.FindByID(ctx, tx, policyID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrNotFound
			}
			inst := p.Installment(req.Number)
			if inst == nil {
				return domain.ErrInstallmentNotFound
			}
			if !inst.Payable() {
				return domain.ErrInstallmentNotPayable
			}

			paid = domain.PaidInstallment{
				PolicyID:  p.ID,
				Number:    inst.Number,
				Amount:    inst.Amount,
				PaidDate:  paidDate,
				Reference: reference,
			}
			if req.Amount != nil {
				paid.Amount = req.Amount.Round(2)
			}
			now := s.clock.Now().UTC()
			rows, err := s.repo.MarkInstallmentPaid(ctx, tx, paid, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrInstallmentNotPayable
			}
			inst.Status = domain.InstallmentPaid

			next := domain.NextCartera(p.CarteraStatus, p.Installments, today)
			rows, err = s.repo.UpdateCartera(ctx, tx, p.ID, p.Version, next, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrConcurrentUpdate
			}
			updated, err = s.get(ctx, tx, policyID)
			return err
		})
	})
	if err != nil {
		return domain.Policy{}, err
	}

	s.metrics.RecordPaymentRegistered(ctx, updated.PaymentMedium)
	s.publish(ctx, events.TypeInstallmentPaid, map[string]any{
		"policy_id":   updated.ID.String(),
		"policy_code": updated.Code,
		"number":      paid.Number,
		"amount":      paid.Amount.StringFixed(2),
		"paid_date":   paid.PaidDate.Format(dateLayout),
	})
	s.audit(ctx, "policy.pay", updated.ID, map[string]any{
		"number": paid.Number,
		"amount": paid.Amount.StringFixed(2),
	})
	s.policyLog(ctx, &updated).Info("installment paid",
		zap.Int("number", paid.Number),
		zap.String("cartera_status", string(updated.CarteraStatus)),
	)
	return updated, nil
}

// ListOverdue reports unpaid installments due before today without changing
// their stored status.
func (s *Service) ListOverdue(ctx context.Context, today time.Time) (domain.OverdueReport, error) {
	if today.IsZero() {
		today = clock.Today(s.clock)
	}
	today = truncateDate(today)

	items, err := s.repo.ListOverdue(ctx, s.db, today)
	if err != nil {
		return domain.OverdueReport{}, err
	}
	report := domain.OverdueReport{AsOf: today, Installments: items}
	s.summarizeOverdue(&report)
	return report, nil
}

// ReclassifyOverdue flips pending installments due before today to overdue
// and lists everything unpaid past its due date. Cartera status is left for
// the next payment to recompute. A zero today means the clock's date.
func (s *Service) ReclassifyOverdue(ctx context.Context, today time.Time) (domain.OverdueReport, error) {
	if today.IsZero() {
		today = clock.Today(s.clock)
	}
	today = truncateDate(today)

	report := domain.OverdueReport{AsOf: today}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.MarkOverdue(ctx, tx, today, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		report.Reclassified = rows
		report.Installments, err = s.repo.ListOverdue(ctx, tx, today)
		return err
	})
	if err != nil {
		return domain.OverdueReport{}, err
	}
	s.summarizeOverdue(&report)

	if report.Reclassified > 0 {
		s.metrics.RecordInstallmentsOverdue(ctx, int(report.Reclassified))
		s.publish(ctx, events.TypeInstallmentOverdue, map[string]any{
			"as_of":        today.Format(dateLayout),
			"reclassified": report.Reclassified,
			"count":        report.Count,
			"total":        report.Total.StringFixed(2),
		})
		s.log.Info("installments reclassified as overdue",
			zap.Int64("reclassified", report.Reclassified),
			zap.Int("overdue", report.Count),
		)
	}
	return report, nil
}

func (s *Service) summarizeOverdue(report *domain.OverdueReport) {
	rate := s.ratingConfig.Get().LateDaily()
	report.Total = decimal.Zero
	for i := range report.Installments {
		report.Installments[i].Derive(report.AsOf, rate, s.portalBaseURL)
		report.Total = report.Total.Add(report.Installments[i].Amount)
	}
	report.Count = len(report.Installments)
}

func (s *Service) Cancel(ctx context.Context, id string, reason string) (domain.Policy, error) {
	policyID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Policy{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Policy{}, validation.Required("reason")
	}

	var updated domain.Policy
	err = s.lock.Do(ctx, policyID.String(), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := s.repo.FindByID(ctx, tx, policyID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrNotFound
			}
			if err := p.Cancellable(clock.Today(s.clock)); err != nil {
				return err
			}
			now := s.clock.Now().UTC()
			rows, err := s.repo.Cancel(ctx, tx, p.ID, p.Version, reason, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrConcurrentUpdate
			}
			if _, err := s.repo.CancelInstallments(ctx, tx, p.ID, now); err != nil {
				return err
			}
			updated, err = s.get(ctx, tx, policyID)
			return err
		})
	})
	if err != nil {
		return domain.Policy{}, err
	}

	s.metrics.RecordPolicyCancelled(ctx)
	s.publish(ctx, events.TypePolicyCancelled, map[string]any{
		"policy_id":   updated.ID.String(),
		"policy_code": updated.Code,
		"reason":      reason,
	})
	s.audit(ctx, "policy.cancel", updated.ID, map[string]any{
		"reason": reason,
	})
	s.policyLog(ctx, &updated).Info("policy cancelled")
	return updated, nil
}

// PortfolioReport aggregates every policy whose coverage ends on or after
// today. Unpaid covers pending and overdue installments.
func (s *Service) PortfolioReport(ctx context.Context, today time.Time) (domain.PortfolioReport, error) {
	if today.IsZero() {
		today = clock.Today(s.clock)
	}
	today = truncateDate(today)

	items, err := s.repo.List(ctx, s.db, domain.ListPolicyFilter{EndingAfter: &today})
	if err != nil {
		return domain.PortfolioReport{}, err
	}

	report := domain.PortfolioReport{
		AsOf:            today,
		ByCartera:       map[domain.CarteraStatus]int{},
		TotalPremium:    decimal.Zero,
		TotalCommission: decimal.Zero,
		UnpaidAmount:    decimal.Zero,
		Policies:        make([]domain.Policy, 0, len(items)),
	}
	rate := s.ratingConfig.Get().LateDaily()
	for _, p := range items {
		p.Derive(today, rate, s.portalBaseURL)
		report.ActivePolicies++
		report.ByCartera[p.CarteraStatus]++
		report.TotalPremium = report.TotalPremium.Add(p.TotalPremium)
		report.TotalCommission = report.TotalCommission.Add(p.Commission)
		report.UnpaidInstallments += p.Summary.Pending + p.Summary.Overdue
		report.UnpaidAmount = report.UnpaidAmount.Add(p.Summary.PendingAmount)
		report.Policies = append(report.Policies, *p)
	}
	return report, nil
}

func (s *Service) get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (domain.Policy, error) {
	p, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return domain.Policy{}, err
	}
	if p == nil {
		return domain.Policy{}, domain.ErrNotFound
	}
	s.derive(p)
	return *p, nil
}

func (s *Service) policyLog(ctx context.Context, p *domain.Policy) *zap.Logger {
	return logger.WithPolicy(logger.WithContext(ctx, s.log), p.ID.String(), p.Code)
}

func (s *Service) derive(p *domain.Policy) {
	p.Derive(clock.Today(s.clock), s.ratingConfig.Get().LateDaily(), s.portalBaseURL)
}

// publish runs after commit. A broker failure is logged and does not undo
// the write.
func (s *Service) publish(ctx context.Context, eventType string, data map[string]any) {
	if err := s.events.Publish(ctx, events.New(eventType, data)); err != nil {
		s.log.Warn("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, action string, policyID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := policyID.String()
	_ = s.auditSvc.AuditLog(ctx, action, "policy", &targetID, metadata)
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

// parseDate reads a YYYY-MM-DD value into verr. ok is false when the value
// is missing or malformed.
func parseDate(verr *validation.Error, field, value string, required bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			verr.Add(field, "required", field+" is required")
		}
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		verr.Add(field, "invalid_date", field+" must be a YYYY-MM-DD date")
		return time.Time{}, false
	}
	return t, true
}

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
