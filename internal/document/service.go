// Package document renders policy schedules and portfolio exports and
// archives schedules in object storage.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/clock"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/smallbiznis/brokerage/internal/providers/pdf"
	"github.com/smallbiznis/brokerage/internal/providers/storage"
	"github.com/smallbiznis/brokerage/internal/providers/xlsx"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	presignExpiry = 24 * time.Hour
)

type Document struct {
	Name        string
	ContentType string
	Body        []byte
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Policies      policydomain.Service
	QuotationRepo quotationdomain.Repository
	InsurerRepo   insurerdomain.Repository
	PDF           pdf.Provider
	Store         storage.Store
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	policies      policydomain.Service
	quotationRepo quotationdomain.Repository
	insurerRepo   insurerdomain.Repository
	pdf           pdf.Provider
	store         storage.Store
}

func New(p Params) *Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("document.service"),
		clock:         p.Clock,
		policies:      p.Policies,
		quotationRepo: p.QuotationRepo,
		insurerRepo:   p.InsurerRepo,
		pdf:           p.PDF,
		store:         p.Store,
	}
}

// Schedule renders the payment plan of a policy as PDF.
func (s *Service) Schedule(ctx context.Context, policyID string) (Document, error) {
	p, insurerName, err := s.load(ctx, policyID)
	if err != nil {
		return Document{}, err
	}
	body, err := s.render(ctx, p, insurerName)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Name:        p.Code + ".pdf",
		ContentType: ContentTypePDF,
		Body:        body,
	}, nil
}

// Archive stores the current schedule of a policy and returns the object
// with a presigned download URL.
func (s *Service) Archive(ctx context.Context, policyID string) (storage.Object, error) {
	p, insurerName, err := s.load(ctx, policyID)
	if err != nil {
		return storage.Object{}, err
	}
	body, err := s.render(ctx, p, insurerName)
	if err != nil {
		return storage.Object{}, err
	}

	key := storage.ScheduleKey(insurerName, p.Code, s.clock.Now())
	obj, err := s.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), ContentTypePDF)
	if err != nil {
		return storage.Object{}, err
	}
	url, err := s.store.PresignedURL(ctx, key, presignExpiry)
	if err != nil {
		s.log.Warn("failed to presign archived schedule", zap.String("key", key), zap.Error(err))
	} else {
		obj.URL = url
	}
	return obj, nil
}

// Portfolio exports the cartera report as of today.
func (s *Service) Portfolio(ctx context.Context) (Document, error) {
	today := clock.Today(s.clock)
	report, err := s.policies.PortfolioReport(ctx, today)
	if err != nil {
		return Document{}, err
	}
	var buf bytes.Buffer
	if err := xlsx.WritePortfolio(&buf, report); err != nil {
		return Document{}, fmt.Errorf("write portfolio workbook: %w", err)
	}
	return Document{
		Name:        fmt.Sprintf("cartera_%s.xlsx", today.Format("20060102")),
		ContentType: ContentTypeXLSX,
		Body:        buf.Bytes(),
	}, nil
}

func (s *Service) load(ctx context.Context, policyID string) (policydomain.Policy, string, error) {
	p, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return policydomain.Policy{}, "", err
	}
	name, err := s.insurerName(ctx, p.QuotationID)
	if err != nil {
		return policydomain.Policy{}, "", err
	}
	return p, name, nil
}

func (s *Service) insurerName(ctx context.Context, quotationID snowflake.ID) (string, error) {
	q, err := s.quotationRepo.FindByID(ctx, s.db, quotationID)
	if err != nil || q == nil {
		return "", err
	}
	insurer, err := s.insurerRepo.FindByID(ctx, s.db, q.InsurerID)
	if err != nil || insurer == nil {
		return "", err
	}
	return insurer.Name, nil
}

func (s *Service) render(ctx context.Context, p policydomain.Policy, insurerName string) ([]byte, error) {
	r, err := s.pdf.GenerateSchedule(ctx, pdf.NewScheduleData(p, insurerName, s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("render schedule %s: %w", p.Code, err)
	}
	if r == nil {
		return nil, fmt.Errorf("render schedule %s: empty document", p.Code)
	}
	return io.ReadAll(r)
}
