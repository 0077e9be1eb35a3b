package document

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/brokerage/internal/clock"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/smallbiznis/brokerage/internal/providers/pdf"
	"github.com/smallbiznis/brokerage/internal/providers/storage"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakePolicies struct {
	policydomain.Service
	policy policydomain.Policy
}

func (f fakePolicies) GetByID(_ context.Context, id string) (policydomain.Policy, error) {
	if id != f.policy.ID.String() {
		return policydomain.Policy{}, policydomain.ErrNotFound
	}
	return f.policy, nil
}

func (f fakePolicies) PortfolioReport(_ context.Context, today time.Time) (policydomain.PortfolioReport, error) {
	return policydomain.PortfolioReport{
		AsOf:           today,
		ActivePolicies: 1,
		ByCartera:      map[policydomain.CarteraStatus]int{policydomain.CarteraCurrent: 1},
		Policies:       []policydomain.Policy{f.policy},
	}, nil
}

type fakeQuotations struct {
	quotationdomain.Repository
	insurerID snowflake.ID
}

func (f fakeQuotations) FindByID(_ context.Context, _ *gorm.DB, id snowflake.ID) (*quotationdomain.Quotation, error) {
	return &quotationdomain.Quotation{ID: id, InsurerID: f.insurerID}, nil
}

type fakeInsurers struct {
	insurerdomain.Repository
}

func (fakeInsurers) FindByID(_ context.Context, _ *gorm.DB, id snowflake.ID) (*insurerdomain.Insurer, error) {
	return &insurerdomain.Insurer{ID: id, Name: "Seguros Bolívar"}, nil
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, size int64, _ string) (storage.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.Object{}, err
	}
	m.objects[key] = data
	return storage.Object{Bucket: "policy-documents", Key: key, Size: size}, nil
}

func (m *memoryStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.local/policy-documents/" + key + "?X-Amz-Signature=abc", nil
}

func setup(t *testing.T, store storage.Store) (*Service, policydomain.Policy) {
	t.Helper()
	p := policydomain.Policy{
		ID:            snowflake.ID(1001),
		Code:          "2025-03-POL-ABCD1234",
		QuotationID:   snowflake.ID(2002),
		StartDate:     time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		PaymentMedium: "PSE",
		CarteraStatus: policydomain.CarteraCurrent,
		NetPremium:    decimal.NewFromInt(1000000),
		Tax:           decimal.NewFromInt(190000),
		OtherCosts:    decimal.Zero,
		Commission:    decimal.NewFromInt(119000),
		Installments: []policydomain.Installment{
			{Number: 1, Amount: decimal.NewFromInt(1190000), DueDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), Status: policydomain.InstallmentPending},
		},
	}
	svc := New(Params{
		Log:           zap.NewNop(),
		Clock:         clock.NewFakeClock(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)),
		Policies:      fakePolicies{policy: p},
		QuotationRepo: fakeQuotations{insurerID: snowflake.ID(3003)},
		InsurerRepo:   fakeInsurers{},
		PDF:           pdf.New(),
		Store:         store,
	})
	return svc, p
}

func TestSchedule(t *testing.T) {
	svc, p := setup(t, storage.DisabledStore{})

	doc, err := svc.Schedule(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-POL-ABCD1234.pdf", doc.Name)
	assert.Equal(t, ContentTypePDF, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))

	_, err = svc.Schedule(context.Background(), "999")
	assert.ErrorIs(t, err, policydomain.ErrNotFound)
}

func TestArchive(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	svc, p := setup(t, store)

	obj, err := svc.Archive(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "schedules/seguros-bolivar/2025-03-POL-ABCD1234/20250310080000.pdf", obj.Key)
	assert.True(t, strings.HasPrefix(obj.URL, "https://minio.local/policy-documents/schedules/"))
	assert.Contains(t, store.objects, obj.Key)
}

func TestArchiveWithoutStorage(t *testing.T) {
	svc, p := setup(t, storage.DisabledStore{})

	_, err := svc.Archive(context.Background(), p.ID.String())
	assert.ErrorIs(t, err, storage.ErrDisabled)
}

func TestPortfolio(t *testing.T) {
	svc, _ := setup(t, storage.DisabledStore{})

	doc, err := svc.Portfolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cartera_20250310.xlsx", doc.Name)
	assert.Equal(t, ContentTypeXLSX, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("PK")))
}
