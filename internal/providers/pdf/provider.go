package pdf

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
)

type Provider interface {
	GenerateSchedule(ctx context.Context, data ScheduleData) (io.Reader, error)
}

// ScheduleData is the printable payment plan of one policy. Amounts are
// pre-formatted.
type ScheduleData struct {
	PolicyCode          string
	InsurerName         string
	InsurerPolicyNumber string
	PaymentMedium       string
	CoveragePeriod      string
	IssuedAt            string

	NetPremium   string
	Tax          string
	OtherCosts   string
	TotalPremium string

	Items []ScheduleItem

	PlanTotal     string
	PaidAmount    string
	PendingAmount string
}

type ScheduleItem struct {
	Number     int
	DueDate    string
	Amount     string
	Status     string
	PaidDate   string
	PortalLink string
}

// NewScheduleData formats a derived policy for printing.
func NewScheduleData(p policydomain.Policy, insurerName string, issuedAt time.Time) ScheduleData {
	data := ScheduleData{
		PolicyCode:     p.Code,
		InsurerName:    insurerName,
		PaymentMedium:  p.PaymentMedium,
		CoveragePeriod: p.StartDate.Format(dateLayout) + " - " + p.EndDate.Format(dateLayout),
		IssuedAt:       issuedAt.Format(dateLayout),
		NetPremium:     money(p.NetPremium),
		Tax:            money(p.Tax),
		OtherCosts:     money(p.OtherCosts),
		TotalPremium:   money(p.Total()),
		PlanTotal:      money(p.Summary.PlanAmount),
		PaidAmount:     money(p.Summary.PaidAmount),
		PendingAmount:  money(p.Summary.PendingAmount),
	}
	if p.InsurerPolicyNumber != nil {
		data.InsurerPolicyNumber = *p.InsurerPolicyNumber
	}
	for _, inst := range p.Installments {
		item := ScheduleItem{
			Number:     inst.Number,
			DueDate:    inst.DueDate.Format(dateLayout),
			Amount:     money(inst.Amount),
			Status:     string(inst.Status),
			PortalLink: inst.PortalLink,
		}
		if inst.PaidDate != nil {
			item.PaidDate = inst.PaidDate.Format(dateLayout)
		}
		data.Items = append(data.Items, item)
	}
	return data
}

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return "$ " + d.StringFixed(2)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateSchedule(ctx context.Context, data ScheduleData) (io.Reader, error) {
	return nil, nil
}
