package pdf

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePolicy() policydomain.Policy {
	number := "AUT-778812"
	paid := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	p := policydomain.Policy{
		Code:                "2025-03-POL-ABCD1234",
		InsurerPolicyNumber: &number,
		StartDate:           time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		PaymentMedium:       "PSE",
		NetPremium:          decimal.NewFromInt(1000000),
		Tax:                 decimal.NewFromInt(190000),
		OtherCosts:          decimal.Zero,
		Installments: []policydomain.Installment{
			{Number: 1, Amount: decimal.NewFromInt(595000), DueDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), Status: policydomain.InstallmentPaid, PaidDate: &paid},
			{Number: 2, Amount: decimal.NewFromInt(595000), DueDate: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), Status: policydomain.InstallmentPending, PortalLink: "https://pagos.example.com/pay/2?token=t"},
		},
	}
	p.Summary = p.Summarize()
	return p
}

func TestNewScheduleData(t *testing.T) {
	data := NewScheduleData(samplePolicy(), "Seguros Bolívar", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "AUT-778812", data.InsurerPolicyNumber)
	assert.Equal(t, "2025-03-01 - 2026-03-01", data.CoveragePeriod)
	assert.Equal(t, "$ 1190000.00", data.TotalPremium)
	assert.Equal(t, "$ 595000.00", data.PendingAmount)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "2025-03-05", data.Items[0].PaidDate)
	assert.Empty(t, data.Items[1].PaidDate)
}

func TestGenerateSchedule(t *testing.T) {
	data := NewScheduleData(samplePolicy(), "Seguros Bolívar", time.Now())

	r, err := New().GenerateSchedule(context.Background(), data)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body[:4]))

	_, err = New().GenerateSchedule(context.Background(), ScheduleData{})
	assert.Error(t, err)
}
