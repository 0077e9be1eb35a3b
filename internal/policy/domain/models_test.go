package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePolicy() Policy {
	return Policy{
		StartDate:     date(2025, time.March, 1),
		EndDate:       date(2026, time.March, 1),
		CarteraStatus: CarteraCurrent,
		NetPremium:    dec("1000000"),
		Tax:           dec("190000"),
		OtherCosts:    dec("25000"),
		Commission:    dec("119000"),
		Installments: []Installment{
			{Number: 1, Amount: dec("400000"), DueDate: date(2025, time.March, 1), Status: InstallmentPaid, PaidAmount: decimal.NewNullDecimal(dec("400000"))},
			{Number: 2, Amount: dec("400000"), DueDate: date(2025, time.April, 1), Status: InstallmentOverdue},
			{Number: 3, Amount: dec("390000"), DueDate: date(2025, time.May, 1), Status: InstallmentPending},
		},
	}
}

func TestPolicyDerivedValues(t *testing.T) {
	p := samplePolicy()

	assert.True(t, p.Total().Equal(dec("1215000")))
	assert.Equal(t, 365, p.Days())
	assert.True(t, p.CommissionShare().Equal(dec("11.9")))
	assert.True(t, p.IsActive(date(2025, time.March, 1)))
	assert.True(t, p.IsActive(date(2026, time.March, 1)))
	assert.False(t, p.IsActive(date(2026, time.March, 2)))

	summary := p.Summarize()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Paid)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Overdue)
	assert.True(t, summary.PaidAmount.Equal(dec("400000")))
	assert.True(t, summary.PendingAmount.Equal(dec("790000")))
	assert.True(t, summary.PlanAmount.Equal(dec("1190000")))
}

func TestCommissionShareWithoutNetPremium(t *testing.T) {
	p := Policy{Commission: dec("100")}
	assert.True(t, p.CommissionShare().IsZero())
}

func TestNextCartera(t *testing.T) {
	p := samplePolicy()

	assert.Equal(t, CarteraPastDue, NextCartera(CarteraCurrent, p.Installments, date(2025, time.April, 10)))
	assert.Equal(t, CarteraCurrent, NextCartera(CarteraPastDue, p.Installments, date(2025, time.April, 1)))
	assert.Equal(t, CarteraCancelled, NextCartera(CarteraCancelled, p.Installments, date(2025, time.April, 10)))

	for i := range p.Installments {
		p.Installments[i].Status = InstallmentPaid
	}
	assert.Equal(t, CarteraCurrent, NextCartera(CarteraPastDue, p.Installments, date(2025, time.December, 1)))
}

func TestCancellable(t *testing.T) {
	p := samplePolicy()
	require.NoError(t, p.Cancellable(date(2025, time.June, 1)))

	err := p.Cancellable(date(2027, time.January, 1))
	assert.True(t, errors.Is(err, ErrPolicyNotCancellable))

	p.CarteraStatus = CarteraPastDue
	assert.ErrorIs(t, p.Cancellable(date(2025, time.June, 1)), ErrPolicyNotCancellable)

	p.CarteraStatus = CarteraCancelled
	assert.ErrorIs(t, p.Cancellable(date(2025, time.June, 1)), ErrPolicyNotCancellable)
}

func TestInstallmentDerivedValues(t *testing.T) {
	inst := Installment{
		ID:          snowflake.ID(42),
		Amount:      dec("100000"),
		DueDate:     date(2025, time.January, 1),
		Status:      InstallmentPending,
		PortalToken: "abc",
	}
	today := date(2025, time.January, 11)

	assert.Equal(t, -10, inst.DaysUntil(today))
	assert.True(t, inst.IsOverdue(today))
	assert.True(t, inst.Payable())
	assert.True(t, inst.Charge(today, dec("0.0015")).Equal(dec("1500")))
	assert.Equal(t, "https://pagos.example.com/pay/42?token=abc", inst.Link("https://pagos.example.com/"))

	assert.False(t, inst.IsOverdue(date(2025, time.January, 1)))
	assert.True(t, inst.Charge(date(2024, time.December, 20), dec("0.0015")).IsZero())

	inst.Status = InstallmentPaid
	assert.False(t, inst.IsOverdue(today))
	assert.False(t, inst.Payable())
	assert.True(t, inst.Charge(today, dec("0.0015")).IsZero())

	inst.PortalToken = ""
	assert.Empty(t, inst.Link("https://pagos.example.com"))
}

func TestParseCarteraStatus(t *testing.T) {
	status, err := ParseCarteraStatus("En Mora")
	require.NoError(t, err)
	assert.Equal(t, CarteraDelinquent, status)

	_, err = ParseCarteraStatus("al dia")
	assert.Error(t, err)
}
