package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWritePortfolio(t *testing.T) {
	p := policydomain.Policy{
		Code:          "2025-03-POL-ABCD1234",
		StartDate:     time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		PaymentMedium: "PSE",
		CarteraStatus: policydomain.CarteraPastDue,
		NetPremium:    decimal.NewFromInt(1000000),
		Tax:           decimal.NewFromInt(190000),
		OtherCosts:    decimal.Zero,
		Commission:    decimal.NewFromInt(119000),
	}
	report := policydomain.PortfolioReport{
		AsOf:            time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC),
		ActivePolicies:  1,
		ByCartera:       map[policydomain.CarteraStatus]int{policydomain.CarteraPastDue: 1},
		TotalPremium:    decimal.NewFromInt(1190000),
		TotalCommission: decimal.NewFromInt(119000),
		UnpaidAmount:    decimal.Zero,
		Policies:        []policydomain.Policy{p},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePortfolio(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	asOf, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-15", asOf)

	pastDue, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "1", pastDue)

	code, err := f.GetCellValue(policiesSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, p.Code, code)

	status, err := f.GetCellValue(policiesSheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "Vencida", status)
}
