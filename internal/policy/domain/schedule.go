package domain

import (
	"time"

	"github.com/shopspring/decimal"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
)

// AddMonthsClamped adds months to t, clamping the day to the last day of the
// target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SplitPremium separates a tax-inclusive premium into net and tax so that
// net + tax equals total exactly.
func SplitPremium(total, taxRate decimal.Decimal) (net, tax decimal.Decimal) {
	net = total.Div(decimal.NewFromInt(1).Add(taxRate)).Round(2)
	return net, total.Sub(net)
}

// BuildSchedule lays out n installments starting at start. A positive rate
// amortizes the premium with equal installments; otherwise the premium is
// split evenly and the last installment absorbs the rounding remainder.
func BuildSchedule(premium decimal.Decimal, n int, start time.Time, freq Frequency, rate decimal.Decimal) []Installment {
	if n < 1 {
		return nil
	}
	amounts := make([]decimal.Decimal, n)
	if rate.IsPositive() {
		amount := insurerdomain.Annuity(premium, rate, n)
		for i := range amounts {
			amounts[i] = amount
		}
	} else {
		amount := premium.Div(decimal.NewFromInt(int64(n))).Round(2)
		allocated := decimal.Zero
		for i := 0; i < n-1; i++ {
			amounts[i] = amount
			allocated = allocated.Add(amount)
		}
		amounts[n-1] = premium.Sub(allocated)
	}

	schedule := make([]Installment, n)
	for i := range schedule {
		schedule[i] = Installment{
			Number:  i + 1,
			Amount:  amounts[i],
			DueDate: AddMonthsClamped(start, i*freq.Months()),
			Status:  InstallmentPending,
		}
	}
	return schedule
}
