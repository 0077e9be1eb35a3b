// Package xlsx exports the cartera portfolio report as a spreadsheet.
package xlsx

import (
	"fmt"
	"io"

	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Resumen"
	policiesSheet = "Pólizas"
	dateLayout    = "2006-01-02"
)

var policyHeaders = []string{
	"Consecutivo",
	"Póliza aseguradora",
	"Inicio vigencia",
	"Fin vigencia",
	"Medio de pago",
	"Estado cartera",
	"Prima neta",
	"IVA",
	"Otros costos",
	"Prima total",
	"Comisión",
	"Cuotas",
	"Cuotas pagadas",
	"Cuotas vencidas",
	"Valor pendiente",
}

// WritePortfolio renders report as a workbook with a summary sheet and one
// row per policy.
func WritePortfolio(w io.Writer, report policydomain.PortfolioReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	summary := [][]any{
		{"Fecha de corte", report.AsOf.Format(dateLayout)},
		{"Pólizas activas", report.ActivePolicies},
		{"Al Día", report.ByCartera[policydomain.CarteraCurrent]},
		{"Vencida", report.ByCartera[policydomain.CarteraPastDue]},
		{"En Mora", report.ByCartera[policydomain.CarteraDelinquent]},
		{"Cancelada", report.ByCartera[policydomain.CarteraCancelled]},
		{"Prima total", report.TotalPremium.InexactFloat64()},
		{"Comisiones", report.TotalCommission.InexactFloat64()},
		{"Cuotas pendientes", report.UnpaidInstallments},
		{"Valor pendiente de cobro", report.UnpaidAmount.InexactFloat64()},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	index, err := f.NewSheet(policiesSheet)
	if err != nil {
		return err
	}
	for i, header := range policyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(policiesSheet, cell, header)
	}
	for i, p := range report.Policies {
		number := ""
		if p.InsurerPolicyNumber != nil {
			number = *p.InsurerPolicyNumber
		}
		row := []any{
			p.Code,
			number,
			p.StartDate.Format(dateLayout),
			p.EndDate.Format(dateLayout),
			p.PaymentMedium,
			string(p.CarteraStatus),
			p.NetPremium.InexactFloat64(),
			p.Tax.InexactFloat64(),
			p.OtherCosts.InexactFloat64(),
			p.Total().InexactFloat64(),
			p.Commission.InexactFloat64(),
			p.Summary.Total,
			p.Summary.Paid,
			p.Summary.Overdue,
			p.Summary.PendingAmount.InexactFloat64(),
		}
		if err := f.SetSheetRow(policiesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	f.SetActiveSheet(index)

	return f.Write(w)
}
