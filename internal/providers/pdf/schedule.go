package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateSchedule(ctx context.Context, data ScheduleData) (io.Reader, error) {
	if data.PolicyCode == "" {
		return nil, fmt.Errorf("schedule pdf: policy code is required")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Plan de pagos", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.PolicyCode, props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Aseguradora: "+data.InsurerName, props.Text{Top: 0}),
			text.New("Póliza aseguradora: "+data.InsurerPolicyNumber, props.Text{Top: 5}),
			text.New("Medio de pago: "+data.PaymentMedium, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Vigencia: "+data.CoveragePeriod, props.Text{Top: 0, Align: align.Right}),
			text.New("Emitido: "+data.IssuedAt, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(3, "Prima neta", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "IVA", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Otros costos", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Prima total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		text.NewCol(3, data.NetPremium, props.Text{Size: 9}),
		text.NewCol(3, data.Tax, props.Text{Size: 9}),
		text.NewCol(3, data.OtherCosts, props.Text{Size: 9}),
		text.NewCol(3, data.TotalPremium, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		text.NewCol(1, "#", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Fecha máxima", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Valor", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Estado", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Center}),
		text.NewCol(3, "Fecha de pago", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(1, fmt.Sprintf("%d", item.Number), props.Text{Size: 9}),
			text.NewCol(3, item.DueDate, props.Text{Size: 9}),
			text.NewCol(3, item.Amount, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Status, props.Text{Size: 9, Align: align.Center}),
			text.NewCol(3, item.PaidDate, props.Text{Size: 9, Align: align.Right}),
		)
		if item.PortalLink != "" && item.PaidDate == "" {
			m.AddRow(6,
				col.New(1),
				text.NewCol(11, item.PortalLink, props.Text{Size: 7, Hyperlink: &item.PortalLink}),
			)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total plan", props.Text{Size: 9, Top: 3}),
		text.NewCol(2, data.PlanTotal, props.Text{Size: 9, Top: 3, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Pagado", props.Text{Size: 9}),
		text.NewCol(2, data.PaidAmount, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Pendiente", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, data.PendingAmount, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
