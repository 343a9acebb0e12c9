package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is everything printed on a dues receipt.
type ReceiptData struct {
	OrgName    string
	OrgAddress string
	OrgEmail   string

	Number      string
	InvoiceDate string

	BillToName     string
	BillToDocument string
	BillToEmail    string

	PaymentComment string
	ServiceFrom    string
	ServiceTo      string

	Description string
	Quantity    int
	Amount      string
	Periods     []string
}

type Renderer interface {
	RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type MarotoRenderer struct{}

func New() Renderer {
	return &MarotoRenderer{}
}

func (r *MarotoRenderer) RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Recibo de cuota social", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(4).Add(
			text.New("N° "+data.Number, props.Text{Align: align.Right, Style: fontstyle.Bold}),
			text.New("Fecha: "+data.InvoiceDate, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(data.OrgName, props.Text{Style: fontstyle.Bold}),
			text.New(data.OrgAddress, props.Text{Top: 5}),
			text.New(data.OrgEmail, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Socie", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillToName, props.Text{Top: 5}),
			text.New("DNI "+data.BillToDocument, props.Text{Top: 10}),
			text.New(data.BillToEmail, props.Text{Top: 15}),
		),
	)

	m.AddRow(12,
		text.NewCol(12, fmt.Sprintf("Período de servicio: %s a %s", data.ServiceFrom, data.ServiceTo), props.Text{
			Size: 10,
			Top:  3,
		}),
	)

	m.AddRow(10,
		text.NewCol(8, "Descripción", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Cant.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Importe", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		text.NewCol(8, data.Description, props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%d", data.Quantity), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	for _, period := range data.Periods {
		m.AddRow(6,
			text.NewCol(12, "Cuota "+period, props.Text{Size: 8}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, data.Amount, props.Text{Size: 9, Align: align.Right, Style: fontstyle.Bold}),
	)

	m.AddRow(10,
		text.NewCol(12, data.PaymentComment, props.Text{Size: 8, Top: 4}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
