package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// EstimateData carries the already-formatted figures of a scheduled-cost
// estimate. All money fields arrive as display strings; the renderer never
// does arithmetic.
type EstimateData struct {
	OrgName     string
	ClientName  string
	ServiceDate string
	Window      string
	Category    string
	BaseRate    string

	Lines []EstimateLine

	Subtotal          string
	FirstHourDiscount string
	Total             string
}

// EstimateLine is one rate tier block of the priced interval.
type EstimateLine struct {
	TierName   string
	Multiplier string
	Hours      string
	Cost       string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) GenerateEstimate(ctx context.Context, data EstimateData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Service Estimate", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New(data.OrgName, props.Text{Style: fontstyle.Bold}),
			text.New("Prepared for: "+data.ClientName, props.Text{Top: 6}),
		),
		col.New(6).Add(
			text.New("Service date: "+data.ServiceDate, props.Text{Top: 0}),
			text.New("Window: "+data.Window, props.Text{Top: 4}),
			text.New("Category: "+data.Category, props.Text{Top: 8}),
			text.New("Base rate: "+data.BaseRate+" / hour", props.Text{Top: 12}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Rate tier", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Multiplier", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Hours", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Cost", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(5, line.TierName, props.Text{Size: 9}),
			text.NewCol(2, line.Multiplier, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Hours, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, line.Cost, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	if data.FirstHourDiscount != "" {
		m.AddRow(10,
			col.New(7),
			text.NewCol(2, "First hour free", props.Text{Size: 9}),
			text.NewCol(3, "-"+data.FirstHourDiscount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, data.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
