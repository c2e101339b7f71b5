package surface

import (
	"strconv"

	"gonum.org/v1/gonum/mat"
)

const (
	// MaxTicks caps the number of labelled ticks on the row and column axes.
	MaxTicks = 8

	// PanelHeight is the display panel height in pixels.
	PanelHeight = 600

	// PlotTitle is shown above the plot.
	PlotTitle = "Venus Surface Mapping"

	zAxisMax = 3.9
)

// BandScale maps colour keys to three flat bands: red, green and purple.
var BandScale = ColorScale{
	{0.0, "red"}, {0.33, "red"},
	{0.34, "green"}, {0.66, "green"},
	{0.67, "purple"}, {1.0, "purple"},
}

// BandKey maps a cell value to its colour key. 1, 2 and 3 land on 0, 0.5 and 1.
func BandKey(v float64) float64 {
	return (v - 1) / 2
}

// Render parses raw and assembles the surface spec. The returned error is
// always a *RenderError; callers decide how to present it.
func Render(raw string) (*SurfaceSpec, error) {
	grid, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Build(grid), nil
}

// Build assembles the surface spec for an already parsed, non-empty grid. Rows are
// reversed so the first input row ends up at the front of the plot.
func Build(grid Grid) *SurfaceSpec {
	z := grid.Flipped()

	var bands mat.Dense
	bands.Apply(func(_, _ int, v float64) float64 { return BandKey(v) }, z.Dense())

	r, c := bands.Dims()
	surfaceColor := make([][]float64, r)
	for i := range surfaceColor {
		surfaceColor[i] = mat.Row(nil, i, &bands)
	}

	scale := make(ColorScale, len(BandScale))
	copy(scale, BandScale)

	return &SurfaceSpec{
		Z:            z,
		SurfaceColor: surfaceColor,
		ColorScale:   scale,
		CMin:         0,
		CMax:         1,
		ShowScale:    false,
		Layout: Layout{
			Title: &Title{Text: PlotTitle},
			Scene: &Scene{
				XAxis: columnAxis(c),
				YAxis: rowAxis(r),
				ZAxis: valueAxis(),
			},
			Height: PanelHeight,
			Margin: &Margin{L: 0, R: 0, B: 0, T: 10},
		},
	}
}

// Empty is the surface spec for "render nothing".
func Empty() *SurfaceSpec {
	return &SurfaceSpec{}
}

func columnAxis(cols int) Axis {
	n := min(cols, MaxTicks)
	vals := make([]float64, n)
	text := make([]string, n)
	for i := range n {
		vals[i] = float64(i)
		text[i] = string(rune('A' + i))
	}
	return Axis{Title: AxisTitle{Text: "Column"}, TickMode: "array", TickVals: vals, TickText: text}
}

// rowAxis labels descend so the front row reads "1".
func rowAxis(rows int) Axis {
	n := min(rows, MaxTicks)
	vals := make([]float64, n)
	text := make([]string, n)
	for i := range n {
		vals[i] = float64(i)
		text[i] = strconv.Itoa(n - i)
	}
	return Axis{Title: AxisTitle{Text: "Row"}, TickMode: "array", TickVals: vals, TickText: text}
}

func valueAxis() Axis {
	return Axis{
		Title:    AxisTitle{Text: "Value"},
		TickMode: "array",
		TickVals: []float64{1, 2, 3},
		TickText: []string{"1", "2", "3"},
		Range:    []float64{0, zAxisMax},
	}
}
