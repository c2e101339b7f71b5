package web

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/banshee-data/venus.report/internal/surface"
)

// paletteSteps is how finely the colour scale is sampled for the visualMap.
// echarts interpolates between neighbours, so equal neighbours keep bands flat.
const paletteSteps = 101

// bandPalette samples scale at evenly spaced keys across [0,1].
func bandPalette(scale surface.ColorScale, steps int) []string {
	if steps < 2 {
		steps = 2
	}
	out := make([]string, steps)
	for i := range out {
		out[i] = scale.ColorAt(float64(i) / float64(steps-1))
	}
	return out
}

// categoryLabels pads tick text with blanks so every row or column has a category.
func categoryLabels(ticks []string, n int) []string {
	out := make([]string, n)
	copy(out, ticks)
	return out
}

// surfacePoints flattens a surface spec into [col, row, height, band] points, row by row.
func surfacePoints(spec *surface.SurfaceSpec) []opts.Chart3DData {
	if spec.IsEmpty() {
		return nil
	}
	pts := make([]opts.Chart3DData, 0, len(spec.Z)*len(spec.Z[0]))
	for i, row := range spec.Z {
		for j, v := range row {
			pts = append(pts, opts.Chart3DData{
				Value: []interface{}{j, i, v, spec.SurfaceColor[i][j]},
			})
		}
	}
	return pts
}

func newSurfaceChart(spec *surface.SurfaceSpec, assetsHost string) *charts.Surface3D {
	height := spec.Layout.Height
	if height == 0 {
		height = surface.PanelHeight
	}

	chart := charts.NewSurface3D()
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  surface.PlotTitle,
			Width:      "100%",
			Height:     fmt.Sprintf("%dpx", height),
			AssetsHost: assetsHost,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}

	if spec.IsEmpty() {
		chart.SetGlobalOptions(global...)
		return chart
	}

	scene := spec.Layout.Scene
	rows, cols := len(spec.Z), len(spec.Z[0])
	zAxis := opts.ZAxis3D{Name: scene.ZAxis.Title.Text, Type: "value"}
	if len(scene.ZAxis.Range) == 2 {
		zAxis.Min = scene.ZAxis.Range[0]
		zAxis.Max = scene.ZAxis.Range[1]
	}

	global = append(global,
		// A zero Min is dropped by omitempty; echarts then defaults min to 0.
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:      opts.Bool(spec.ShowScale),
			Min:       float32(spec.CMin),
			Max:       float32(spec.CMax),
			Dimension: "3",
			InRange:   &opts.VisualMapInRange{Color: bandPalette(spec.ColorScale, paletteSteps)},
		}),
		charts.WithXAxis3DOpts(opts.XAxis3D{
			Name: scene.XAxis.Title.Text,
			Type: "category",
			Data: categoryLabels(scene.XAxis.TickText, cols),
		}),
		charts.WithYAxis3DOpts(opts.YAxis3D{
			Name: scene.YAxis.Title.Text,
			Type: "category",
			Data: categoryLabels(scene.YAxis.TickText, rows),
		}),
		charts.WithZAxis3DOpts(zAxis),
	)
	chart.SetGlobalOptions(global...)
	// Surface3D.AddSeries registers its series as scatter3D; restore the type.
	chart.AddSeries("surface", surfacePoints(spec), func(s *charts.SingleSeries) {
		s.Type = types.ChartSurface3D
	})
	return chart
}

// renderSurfacePage renders a surface spec as a standalone echarts-gl HTML page.
// An empty spec yields a page with no series.
func renderSurfacePage(spec *surface.SurfaceSpec, assetsHost string) ([]byte, error) {
	var buf bytes.Buffer
	if err := newSurfaceChart(spec, assetsHost).Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render surface chart: %w", err)
	}
	return buf.Bytes(), nil
}
