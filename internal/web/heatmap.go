package web

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/venus.report/internal/surface"
)

const heatmapSize = 6 * vg.Inch

// bandColors maps the colour names used by surface.BandScale to RGBA.
var bandColors = map[string]color.Color{
	"red":    color.RGBA{R: 255, A: 255},
	"green":  color.RGBA{G: 128, A: 255},
	"purple": color.RGBA{R: 128, B: 128, A: 255},
}

// bandIndexGrid exposes the band of every cell as a palette index so the
// heatmap colours match ColorScale.ColorAt exactly.
type bandIndexGrid struct {
	index [][]float64
}

func (g bandIndexGrid) Dims() (c, r int) { return len(g.index[0]), len(g.index) }
func (g bandIndexGrid) Z(c, r int) float64 { return g.index[r][c] }
func (g bandIndexGrid) X(c int) float64    { return float64(c) }
func (g bandIndexGrid) Y(r int) float64    { return float64(r) }

// bandPaletteColors lists the distinct colours of scale in order.
type bandPaletteColors []color.Color

func (p bandPaletteColors) Colors() []color.Color { return p }

// distinctBands returns the scale's colour names in order, merging repeats.
func distinctBands(scale surface.ColorScale) []string {
	var names []string
	for _, stop := range scale {
		if len(names) == 0 || names[len(names)-1] != stop.Color {
			names = append(names, stop.Color)
		}
	}
	return names
}

func axisTicks(axis surface.Axis) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, 0, len(axis.TickVals))
	for i, v := range axis.TickVals {
		label := ""
		if i < len(axis.TickText) {
			label = axis.TickText[i]
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: label})
	}
	return ticks
}

// renderHeatmapPNG draws a top-down view of the colour bands. An empty spec
// produces a titled, empty plot.
func renderHeatmapPNG(spec *surface.SurfaceSpec) ([]byte, error) {
	p := plot.New()
	p.Title.Text = surface.PlotTitle

	if !spec.IsEmpty() {
		names := distinctBands(spec.ColorScale)
		pal := make(bandPaletteColors, len(names))
		pos := make(map[string]int, len(names))
		for i, name := range names {
			c, ok := bandColors[name]
			if !ok {
				return nil, fmt.Errorf("unknown band colour %q", name)
			}
			pal[i] = c
			pos[name] = i
		}

		index := make([][]float64, len(spec.SurfaceColor))
		for i, row := range spec.SurfaceColor {
			index[i] = make([]float64, len(row))
			for j, key := range row {
				index[i][j] = float64(pos[spec.ColorScale.ColorAt(key)])
			}
		}

		h := plotter.NewHeatMap(bandIndexGrid{index: index}, pal)
		h.Min = 0
		h.Max = float64(max(len(pal)-1, 1))
		p.Add(h)

		if scene := spec.Layout.Scene; scene != nil {
			p.X.Label.Text = scene.XAxis.Title.Text
			p.Y.Label.Text = scene.YAxis.Title.Text
			p.X.Tick.Marker = axisTicks(scene.XAxis)
			p.Y.Tick.Marker = axisTicks(scene.YAxis)
		}
	}

	wt, err := p.WriterTo(heatmapSize, heatmapSize, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
