package web

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"github.com/banshee-data/venus.report/internal/surface"
)

func TestDistinctBands(t *testing.T) {
	assert.Equal(t, []string{"red", "green", "purple"}, distinctBands(surface.BandScale))
	assert.Nil(t, distinctBands(nil))
}

func TestAxisTicks(t *testing.T) {
	axis := surface.Axis{TickVals: []float64{0, 1, 2}, TickText: []string{"A", "B"}}
	assert.Equal(t, plot.ConstantTicks{
		{Value: 0, Label: "A"},
		{Value: 1, Label: "B"},
		{Value: 2, Label: ""},
	}, axisTicks(axis))
}

func TestBandIndexGrid(t *testing.T) {
	g := bandIndexGrid{index: [][]float64{{0, 1, 2}, {2, 1, 0}}}
	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 2.0, g.Z(2, 0))
	assert.Equal(t, 2.0, g.X(2))
	assert.Equal(t, 1.0, g.Y(1))
}

func TestRenderHeatmapPNG(t *testing.T) {
	spec, err := surface.Render("1,2,3\n3,2,1\n2,2,2")
	require.NoError(t, err)

	img, err := renderHeatmapPNG(spec)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	b := decoded.Bounds()
	assert.Equal(t, b.Dx(), b.Dy())
	assert.Positive(t, b.Dx())
}

func TestRenderHeatmapPNG_Empty(t *testing.T) {
	img, err := renderHeatmapPNG(surface.Empty())
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
}

func TestRenderHeatmapPNG_UnknownColour(t *testing.T) {
	spec, err := surface.Render("1,2\n2,1")
	require.NoError(t, err)
	spec.ColorScale = surface.ColorScale{{Position: 0, Color: "teal"}, {Position: 1, Color: "teal"}}

	_, err = renderHeatmapPNG(spec)
	assert.ErrorContains(t, err, `"teal"`)
}
