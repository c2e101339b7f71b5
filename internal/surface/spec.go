package surface

import (
	"encoding/json"
	"fmt"
)

// ColorStop pins a colour at a normalised position in [0,1].
type ColorStop struct {
	Position float64
	Color    string
}

// MarshalJSON encodes the stop as a [position, colour] pair.
func (c ColorStop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Position, c.Color})
}

// UnmarshalJSON decodes a [position, colour] pair.
func (c *ColorStop) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("color stop: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Position); err != nil {
		return fmt.Errorf("color stop position: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Color); err != nil {
		return fmt.Errorf("color stop color: %w", err)
	}
	return nil
}

// ColorScale is an ordered list of stops. Adjacent stops with the same colour
// form a flat band.
type ColorScale []ColorStop

// ColorAt returns the colour of the last stop at or below key. Keys outside
// the scale are clamped to its ends.
func (s ColorScale) ColorAt(key float64) string {
	if len(s) == 0 {
		return ""
	}
	color := s[0].Color
	for _, stop := range s {
		if stop.Position > key {
			break
		}
		color = stop.Color
	}
	return color
}

// AxisTitle is the title block of a scene axis.
type AxisTitle struct {
	Text string `json:"text"`
}

// Axis describes one scene axis. Range is nil when the engine should autoscale.
type Axis struct {
	Title    AxisTitle `json:"title"`
	TickMode string    `json:"tickmode,omitempty"`
	TickVals []float64 `json:"tickvals,omitempty"`
	TickText []string  `json:"ticktext,omitempty"`
	Range    []float64 `json:"range,omitempty"`
}

// Scene groups the three axes of the 3-D plot.
type Scene struct {
	XAxis Axis `json:"xaxis"`
	YAxis Axis `json:"yaxis"`
	ZAxis Axis `json:"zaxis"`
}

// Margin is the panel margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

// Title is the figure title block.
type Title struct {
	Text string `json:"text"`
}

// Layout is the display configuration. The zero value encodes as {}.
type Layout struct {
	Title  *Title  `json:"title,omitempty"`
	Scene  *Scene  `json:"scene,omitempty"`
	Height int     `json:"height,omitempty"`
	Margin *Margin `json:"margin,omitempty"`
}

// SurfaceSpec is everything a rendering engine needs to draw the banded surface.
// Z drives height, SurfaceColor drives colour independently of height.
type SurfaceSpec struct {
	Z            [][]int     `json:"z"`
	SurfaceColor [][]float64 `json:"surfacecolor"`
	ColorScale   ColorScale  `json:"colorscale"`
	CMin         float64     `json:"cmin"`
	CMax         float64     `json:"cmax"`
	ShowScale    bool        `json:"showscale"`
	Layout       Layout      `json:"layout"`
}

// IsEmpty reports whether the spec has nothing to draw.
func (s *SurfaceSpec) IsEmpty() bool {
	return s == nil || len(s.Z) == 0
}

// Trace is a single plotly surface trace.
type Trace struct {
	Type         string      `json:"type"`
	Z            [][]int     `json:"z"`
	SurfaceColor [][]float64 `json:"surfacecolor"`
	ColorScale   ColorScale  `json:"colorscale"`
	CMin         float64     `json:"cmin"`
	CMax         float64     `json:"cmax"`
	ShowScale    bool        `json:"showscale"`
}

// Figure is a plotly figure document.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Figure converts the spec into a plotly figure. An empty spec yields a figure
// with no traces and a default layout.
func (s *SurfaceSpec) Figure() Figure {
	if s.IsEmpty() {
		return Figure{Data: []Trace{}}
	}
	return Figure{
		Data: []Trace{{
			Type:         "surface",
			Z:            s.Z,
			SurfaceColor: s.SurfaceColor,
			ColorScale:   s.ColorScale,
			CMin:         s.CMin,
			CMax:         s.CMax,
			ShowScale:    s.ShowScale,
		}},
		Layout: s.Layout,
	}
}
