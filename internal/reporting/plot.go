package reporting

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNothingToPlot is returned when no session has a packet to draw.
var ErrNothingToPlot = errors.New("no packets to plot")

// maxLegendEntries keeps the legend from covering the plot on busy hosts.
const maxLegendEntries = 12

// GenerateScatter writes "packet size vs. time" as a PNG into dir: one
// series per session, X in seconds since the first packet of the report,
// Y the directed length.
func GenerateScatter(r Report, dir string) (string, error) {
	var origin float64
	first := true
	for _, s := range r.Sessions {
		for _, p := range s.Packets {
			t := float64(p.Timestamp.UnixNano()) / 1e9
			if first || t < origin {
				origin, first = t, false
			}
		}
	}
	if first {
		return "", ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Packet Size vs. Time (%d packets)", r.TotalPackets)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Packet Size (bytes)"
	p.Add(plotter.NewGrid())

	for i, s := range r.Sessions {
		if len(s.Packets) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Packets))
		for j, pkt := range s.Packets {
			pts[j].X = float64(pkt.Timestamp.UnixNano())/1e9 - origin
			pts[j].Y = float64(pkt.DirectedLength)
		}

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return "", err
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Color = plotutil.Color(i)
		scatter.GlyphStyle.Radius = vg.Points(2)

		p.Add(scatter)
		if i < maxLegendEntries {
			p.Legend.Add(s.Legend, scatter)
		}
	}
	p.Legend.Top = true

	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	filename := filepath.Join(dir, fmt.Sprintf("sessions_%s.png", r.GeneratedAt.Format("20060102_150405")))
	if err := p.Save(10*vg.Inch, 6*vg.Inch, filename); err != nil {
		return "", err
	}
	return filename, nil
}
