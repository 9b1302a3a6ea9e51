package report

import (
	"errors"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/bilal/wifiwatch/internal/model"
)

var ErrNoSamples = errors.New("no samples to plot")

type series struct {
	title string
	unit  string
	color color.Color
	value func(model.Sample) (float64, bool)
}

var plotSeries = []series{
	{"Signal Strength", "dBm", color.RGBA{R: 31, G: 119, B: 180, A: 255}, func(s model.Sample) (float64, bool) {
		return intValue(s.SignalDbm)
	}},
	{"SNR", "dB", color.RGBA{R: 255, G: 127, B: 14, A: 255}, func(s model.Sample) (float64, bool) {
		return intValue(s.SNRDb)
	}},
	{"Gateway Ping", "ms", color.RGBA{R: 44, G: 160, B: 44, A: 255}, func(s model.Sample) (float64, bool) {
		return pingValue(s.GatewayPing)
	}},
	{"Internet Ping", "ms", color.RGBA{R: 214, G: 39, B: 40, A: 255}, func(s model.Sample) (float64, bool) {
		return pingValue(s.InternetPing)
	}},
}

func intValue(p *int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}

func pingValue(p model.PingResult) (float64, bool) {
	if p.Failed() {
		return 0, false
	}
	return *p.RTTMs, true
}

// WritePlot renders signal, SNR and both ping series as stacked PNG panels.
// Absent values are left out, so a panel shows gaps rather than zeros.
func WritePlot(path string, samples []model.Sample) (err error) {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	start := samples[0].Timestamp
	maxX := samples[len(samples)-1].Timestamp.Sub(start).Seconds()
	if maxX <= 0 {
		maxX = 1
	}

	plots := make([][]*plot.Plot, len(plotSeries))
	for i, ser := range plotSeries {
		p := plot.New()
		p.Title.Text = ser.title
		p.X.Label.Text = "Time (s)"
		p.Y.Label.Text = ser.unit
		p.X.Min, p.X.Max = 0, maxX
		p.Add(plotter.NewGrid())

		pts := make(plotter.XYs, 0, len(samples))
		for _, s := range samples {
			if v, ok := ser.value(s); ok {
				pts = append(pts, plotter.XY{X: s.Timestamp.Sub(start).Seconds(), Y: v})
			}
		}

		if len(pts) == 0 {
			p.Y.Min, p.Y.Max = 0, 1
		} else {
			line, points, err := plotter.NewLinePoints(pts)
			if err != nil {
				return err
			}
			line.Color = ser.color
			line.Width = vg.Points(1.5)
			points.Color = ser.color
			points.Radius = vg.Points(2)
			p.Add(line, points)
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(vg.Points(900), vg.Points(160*float64(len(plots))))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Points(12),
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(12),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(file)
	return err
}
