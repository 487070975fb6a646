// Package preview renders dataset collections to PNG files for quick visual
// inspection: intensity histograms of whole partitions and single faces as
// heat maps.
package preview

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/occludedFaces/datasets"
)

// ErrNotSquare is returned by Face for vectors that are not a square image.
var ErrNotSquare = errors.New("vector length is not a perfect square")

// binCounts accumulates values in [0,1] into equal-width bins.
type binCounts []float64

func (b binCounts) add(vs []float64) {
	n := len(b)
	for _, v := range vs {
		i := int(v * float64(n))
		if i >= n {
			i = n - 1
		} else if i < 0 {
			i = 0
		}
		b[i]++
	}
}

// xys places each count at the center of its bin.
func (b binCounts) xys() plotter.XYs {
	w := 1 / float64(len(b))
	xys := make(plotter.XYs, len(b))
	for i, c := range b {
		xys[i].X = (float64(i) + 0.5) * w
		xys[i].Y = c
	}
	return xys
}

// Histogram reads c once and writes a histogram of its input and target
// intensities to path. Only the bin counts are kept in memory.
func Histogram(c datasets.Collection, bins int, path string) error {
	if bins < 2 {
		return errors.Errorf("need at least 2 bins, got %d", bins)
	}
	inputs, targets := make(binCounts, bins), make(binCounts, bins)
	n := 0
	for rec, err := range c.All() {
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", c.Name())
		}
		inputs.add(rec.Input)
		targets.add(rec.Target)
		n++
	}
	if n == 0 {
		return errors.Errorf("failed to plot %s: no records", c.Name())
	}

	p := plot.New()
	p.Title.Text = filepath.Base(c.Name()) + ": pixel intensities"
	p.X.Label.Text = "intensity"
	p.Y.Label.Text = "pixels"
	p.X.Min, p.X.Max = 0, 1

	in, err := plotter.NewHistogram(inputs.xys(), bins)
	if err != nil {
		return err
	}
	in.FillColor = color.RGBA{R: 200, G: 30, B: 30, A: 120}
	p.Add(in)
	p.Legend.Add("occluded", in)

	tg, err := plotter.NewHistogram(targets.xys(), bins)
	if err != nil {
		return err
	}
	tg.FillColor = color.RGBA{R: 20, G: 80, B: 200, A: 120}
	p.Add(tg)
	p.Legend.Add("clean", tg)

	return save(p, 8*vg.Inch, 6*vg.Inch, path)
}

// faceGrid lays a flattened square image out row-major with row 0 at the
// top.
type faceGrid struct {
	side   int
	values []float64
}

func (g faceGrid) Dims() (c, r int)   { return g.side, g.side }
func (g faceGrid) X(c int) float64    { return float64(c) }
func (g faceGrid) Y(r int) float64    { return float64(r) }
func (g faceGrid) Z(c, r int) float64 { return g.values[(g.side-1-r)*g.side+c] }

// Face renders one normalized image vector, such as Record.Input, as a heat
// map.
func Face(values []float64, title, path string) error {
	side := int(math.Round(math.Sqrt(float64(len(values)))))
	if side == 0 || side*side != len(values) {
		return errors.Wrapf(ErrNotSquare, "length %d", len(values))
	}

	hm := plotter.NewHeatMap(faceGrid{side: side, values: values}, palette.Heat(64, 1))
	hm.Min, hm.Max = 0, 1

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(hm)

	return save(p, 4*vg.Inch, 4*vg.Inch, path)
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}
