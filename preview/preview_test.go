package preview

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/occludedFaces/datasets"
)

// requirePNG checks that path holds a decodable PNG image.
func requirePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	require.False(t, img.Bounds().Empty())
}

func faces(t *testing.T) *datasets.MaterializedCollection {
	t.Helper()
	inputs := make([][]float64, 3)
	targets := make([][]float64, 3)
	for i := range inputs {
		inputs[i] = make([]float64, 16)
		targets[i] = make([]float64, 16)
		for j := range 16 {
			targets[i][j] = float64(j) / 15
			inputs[i][j] = targets[i][j]
			if j%4 == i {
				inputs[i][j] = 1
			}
		}
	}
	m, err := datasets.NewMaterializedCollection("faces", inputs, targets)
	require.NoError(t, err)
	return m
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "hist.png")
	require.NoError(t, Histogram(faces(t), 16, path))
	requirePNG(t, path)
}

func TestHistogram_Errors(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, Histogram(faces(t), 1, filepath.Join(dir, "a.png")))

	empty, err := datasets.NewMaterializedCollection("empty", nil, nil)
	require.NoError(t, err)
	require.Error(t, Histogram(empty, 8, filepath.Join(dir, "b.png")))

	src := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(src, []byte("1 2 3\n"), 0o644))
	stream := datasets.NewStreamingCollection(datasets.FileSource{Path: src}, datasets.NewLineCodec(2, 2), -1)
	err = Histogram(stream, 8, filepath.Join(dir, "c.png"))
	require.ErrorIs(t, err, datasets.ErrMalformedLine)
}

func TestFace(t *testing.T) {
	m := faces(t)
	rec, err := m.Example(1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, Face(rec.Input, "occluded", path))
	requirePNG(t, path)
}

func TestFace_NotSquare(t *testing.T) {
	err := Face(make([]float64, 15), "bad", filepath.Join(t.TempDir(), "bad.png"))
	require.ErrorIs(t, err, ErrNotSquare)

	err = Face(nil, "empty", filepath.Join(t.TempDir(), "empty.png"))
	require.ErrorIs(t, err, ErrNotSquare)
}

func TestFaceGrid(t *testing.T) {
	g := faceGrid{side: 2, values: []float64{0.1, 0.2, 0.3, 0.4}}
	c, r := g.Dims()
	require.Equal(t, 2, c)
	require.Equal(t, 2, r)
	// row 0 of the image is drawn at the top, i.e. the highest grid row
	require.Equal(t, 0.1, g.Z(0, 1))
	require.Equal(t, 0.4, g.Z(1, 0))
}

func TestBinCounts(t *testing.T) {
	b := make(binCounts, 4)
	b.add([]float64{0, 0.1, 0.25, 0.5, 0.99, 1})
	require.Equal(t, binCounts{2, 1, 1, 2}, b)

	xys := b.xys()
	require.InDelta(t, 0.125, xys[0].X, 1e-12)
	require.Equal(t, 2.0, xys[3].Y)
}
