package svg

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgraster/pkg/graphics"
	"svgraster/pkg/viewport"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" id="root" width="200" height="10cm"
     viewBox="0 0 100 50" preserveAspectRatio="xMinYMin slice">
  <title> Sample &amp; test </title>
  <view id="left" viewBox="0 0 50 50"/>
  <view id="stretched" preserveAspectRatio="none"/>
  <g id="group"><rect id="box" x="0" y="0" width="10" height="10"/></g>
</svg>`

func TestParseRoot(t *testing.T) {
	doc, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, Length{200, UnitNone}, doc.Width)
	assert.Equal(t, Length{10, UnitCm}, doc.Height)
	require.NotNil(t, doc.ViewBox)
	assert.Equal(t, ViewBox{0, 0, 100, 50}, *doc.ViewBox)
	assert.Equal(t, PreserveAspectRatio{Align: AlignXMinYMin, Slice: true}, doc.PreserveAspectRatio)
	assert.Equal(t, "Sample & test", doc.Title)

	size := doc.Size(DefaultViewport)
	assert.Equal(t, 200.0, size.Width)
	assert.InDelta(t, 10*96/2.54, size.Height, 1e-9)

	views := doc.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "left", views[0].ID)
	assert.Equal(t, "stretched", views[1].ID)

	assert.True(t, doc.HasID("box"))
	assert.True(t, doc.HasID("root"))
	assert.False(t, doc.HasID("missing"))
	assert.Equal(t, []byte(sample), doc.Source())
}

func TestParseDefaults(t *testing.T) {
	doc, err := ParseBytes([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	require.NoError(t, err)

	assert.Nil(t, doc.ViewBox)
	assert.Equal(t, PreserveAspectRatio{}, doc.PreserveAspectRatio)
	assert.Equal(t, viewport.Size{Width: 400, Height: 400}, doc.Size(DefaultViewport))
	assert.Equal(t, viewport.Size{Width: 32, Height: 64}, doc.Size(viewport.Size{Width: 32, Height: 64}))
}

func TestParseWithoutNamespace(t *testing.T) {
	_, err := ParseBytes([]byte(`<svg width="1" height="1"/>`))
	assert.NoError(t, err)
}

func TestParseLatin1(t *testing.T) {
	src := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<svg width=\"1\" height=\"1\"><title>caf\xe9</title></svg>"
	doc, err := ParseBytes([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Title)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"html root", `<html/>`, ErrNotSVG},
		{"foreign namespace", `<svg xmlns="urn:other"/>`, ErrNotSVG},
		{"empty", ``, ErrNotSVG},
		{"bad width", `<svg width="wide"/>`, ErrInvalidLength},
		{"bad viewBox", `<svg viewBox="0 0 0 0"/>`, ErrInvalidViewBox},
		{"bad par", `<svg preserveAspectRatio="center"/>`, ErrInvalidPreserveAspectRatio},
		{"bad view", `<svg><view id="v" viewBox="1 2"/></svg>`, ErrInvalidViewBox},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.src))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ParseBytes([]byte(`<svg><g></svg>`))
	assert.Error(t, err)
}

func TestParseViewSpec(t *testing.T) {
	v, err := ParseViewSpec("svgView(viewBox(0,0,10,20);preserveAspectRatio(none);zoomAndPan(disable))")
	require.NoError(t, err)
	require.NotNil(t, v.ViewBox)
	assert.Equal(t, ViewBox{0, 0, 10, 20}, *v.ViewBox)
	require.NotNil(t, v.PreserveAspectRatio)
	assert.Equal(t, AlignNone, v.PreserveAspectRatio.Align)

	for _, in := range []string{"svgView(", "svgView(viewBox)", "view(viewBox(0,0,1,1))"} {
		_, err := ParseViewSpec(in)
		assert.ErrorIs(t, err, ErrInvalidFragment, "input %q", in)
	}
	_, err = ParseViewSpec("svgView(viewBox(0,0,1))")
	assert.ErrorIs(t, err, ErrInvalidViewBox)
}

func TestFit(t *testing.T) {
	doc, err := ParseBytes([]byte(sample))
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  string
		want graphics.Matrix
	}{
		// xMinYMin slice of 100x50 onto 200x200 scales by 4.
		{"root", "", graphics.Scale(4, 4)},
		{"view element", "left", graphics.Scale(4, 4)},
		{"view alignment only", "stretched", graphics.Scale(2, 4)},
		{"other element", "box", graphics.Scale(4, 4)},
		{"svgView", "svgView(viewBox(0,0,200,200))", graphics.Scale(1, 1)},
		{"svgView alignment", "svgView(preserveAspectRatio(xMinYMin meet))", graphics.Scale(2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, hasBox, err := doc.Fit(tt.ref).ResolveFit(200, 200)
			require.NoError(t, err)
			assert.True(t, hasBox)
			if d := cmp.Diff(tt.want, m, approx); d != "" {
				t.Errorf("fit mismatch (-want +got):\n%s", d)
			}
		})
	}

	_, _, err = doc.Fit("nowhere").ResolveFit(10, 10)
	assert.ErrorIs(t, err, ErrFragmentNotFound)
}

func TestFitWithoutViewBox(t *testing.T) {
	doc, err := ParseBytes([]byte(`<svg width="10" height="20"><view id="v" viewBox="0 0 5 5"/></svg>`))
	require.NoError(t, err)

	m, hasBox, err := doc.Fit("").ResolveFit(10, 20)
	require.NoError(t, err)
	assert.False(t, hasBox)
	assert.True(t, m.IsIdentity())

	// The view supplies a box the root lacks.
	m, hasBox, err = doc.Fit("v").ResolveFit(10, 20)
	require.NoError(t, err)
	assert.True(t, hasBox)
	if d := cmp.Diff(graphics.Matrix{2, 0, 0, 2, 0, 5}, m, approx); d != "" {
		t.Errorf("fit mismatch (-want +got):\n%s", d)
	}
}

func TestResolveWithDocumentFit(t *testing.T) {
	doc, err := ParseBytes([]byte(`<svg width="100" height="50" viewBox="0 0 10 5"/>`))
	require.NoError(t, err)

	res, err := viewport.Resolve(doc.Size(DefaultViewport), viewport.Options{Width: viewport.Float(300)}, doc.Fit(""))
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.Width)
	assert.Equal(t, 150.0, res.Height)
	if d := cmp.Diff(graphics.Scale(30, 30), res.Transform, approx); d != "" {
		t.Errorf("transform mismatch (-want +got):\n%s", d)
	}
}
