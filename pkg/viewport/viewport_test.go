package viewport

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgraster/pkg/graphics"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

// boxFit mimics a viewBox of the given size with non-uniform stretching.
func boxFit(vbW, vbH float64) FitResolver {
	return FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		return graphics.Scale(w/vbW, h/vbH), true, nil
	})
}

func rect(x, y, w, h float64) *graphics.Rect {
	return &graphics.Rect{X: x, Y: y, Width: w, Height: h}
}

func TestTargetSizePrecedence(t *testing.T) {
	doc := Size{200, 100}
	tests := []struct {
		name string
		opts Options
		want Size
	}{
		{"both", Options{Width: Float(50), Height: Float(50)}, Size{50, 50}},
		{"height only", Options{Height: Float(50)}, Size{100, 50}},
		{"width only", Options{Width: Float(50)}, Size{50, 25}},
		{"neither", Options{}, Size{200, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(doc, tt.opts, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Size{res.Width, res.Height})
		})
	}
}

func TestNoScaleIdentity(t *testing.T) {
	for _, doc := range []Size{{1, 1}, {200, 100}, {0.5, 3000}} {
		res, err := Resolve(doc, Options{}, nil)
		require.NoError(t, err)
		assert.True(t, res.Transform.IsIdentity(), "size %v", doc)
		assert.Equal(t, doc.Width, res.Width)
		assert.Equal(t, doc.Height, res.Height)
		assert.Equal(t, graphics.Rect{Width: doc.Width, Height: doc.Height}, res.PixelAOI)
	}
}

func TestNoOpRequestKeepsFitTransform(t *testing.T) {
	// A box fit at the intrinsic size is returned untouched.
	fit := FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		return graphics.Scale(2, 2).Then(graphics.Translate(5, 0)), true, nil
	})
	res, err := Resolve(Size{100, 100}, Options{Width: Float(100), Height: Float(100)}, fit)
	require.NoError(t, err)
	assert.Equal(t, graphics.Scale(2, 2).Then(graphics.Translate(5, 0)), res.Transform)
}

func TestAspectPreservation(t *testing.T) {
	res, err := Resolve(Size{200, 100}, Options{Height: Float(50)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Width)
	assert.Equal(t, 50.0, res.Height)
	assert.Equal(t, graphics.Scale(0.5, 0.5), res.Transform)
}

func TestDistortionWhenBothSet(t *testing.T) {
	res, err := Resolve(Size{200, 100}, Options{Width: Float(50), Height: Float(50)}, boxFit(200, 100))
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Width)
	assert.Equal(t, 50.0, res.Height)
	// 4:1 horizontally, 2:1 vertically
	assert.Equal(t, graphics.Scale(0.25, 0.5), res.Transform)
}

func TestUniformFallbackWithoutBox(t *testing.T) {
	// No box: the scale is max(out)/max(doc) on both axes, even when the
	// requested size is distorted.
	res, err := Resolve(Size{200, 100}, Options{Width: Float(50), Height: Float(50)}, NoFit)
	require.NoError(t, err)
	assert.Equal(t, graphics.Scale(0.25, 0.25), res.Transform)
}

func TestGenuineIdentityFitIsNotReplaced(t *testing.T) {
	identityBox := FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		return graphics.Identity(), true, nil
	})
	res, err := Resolve(Size{200, 100}, Options{Width: Float(400)}, identityBox)
	require.NoError(t, err)
	assert.True(t, res.Transform.IsIdentity())
	assert.Equal(t, 400.0, res.Width)
	assert.Equal(t, 200.0, res.Height)
}

func TestNoBoxMatrixIsIgnored(t *testing.T) {
	junk := FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		return graphics.Scale(9, 9), false, nil
	})
	res, err := Resolve(Size{10, 10}, Options{}, junk)
	require.NoError(t, err)
	assert.True(t, res.Transform.IsIdentity())
}

func TestAOIRoundTrip(t *testing.T) {
	res, err := Resolve(Size{100, 100}, Options{AreaOfInterest: rect(25, 25, 50, 50)}, nil)
	require.NoError(t, err)

	got := res.AOI.Transform(res.Transform)
	if d := cmp.Diff(graphics.Rect{Width: 100, Height: 100}, got, approx); d != "" {
		t.Errorf("AOI image mismatch (-want +got):\n%s", d)
	}
	got = res.PixelAOI.Transform(res.Transform)
	if d := cmp.Diff(graphics.Rect{Width: 100, Height: 100}, got, approx); d != "" {
		t.Errorf("pixel AOI image mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, graphics.Rect{X: 25, Y: 25, Width: 50, Height: 50}, res.AOI)
}

func TestAOIWithFitTransform(t *testing.T) {
	// A 50x50 document fitted onto 200x200 output: Px scales by 4, so the
	// AOI's pixel bounds are 4x the document rectangle.
	res, err := Resolve(Size{50, 50}, Options{Width: Float(200), AreaOfInterest: rect(10, 20, 10, 5)}, boxFit(50, 50))
	require.NoError(t, err)

	want := graphics.Rect{X: 40, Y: 80, Width: 40, Height: 20}
	if d := cmp.Diff(want, res.PixelAOI, approx); d != "" {
		t.Errorf("pixel AOI mismatch (-want +got):\n%s", d)
	}
	if d := cmp.Diff(graphics.Rect{X: 10, Y: 20, Width: 10, Height: 5}, res.AOI, approx); d != "" {
		t.Errorf("document AOI mismatch (-want +got):\n%s", d)
	}

	// Corners of the document AOI land on the output corners.
	corners := res.AOI.Corners()
	out := graphics.Rect{Width: res.Width, Height: res.Height}.Corners()
	for i, c := range corners {
		if d := cmp.Diff(out[i], res.Transform.TransformPoint(c), approx); d != "" {
			t.Errorf("corner %d mismatch (-want +got):\n%s", i, d)
		}
	}
}

func TestAOINegativeExtentsNormalized(t *testing.T) {
	res, err := Resolve(Size{100, 100}, Options{AreaOfInterest: rect(75, 75, -50, -50)}, nil)
	require.NoError(t, err)
	assert.Equal(t, graphics.Rect{X: 25, Y: 25, Width: 50, Height: 50}, res.AOI)
}

func TestAOIWithoutBoxUsesUniformScale(t *testing.T) {
	res, err := Resolve(Size{200, 100}, Options{Height: Float(50), AreaOfInterest: rect(0, 0, 100, 100)}, nil)
	require.NoError(t, err)

	// Px = scale(0.5); AOI bounds (0,0,50,50); Mx stretches to 100x50.
	want := graphics.Scale(0.5, 0.5).Then(graphics.Scale(2, 1))
	if d := cmp.Diff(want, res.Transform, approx); d != "" {
		t.Errorf("transform mismatch (-want +got):\n%s", d)
	}
}

func TestNoAOIDocumentRectInvertsFit(t *testing.T) {
	res, err := Resolve(Size{200, 100}, Options{Width: Float(100)}, nil)
	require.NoError(t, err)
	assert.Equal(t, graphics.Rect{Width: 100, Height: 50}, res.PixelAOI)
	if d := cmp.Diff(graphics.Rect{Width: 200, Height: 100}, res.AOI, approx); d != "" {
		t.Errorf("document AOI mismatch (-want +got):\n%s", d)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  Size
		opts Options
		want error
	}{
		{"zero doc width", Size{0, 100}, Options{Width: Float(10), AreaOfInterest: rect(0, 0, 0, 0)}, ErrInvalidDocumentSize},
		{"negative doc height", Size{100, -1}, Options{}, ErrInvalidDocumentSize},
		{"NaN doc width", Size{math.NaN(), 1}, Options{}, ErrInvalidDocumentSize},
		{"infinite doc height", Size{1, math.Inf(1)}, Options{}, ErrInvalidDocumentSize},
		{"zero requested width", Size{100, 100}, Options{Width: Float(0)}, ErrInvalidRequestedSize},
		{"negative requested height", Size{100, 100}, Options{Height: Float(-5)}, ErrInvalidRequestedSize},
		{"NaN requested height", Size{100, 100}, Options{Height: Float(math.NaN())}, ErrInvalidRequestedSize},
		{"zero-width AOI", Size{100, 100}, Options{AreaOfInterest: rect(0, 0, 0, 50)}, ErrDegenerateAreaOfInterest},
		{"zero-height AOI", Size{100, 100}, Options{AreaOfInterest: rect(10, 10, 50, 0)}, ErrDegenerateAreaOfInterest},
		{"NaN AOI", Size{100, 100}, Options{AreaOfInterest: rect(math.NaN(), 0, 5, 5)}, ErrDegenerateAreaOfInterest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.doc, tt.opts, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, Result{}, res)
		})
	}
}

func TestDegenerateAOIUnderSingularFit(t *testing.T) {
	flat := FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		return graphics.Scale(1, 0), true, nil
	})
	_, err := Resolve(Size{10, 10}, Options{AreaOfInterest: rect(0, 0, 5, 5)}, flat)
	assert.ErrorIs(t, err, ErrDegenerateAreaOfInterest)
}

func TestFitErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		return graphics.Matrix{}, false, boom
	})
	_, err := Resolve(Size{10, 10}, Options{}, failing)
	assert.ErrorIs(t, err, boom)
}

func TestFitSeesTargetSize(t *testing.T) {
	var gotW, gotH float64
	spy := FitFunc(func(w, h float64) (graphics.Matrix, bool, error) {
		gotW, gotH = w, h
		return graphics.Identity(), true, nil
	})
	_, err := Resolve(Size{300, 150}, Options{Width: Float(60)}, spy)
	require.NoError(t, err)
	assert.Equal(t, 60.0, gotW)
	assert.Equal(t, 30.0, gotH)
}

func TestConcurrentResolve(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := float64(i)
			res, err := Resolve(Size{100, 50}, Options{Width: Float(w), AreaOfInterest: rect(0, 0, 50, 50)}, boxFit(100, 50))
			if err != nil {
				errs <- err
				return
			}
			if math.Abs(res.Width-w) > 1e-9 || math.Abs(res.Height-w/2) > 1e-9 {
				errs <- errors.New("unexpected size")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
