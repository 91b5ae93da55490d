// Package api provides a clean public API for the SVG rasterizer.
// This is the main entry point for external consumers.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"go.uber.org/zap"

	"svgraster/pkg/destination"
	"svgraster/pkg/raster"
	"svgraster/pkg/svg"
	"svgraster/pkg/viewport"
)

// ErrOutputTooLarge is returned when a resolved output exceeds
// RenderOptions.MaxSize.
var ErrOutputTooLarge = errors.New("output exceeds size limit")

// Document represents an SVG document.
type Document struct {
	svg      *svg.Document
	renderer *raster.Renderer
	logger   *zap.Logger

	// Cached info
	info *DocumentInfo
}

// DocumentInfo contains document metadata.
type DocumentInfo struct {
	Title               string
	Width               svg.Length
	Height              svg.Length
	ViewBox             *svg.ViewBox
	PreserveAspectRatio svg.PreserveAspectRatio
	Views               []string
}

// Open opens an SVG file and returns a Document.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return OpenBytes(data)
}

// OpenReader reads an SVG document from r.
func OpenReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes opens an SVG from a byte slice.
func OpenBytes(data []byte) (*Document, error) {
	doc, err := svg.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	d := &Document{
		svg:      doc,
		renderer: raster.NewRenderer(nil),
		logger:   zap.NewNop(),
	}
	d.parseInfo()
	return d, nil
}

// SetLogger routes the document's render logging to logger.
func (d *Document) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d.logger = logger
	d.renderer = raster.NewRenderer(logger)
}

func (d *Document) parseInfo() {
	info := &DocumentInfo{
		Title:               d.svg.Title,
		Width:               d.svg.Width,
		Height:              d.svg.Height,
		ViewBox:             d.svg.ViewBox,
		PreserveAspectRatio: d.svg.PreserveAspectRatio,
	}
	for _, v := range d.svg.Views() {
		info.Views = append(info.Views, v.ID)
	}
	d.info = info
}

// Info returns document metadata.
func (d *Document) Info() *DocumentInfo {
	return d.info
}

// Size returns the intrinsic size in pixels, resolving percentages against
// vp.
func (d *Document) Size(vp viewport.Size) viewport.Size {
	return d.svg.Size(vp)
}

// Resolve computes the output size and transform for opts without drawing.
func (d *Document) Resolve(opts RenderOptions) (viewport.Result, error) {
	res, err := viewport.Resolve(d.svg.Size(opts.viewportSize()), opts.viewportOptions(), d.svg.Fit(opts.Fragment))
	if err != nil {
		return viewport.Result{}, fmt.Errorf("failed to resolve viewport: %w", err)
	}
	if exceeds(res, opts.MaxSize) {
		return viewport.Result{}, fmt.Errorf("%w: %gx%g > %gx%g",
			ErrOutputTooLarge, res.Width, res.Height, opts.MaxSize.Width, opts.MaxSize.Height)
	}
	if err := raster.CheckSurface(res.Width, res.Height); err != nil {
		return viewport.Result{}, fmt.Errorf("%w: %w", ErrOutputTooLarge, err)
	}
	return res, nil
}

func exceeds(res viewport.Result, limit viewport.Size) bool {
	return (limit.Width > 0 && res.Width > limit.Width) ||
		(limit.Height > 0 && res.Height > limit.Height)
}

// Render renders the document to an image.
func (d *Document) Render(opts RenderOptions) (*image.RGBA, error) {
	res, err := d.Resolve(opts)
	if err != nil {
		return nil, err
	}

	ropts := raster.Options{Background: opts.EffectiveBackground()}
	if opts.OutlineAOI && opts.AreaOfInterest != nil {
		whole := opts
		whole.AreaOfInterest = nil
		full, err := d.Resolve(whole)
		if err != nil {
			return nil, err
		}
		aoi := res.AOI
		ropts.Outline = &aoi
		res = full
	}

	img, err := d.renderer.Render(d.svg, res, ropts)
	if err != nil {
		return nil, fmt.Errorf("failed to render: %w", err)
	}
	d.logger.Debug("rendered",
		zap.String("fragment", opts.Fragment),
		zap.Float64("width", res.Width),
		zap.Float64("height", res.Height),
	)
	return img, nil
}

// RenderWith renders the document with functional options applied to the
// defaults.
func (d *Document) RenderWith(opts ...Option) (*image.RGBA, error) {
	return d.Render(NewRenderOptions(opts...))
}

// Export renders the document and encodes it to w.
func (d *Document) Export(w io.Writer, typ destination.Type, opts RenderOptions, enc destination.EncodeOptions) error {
	img, err := d.Render(opts)
	if err != nil {
		return err
	}
	if enc.Background == nil {
		enc.Background = opts.Background
	}
	if err := destination.Encode(w, typ, img, enc); err != nil {
		return fmt.Errorf("failed to encode %s: %w", typ, err)
	}
	return nil
}

// ExportBytes is Export into a byte slice.
func (d *Document) ExportBytes(typ destination.Type, opts RenderOptions, enc destination.EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Export(&buf, typ, opts, enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases resources associated with the document.
func (d *Document) Close() error {
	return nil
}

// SVG returns the parsed document (for advanced use).
func (d *Document) SVG() *svg.Document {
	return d.svg
}
