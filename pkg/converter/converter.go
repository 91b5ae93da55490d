// Package converter converts batches of SVG documents into raster files.
package converter

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"svgraster/pkg/api"
	"svgraster/pkg/destination"
	"svgraster/pkg/graphics"
	"svgraster/pkg/viewport"
)

// Converter holds the properties of a conversion. The zero value is not
// usable; start from New.
type Converter struct {
	Type destination.Type

	// Width and Height in pixels; zero leaves them unset.
	Width  float64
	Height float64

	// Area is the area of interest. It also sets the output size unless
	// Width or Height override it.
	Area *graphics.Rect

	// Quality is the JPEG quality in (0, 1); zero selects the default.
	Quality float64

	// Background fills the output; nil leaves it transparent where the
	// format allows.
	Background color.Color

	Fragment string
	Viewport viewport.Size
	MaxSize  viewport.Size

	// Sources are file paths or URLs.
	Sources   []string
	SourceDir string

	// DestinationFile and DestinationDir are mutually exclusive.
	DestinationFile string
	DestinationDir  string

	Workers     int
	Controller  Controller
	Logger      *zap.Logger
	Client      *http.Client
	Credentials []Credential
}

// New returns a converter writing PNG files with one worker per CPU.
func New() *Converter {
	return &Converter{
		Type:       destination.PNG,
		Viewport:   viewport.Size{Width: 400, Height: 400},
		Workers:    runtime.NumCPU(),
		Controller: DefaultController{},
		Logger:     zap.NewNop(),
	}
}

// RenderOptions computes the render options for every source.
func (c *Converter) RenderOptions() api.RenderOptions {
	opts := api.DefaultRenderOptions()
	opts.Fragment = c.Fragment
	opts.Viewport = c.Viewport
	opts.MaxSize = c.MaxSize

	if c.Area != nil {
		area := c.Area.Normalize()
		opts.AreaOfInterest = &area
		opts.Width = viewport.Float(area.Width)
		opts.Height = viewport.Float(area.Height)
	}
	if c.Height > 0 {
		opts.Height = viewport.Float(c.Height)
	}
	if c.Width > 0 {
		opts.Width = viewport.Float(c.Width)
	}

	opts.Background = c.Background
	opts.Transparent = c.Background == nil
	return opts
}

// EncodeOptions computes the encoder options.
func (c *Converter) EncodeOptions() destination.EncodeOptions {
	return destination.EncodeOptions{Quality: c.Quality, Background: c.Background}
}

// ComputeSources lists the sources named by Sources and SourceDir.
func (c *Converter) ComputeSources() ([]Source, error) {
	if len(c.Sources) == 0 && c.SourceDir == "" {
		return nil, newError(ErrNoSourceSpecified, "", "", nil)
	}

	var sources []Source
	for _, s := range c.Sources {
		src := NewSource(s)
		if u, ok := src.(URLSource); ok {
			u.Client = c.Client
			u.Credentials = c.Credentials
			src = u
		}
		sources = append(sources, src)
	}

	if c.SourceDir != "" {
		entries, err := os.ReadDir(c.SourceDir)
		if err != nil {
			return nil, newError(ErrNoSVGFilesInSrcDir, c.SourceDir, "", err)
		}
		n := len(sources)
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".svg") {
				continue
			}
			sources = append(sources, FileSource{Path: filepath.Join(c.SourceDir, e.Name())})
		}
		if len(sources) == n {
			return nil, newError(ErrNoSVGFilesInSrcDir, c.SourceDir, "", nil)
		}
	}
	return sources, nil
}

// ComputeDestinations returns one output path per source.
func (c *Converter) ComputeDestinations(sources []Source) ([]string, error) {
	if len(sources) == 1 && c.DestinationFile != "" {
		return []string{c.DestinationFile}, nil
	}

	dsts := make([]string, len(sources))
	for i, src := range sources {
		name := DestinationName(src.Name(), c.Type)
		switch {
		case c.DestinationDir != "":
			dsts[i] = filepath.Join(c.DestinationDir, name)
		default:
			fs, ok := src.(FileSource)
			if !ok {
				return nil, newError(ErrCannotComputeDestination, src.String(), "", nil)
			}
			dsts[i] = filepath.Join(filepath.Dir(fs.Path), name)
		}
	}

	// Parallel workers must not share an output file.
	seen := make(map[string]Source, len(dsts))
	for i, dst := range dsts {
		key := filepath.Clean(dst)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if prev, ok := seen[key]; ok {
			return nil, newError(ErrDuplicateDestination, sources[i].String(), dst,
				fmt.Errorf("also written by %s", prev))
		}
		seen[key] = sources[i]
	}
	return dsts, nil
}

// DestinationName replaces the extension of name with the one for t, or
// appends it when name has none.
func DestinationName(name string, t destination.Type) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + t.Extension()
}

// Execute converts every source. Failures of single sources go to the
// controller; the first failure it does not skip cancels the remaining
// work and is returned.
func (c *Converter) Execute(ctx context.Context) error {
	if c.DestinationFile != "" && c.DestinationDir != "" {
		return &ConversionError{Code: ErrDestinationConflict, Fatal: true}
	}
	enc := c.EncodeOptions()
	if err := enc.Validate(); err != nil {
		return &ConversionError{Code: ErrInvalidOptions, Err: err, Fatal: true}
	}

	sources, err := c.ComputeSources()
	if err != nil {
		return err
	}
	dsts, err := c.ComputeDestinations(sources)
	if err != nil {
		return err
	}

	ctl := c.controller()
	task := Task{
		Type:         c.Type,
		Options:      c.RenderOptions(),
		Encode:       enc,
		Sources:      sources,
		Destinations: dsts,
	}
	if !ctl.ProceedWithComputedTask(task) {
		return nil
	}

	logger := c.logger()
	logger.Info("starting conversion",
		zap.Int("sources", len(sources)),
		zap.Stringer("type", c.Type),
		zap.Int("workers", c.workers()),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i := range sources {
		src, dst := sources[i], dsts[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := createOutputDir(dst); err != nil {
				return err
			}
			return c.transcode(ctx, ctl, task, src, dst)
		})
	}
	return g.Wait()
}

func createOutputDir(dst string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newError(ErrUnableToCreateOutputDir, "", dir, err)
	}
	return nil
}

func (c *Converter) transcode(ctx context.Context, ctl Controller, task Task, src Source, dst string) error {
	if !ctl.ProceedWithSourceTranscoding(src, dst) {
		return nil
	}
	logger := c.logger().With(zap.String("source", src.String()), zap.String("destination", dst))

	fail := func(cerr *ConversionError) error {
		if !cerr.Fatal && ctl.ProceedOnSourceTranscodingFailure(src, dst, cerr) {
			logger.Warn("skipping source", zap.Error(cerr))
			return nil
		}
		return cerr
	}

	if src.SameAs(dst) {
		cerr := newError(ErrSourceSameAsDestination, src.String(), dst, nil)
		cerr.Fatal = true
		return fail(cerr)
	}
	if !src.Readable() {
		return fail(newError(ErrCannotReadSource, src.String(), "", nil))
	}

	data, err := readSource(ctx, src)
	if err != nil {
		return fail(newError(ErrCannotOpenSource, src.String(), "", err))
	}

	out, err := os.Create(dst)
	if err != nil {
		return fail(newError(ErrCannotOpenOutputFile, "", dst, err))
	}

	if err := render(out, data, task); err != nil {
		out.Close()
		os.Remove(dst)
		return fail(newError(ErrWhileRasterizingFile, src.String(), dst, err))
	}
	if err := out.Close(); err != nil {
		return fail(newError(ErrCannotOpenOutputFile, "", dst, err))
	}

	logger.Info("converted source")
	ctl.OnSourceTranscodingSuccess(src, dst)
	return nil
}

func readSource(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func render(w io.Writer, data []byte, task Task) error {
	doc, err := api.OpenBytes(data)
	if err != nil {
		return err
	}
	defer doc.Close()
	return doc.Export(w, task.Type, task.Options, task.Encode)
}

func (c *Converter) controller() Controller {
	if c.Controller == nil {
		return DefaultController{}
	}
	return c.Controller
}

func (c *Converter) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Converter) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// IsFatal reports whether err is a ConversionError marked fatal.
func IsFatal(err error) bool {
	var cerr *ConversionError
	return errors.As(err, &cerr) && cerr.Fatal
}

// String describes the conversion for progress output.
func (t Task) String() string {
	return fmt.Sprintf("%d source(s) to %s", len(t.Sources), t.Type)
}
