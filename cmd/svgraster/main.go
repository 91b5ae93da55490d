package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"svgraster/internal/cache"
	"svgraster/internal/config"
	"svgraster/internal/logging"
	"svgraster/internal/server"
	"svgraster/pkg/api"
	"svgraster/pkg/converter"
	"svgraster/pkg/destination"
	"svgraster/pkg/graphics"
	"svgraster/pkg/raster"
	"svgraster/pkg/viewport"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "info":
		if len(os.Args) < 3 {
			fmt.Println("Usage: svgraster info <file.svg> [--fragment id]")
			os.Exit(1)
		}
		cmdInfo(os.Args[2:])

	case "render":
		if len(os.Args) < 3 {
			fmt.Println("Usage: svgraster render <file.svg> [-o output.png] [options]")
			os.Exit(1)
		}
		cmdRender(os.Args[2:])

	case "convert":
		cmdConvert(os.Args[2:])

	case "serve":
		cmdServe(os.Args[2:])

	case "config":
		cmdConfig(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`svgraster rasterizes SVG documents.

Usage:
  svgraster <command> [arguments]

Commands:
  info <file.svg>                Show document size, viewBox and views
  render <file.svg> [options]    Render one document
    -o <output>                  Output file (default: output.png)
    -m <type>                    Output type: png, jpeg, tiff, pdf
    -w, -h <pixels>              Output width and height
    -a <x,y,w,h>                 Area of interest in document units
    --fragment <id>              View id or svgView(...) specification
    --background <color>         Background color, empty for transparent
    -q <quality>                 JPEG quality in (0, 1)
    --outline-aoi                Outline the area of interest instead of zooming
  convert [options] <files|URLs> Convert a batch of documents
    -d <dir>                     Destination directory
    -o <file>                    Destination file for a single source
    --srcdir <dir>               Convert every .svg file in a directory
    --workers <n>                Parallel conversions
  serve [options]                Serve POST /render over HTTP
  config [options]               Print the effective configuration

Examples:
  svgraster info drawing.svg
  svgraster render drawing.svg -o drawing.png -w 800
  svgraster render drawing.svg -a 0,0,50,50 --outline-aoi
  svgraster convert -d out -m jpeg -q 0.9 a.svg b.svg
  svgraster serve --port 8080 --cache-dir /var/cache/svgraster`)
}

func exitf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := pflag.NewFlagSet("info", pflag.ExitOnError)
	fragment := fs.String("fragment", "", "view to resolve")
	fs.Parse(args)
	if fs.NArg() < 1 {
		exitf("Usage: svgraster info <file.svg> [--fragment id]")
	}
	path := fs.Arg(0)

	doc, err := api.Open(path)
	if err != nil {
		exitf("Error opening SVG: %v", err)
	}
	defer doc.Close()

	info := doc.Info()
	fmt.Printf("File: %s\n", path)
	fmt.Println("────────────────────────────────────────")
	if info.Title != "" {
		fmt.Printf("Title: %s\n", info.Title)
	}
	fmt.Printf("Width: %s\n", info.Width)
	fmt.Printf("Height: %s\n", info.Height)
	if info.ViewBox != nil {
		fmt.Printf("viewBox: %s\n", info.ViewBox)
	}
	fmt.Printf("preserveAspectRatio: %s\n", info.PreserveAspectRatio)

	size := doc.Size(api.DefaultRenderOptions().Viewport)
	fmt.Printf("Intrinsic size: %g × %g pixels\n", size.Width, size.Height)

	if len(info.Views) > 0 {
		fmt.Println("\nViews:")
		for _, id := range info.Views {
			fmt.Printf("  #%s\n", id)
		}
	}

	opts := api.NewRenderOptions(api.Fragment(*fragment))
	res, err := doc.Resolve(opts)
	if err != nil {
		exitf("Error resolving viewport: %v", err)
	}
	fmt.Println("\nResolved:")
	fmt.Printf("  Output: %g × %g pixels\n", res.Width, res.Height)
	fmt.Printf("  Transform: %v\n", res.Transform)
	fmt.Printf("  Area of interest: %s\n", res.AOI)
}

func cmdRender(args []string) {
	fs := pflag.NewFlagSet("render", pflag.ExitOnError)
	output := fs.StringP("output", "o", "output.png", "output file")
	mime := fs.StringP("mime", "m", "", "output type (default: from the output extension)")
	width := fs.Float64P("width", "w", 0, "output width")
	height := fs.Float64P("height", "h", 0, "output height")
	area := fs.StringP("area", "a", "", "area of interest x,y,w,h")
	fragment := fs.String("fragment", "", "view to render")
	background := fs.String("background", "white", "background color, empty for transparent")
	quality := fs.Float64P("quality", "q", 0, "JPEG quality")
	outline := fs.Bool("outline-aoi", false, "outline the area of interest")
	cfg, logger := loadConfig(fs, args)
	defer logger.Sync()
	if fs.NArg() < 1 {
		exitf("Usage: svgraster render <file.svg> [-o output.png] [options]")
	}
	path := fs.Arg(0)

	typ := destination.PNG
	var err error
	switch {
	case *mime != "":
		typ, err = destination.ParseType(*mime)
	case filepath.Ext(*output) != "":
		typ, err = destination.ParseType(filepath.Ext(*output))
	}
	if err != nil {
		exitf("Error: %v", err)
	}

	opts := api.DefaultRenderOptions()
	opts.Viewport = cfg.Viewport.ViewportSize()
	opts.MaxSize = cfg.Limits.ViewportSize()
	enc := destination.EncodeOptions{Quality: *quality}
	if *width > 0 {
		opts.Width = viewport.Float(*width)
	}
	if *height > 0 {
		opts.Height = viewport.Float(*height)
	}
	if *area != "" {
		aoi, err := graphics.ParseRect(*area)
		if err != nil {
			exitf("Error: %v", err)
		}
		opts.AreaOfInterest = &aoi
	}
	if *background == "" {
		opts.Transparent = true
	} else {
		c, err := raster.ParseColor(*background)
		if err != nil {
			exitf("Error: %v", err)
		}
		opts.Background = c
	}
	opts.Fragment = *fragment
	opts.OutlineAOI = *outline

	fmt.Printf("Opening %s...\n", path)

	doc, err := api.Open(path)
	if err != nil {
		exitf("Error opening SVG: %v", err)
	}
	defer doc.Close()
	doc.SetLogger(logger)

	res, err := doc.Resolve(opts)
	if err != nil {
		exitf("Error resolving viewport: %v", err)
	}
	fmt.Printf("Rendering %g × %g pixels as %s...\n", res.Width, res.Height, typ)

	if dir := filepath.Dir(*output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			exitf("Error creating output directory: %v", err)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		exitf("Error creating output file: %v", err)
	}
	if err := doc.Export(f, typ, opts, enc); err != nil {
		f.Close()
		os.Remove(*output)
		exitf("Error rendering: %v", err)
	}
	if err := f.Close(); err != nil {
		exitf("Error writing output file: %v", err)
	}

	fmt.Printf("✓ Saved %s\n", *output)
}

// loadConfig parses args into fs and loads the configuration it selects.
func loadConfig(fs *pflag.FlagSet, args []string) (*config.Configuration, *zap.Logger) {
	config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(fs, ".", "/etc/svgraster")
	if err != nil {
		exitf("Error loading configuration: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		exitf("Error creating logger: %v", err)
	}
	return cfg, logger
}

func cmdConvert(args []string) {
	fs := pflag.NewFlagSet("convert", pflag.ExitOnError)
	destDir := fs.StringP("dest", "d", "", "destination directory")
	destFile := fs.StringP("output", "o", "", "destination file for a single source")
	mime := fs.StringP("mime", "m", "png", "output type")
	width := fs.Float64P("width", "w", 0, "output width")
	height := fs.Float64P("height", "h", 0, "output height")
	area := fs.StringP("area", "a", "", "area of interest x,y,w,h")
	fragment := fs.String("fragment", "", "view to render")
	srcDir := fs.String("srcdir", "", "convert every .svg file in this directory")
	fs.Float64P("quality", "q", 0, "JPEG quality")
	fs.String("background", "", "background color, empty for transparent")
	cfg, logger := loadConfig(fs, args)
	defer logger.Sync()

	c := converter.New()
	c.Logger = logger
	c.Workers = cfg.Workers
	c.Viewport = cfg.Viewport.ViewportSize()
	c.MaxSize = cfg.Limits.ViewportSize()
	c.Quality = cfg.Quality
	c.Credentials = cfg.Credentials
	c.Client = http.DefaultClient
	c.Sources = fs.Args()
	c.SourceDir = *srcDir
	c.Width = *width
	c.Height = *height
	c.Fragment = *fragment

	var err error
	if c.Type, err = destination.ParseType(*mime); err != nil {
		exitf("Error: %v", err)
	}
	if *area != "" {
		aoi, err := graphics.ParseRect(*area)
		if err != nil {
			exitf("Error: %v", err)
		}
		c.Area = &aoi
	}
	if cfg.Background != "" {
		bg, err := raster.ParseColor(cfg.Background)
		if err != nil {
			exitf("Error: %v", err)
		}
		c.Background = bg
	}
	c.DestinationDir = *destDir
	c.DestinationFile = *destFile

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Execute(ctx); err != nil {
		var cerr *converter.ConversionError
		if errors.As(err, &cerr) && cerr.Source != "" {
			exitf("Error converting %s: %v", cerr.Source, err)
		}
		exitf("Error: %v", err)
	}
	fmt.Println("✓ Conversion complete")
}

func cmdServe(args []string) {
	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	fs.String("background", "", "default background color, empty for transparent")
	fs.Float64P("quality", "q", 0, "default JPEG quality")
	cfg, logger := loadConfig(fs, args)
	defer logger.Sync()

	c, err := cache.New(cache.Options{Dir: cfg.Cache.Dir, SizeMax: cfg.Cache.SizeMax, LRU: cfg.Cache.LRU})
	if err != nil {
		exitf("Error creating cache: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, c, logger).ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func cmdConfig(args []string) {
	fs := pflag.NewFlagSet("config", pflag.ExitOnError)
	fs.String("background", "", "default background color")
	fs.Float64P("quality", "q", 0, "default JPEG quality")
	cfg, _ := loadConfig(fs, args)
	if err := cfg.Dump(os.Stdout); err != nil {
		exitf("Error: %v", err)
	}
}
