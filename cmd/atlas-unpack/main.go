// Command atlas-unpack rebuilds the sprites of a packed texture atlas.
//
// Usage:
//
//	atlas-unpack [flags] manifest.json output_dir
//	atlas-unpack -name hero -out hero.png manifest.json
//	atlas-unpack -name hero -preview manifest.json
//	atlas-unpack -stats manifest.json
//	atlas-unpack -listen_address :8080 manifest.json
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ironsheep/sprite-atlas-mcp/internal/atlas"
	"github.com/ironsheep/sprite-atlas-mcp/internal/imaging"
	"github.com/ironsheep/sprite-atlas-mcp/internal/preview"
	"github.com/ironsheep/sprite-atlas-mcp/internal/web"
)

var (
	sourceDir     = flag.String("source_dir", "", "directory holding the atlas rasters (default: the manifest's directory)")
	extension     = flag.String("ext", atlas.DefaultExtension, "atlas raster file extension")
	crop          = flag.String("crop", "default", "crop policy: none, default or full")
	format        = flag.String("format", "png", "output format: png, jpeg, gif, tiff or bmp")
	transform     = flag.String("transform", "", "comma separated post-processing steps, e.g. scale:2,grayscale")
	background    = flag.String("background", "", "#RRGGBB background for formats without alpha (default white)")
	workers       = flag.Int("workers", 0, "parallel exports (default: number of CPUs)")
	name          = flag.String("name", "", "rebuild only this sprite")
	out           = flag.String("out", "", "output file for -name (default: <output_dir>/<name>.<format>)")
	stats         = flag.Bool("stats", false, "print the canvas sizes of every sprite and exit")
	doPreview     = flag.Bool("preview", false, "print the -name sprite on the terminal instead of saving it")
	previewMode   = flag.String("preview_mode", "auto", "preview renderer: auto, raster, truecolor, color or ascii")
	previewSize   = flag.Uint("preview_size", 64, "longest preview edge in pixels, 0 for native size")
	listenAddress = flag.String("listen_address", "", "serve sprites over http on this address instead of exporting")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] manifest.json [output_dir]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}
	manifestPath := flag.Arg(0)
	outputDir := flag.Arg(1)

	opts := atlas.Options{
		SourceDir: *sourceDir,
		Extension: *extension,
		Crop:      imaging.CropPolicy(*crop),
		Workers:   *workers,
	}
	t, err := imaging.ParseTransform(*transform)
	if err != nil {
		glog.Exitf("%v", err)
	}
	opts.Transform = t
	if *background != "" {
		bg, err := imaging.ParseBackground(*background)
		if err != nil {
			glog.Exitf("%v", err)
		}
		opts.Encoder.Background = bg
	}

	sess, err := atlas.Open(manifestPath, opts)
	if err != nil {
		glog.Exitf("%v", err)
	}
	defer sess.Close()

	switch {
	case *stats:
		printStats(sess)
	case *listenAddress != "":
		serve(sess)
	case *name != "" && *doPreview:
		printPreview(sess)
	case *name != "":
		saveOne(sess, outputDir)
	default:
		exportAll(sess, outputDir)
	}
}

func printStats(sess *atlas.Session) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNONE\tDEFAULT\tFULL\tDELTA")
	for _, s := range sess.Stats() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.None, s.Default, s.Full, s.Delta)
	}
	w.Flush()
}

func serve(sess *atlas.Session) {
	r := mux.NewRouter()
	web.NewHandler(sess).RegisterRoutes(r)

	glog.Infof("serving %d sprites on %s", sess.Manifest().Len(), *listenAddress)
	glog.Fatal(http.ListenAndServe(*listenAddress, handlers.CombinedLoggingHandler(os.Stderr, r)))
}

func printPreview(sess *atlas.Session) {
	c, err := sess.Canvas(*name, "")
	if err != nil {
		glog.Exitf("%v", err)
	}
	po := preview.Options{Mode: preview.Mode(*previewMode), MaxWidth: *previewSize, MaxHeight: *previewSize}
	if err := preview.Print(os.Stdout, c.Image, po); err != nil {
		glog.Exitf("%v", err)
	}
}

func saveOne(sess *atlas.Session, outputDir string) {
	path := *out
	if path == "" {
		f, err := imaging.ParseFormat(*format)
		if err != nil {
			glog.Exitf("%v", err)
		}
		path = filepath.Join(outputDir, *name+f.Extension())
	}
	// An explicit -out picks its format from the extension.
	f := *format
	if *out != "" && !isFlagSet("format") {
		f = ""
	}
	if err := sess.SaveSprite(*name, path, f); err != nil {
		glog.Exitf("%v", err)
	}
	fmt.Println(path)
}

func exportAll(sess *atlas.Session, outputDir string) {
	if outputDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := sess.ExportAll(ctx, outputDir, *format)
	if report != nil {
		for _, p := range report.Written {
			fmt.Println(p)
		}
	}
	if err != nil {
		glog.Exitf("%v", err)
	}
}

func isFlagSet(flagName string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == flagName {
			set = true
		}
	})
	return set
}
