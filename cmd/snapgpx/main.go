// Command snapgpx snaps the waypoints of a GPX file (or an OSM extract) onto
// its tracks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"snap_gpx/pkg/config"
	"snap_gpx/pkg/gpxio"
	osmparser "snap_gpx/pkg/osm"
	"snap_gpx/pkg/snap"
)

// outputFlag is -f: absent writes to stdout, bare -f derives a file name
// from the input, -f name or -f=name writes to name.
type outputFlag struct {
	set  bool
	name string
}

func (o *outputFlag) String() string { return o.name }

func (o *outputFlag) Set(s string) error {
	switch s {
	case "true":
		o.set = true
	case "false":
		o.set, o.name = false, ""
	default:
		o.set, o.name = true, s
	}
	return nil
}

func (o *outputFlag) IsBoolFlag() bool { return true }

// options are the parsed command line.
type options struct {
	input          string
	maxDistance    float64
	mode           string
	output         outputFlag
	overwrite      bool
	configPath     string
	reportPath     string
	geojsonPath    string
	verbose        bool
	indexThreshold int
	bbox           string
	wayTag         string
	waypointTag    string
	drivable       bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// parseArgs parses the command line over the config defaults. A value given
// after a bare -f is taken as the output name, and parsing resumes after it.
func parseArgs(args []string, stderr io.Writer) (*options, config.Config, error) {
	def := config.Default()
	cfg := def
	var o options

	fs := flag.NewFlagSet("snapgpx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "i", "", "Input file (.gpx, .osm, .osm.pbf)")
	fs.Float64Var(&o.maxDistance, "d", def.Snap.MaxDistance, "Max snapping distance in meters")
	fs.StringVar(&o.mode, "m", def.Snap.Mode, "Snapping mode: add or move")
	fs.Var(&o.output, "f", "Write to a file instead of stdout; bare -f derives <input>_snapped_<d>.gpx")
	fs.BoolVar(&o.overwrite, "overwrite", def.Output.Overwrite, "Overwrite an existing output file")
	fs.StringVar(&o.configPath, "config", "", "YAML file with default settings")
	fs.StringVar(&o.reportPath, "report", "", "Write a JSON report to this path")
	fs.StringVar(&o.geojsonPath, "geojson", "", "Write tracks and waypoints as GeoJSON to this path")
	fs.BoolVar(&o.verbose, "v", false, "Log every waypoint")
	fs.IntVar(&o.indexThreshold, "index-threshold", def.Snap.IndexThreshold, "Track length from which a spatial index is used (0 = never)")
	fs.StringVar(&o.bbox, "bbox", "", "OSM input only: minLat,minLng,maxLat,maxLng")
	fs.StringVar(&o.wayTag, "way-tag", "", "OSM input only: import only ways with this tag")
	fs.StringVar(&o.waypointTag, "waypoint-tag", osmparser.DefaultWaypointTag, "OSM input only: nodes with this tag become waypoints")
	fs.BoolVar(&o.drivable, "drivable", false, "OSM input only: import only drivable roads")

	if err := fs.Parse(args); err != nil {
		return nil, cfg, err
	}
	for fs.NArg() > 0 {
		if !o.output.set || o.output.name != "" {
			return nil, cfg, fmt.Errorf("unexpected argument %q", fs.Arg(0))
		}
		o.output.name = fs.Arg(0)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return nil, cfg, err
		}
	}

	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, cfg, err
		}
		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if !explicit["d"] {
			o.maxDistance = cfg.Snap.MaxDistance
		}
		if !explicit["m"] {
			o.mode = cfg.Snap.Mode
		}
		if !explicit["overwrite"] {
			o.overwrite = cfg.Output.Overwrite
		}
		if !explicit["index-threshold"] {
			o.indexThreshold = cfg.Snap.IndexThreshold
		}
	}

	if o.input == "" {
		fs.Usage()
		return nil, cfg, errors.New("missing -i input file")
	}
	if math.IsNaN(o.maxDistance) || math.IsInf(o.maxDistance, 0) || o.maxDistance < 0 {
		return nil, cfg, fmt.Errorf("invalid -d %g: must be a finite, non-negative distance", o.maxDistance)
	}
	return &o, cfg, nil
}

// loadInput reads a GPX file directly, or builds a GPX document from the
// ways and tagged nodes of an OSM extract.
func loadInput(o *options, creator string) (*gpxio.Document, error) {
	if strings.EqualFold(filepath.Ext(o.input), ".gpx") {
		return gpxio.ReadFile(o.input)
	}

	opts := osmparser.ParseOptions{
		Format:      osmparser.FormatFor(o.input),
		WayTag:      o.wayTag,
		WaypointTag: o.waypointTag,
		Drivable:    o.drivable,
	}
	if o.bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(o.bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			return nil, fmt.Errorf("invalid bbox format (expected minLat,minLng,maxLat,maxLng): %w", err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	}

	f, err := os.Open(o.input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	res, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", o.input, err)
	}
	return gpxio.New(creator, res.Tracks, res.Waypoints), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, cfg, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	mode, err := snap.ParseMode(o.mode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)
	if !o.verbose {
		// Parser progress is only shown in verbose mode.
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	doc, err := loadInput(o, cfg.Output.Creator)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.Output.Version != "" {
		doc.GPX.Version = cfg.Output.Version
	}

	tracks, wpts := doc.Tracks(), doc.Waypoints()
	if len(tracks) == 0 {
		fmt.Fprintln(stderr, "Warning: no tracks found in input file.")
		return 0
	}
	if len(wpts) == 0 {
		fmt.Fprintln(stderr, "Warning: no waypoints found in input file.")
		return 0
	}

	outPath := ""
	if o.output.set {
		outPath = o.output.name
		if outPath == "" {
			outPath = gpxio.OutputPath(o.input, o.maxDistance)
		}
		if _, err := os.Stat(outPath); err == nil && !o.overwrite {
			fmt.Fprintf(stderr, "Error: output file %s already exists (use --overwrite)\n", outPath)
			return 1
		}
	}

	opts := snap.Options{
		MaxDistance: o.maxDistance,
		Mode:        mode,
		Finder:      snap.NewFinder(o.indexThreshold),
	}
	if o.verbose {
		opts.Logf = logger.Printf
	}
	report := snap.Run(tracks, wpts, opts)
	for _, w := range report.Warnings {
		fmt.Fprintf(stderr, "Warning: %v\n", w)
	}
	if o.verbose {
		logger.Println(report.Summary())
	}

	data, err := doc.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Everything is serialized before the first write, so a failure leaves
	// no partial set of outputs behind.
	var reportJS, geojsonJS []byte
	if o.reportPath != "" {
		if reportJS, err = json.MarshalIndent(report, "", "  "); err != nil {
			fmt.Fprintf(stderr, "Error: report: %v\n", err)
			return 1
		}
	}
	if o.geojsonPath != "" {
		if geojsonJS, err = snap.GeoJSON(tracks, wpts, report).MarshalJSON(); err != nil {
			fmt.Fprintf(stderr, "Error: geojson: %v\n", err)
			return 1
		}
	}

	if outPath == "" {
		if _, err := stdout.Write(data); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		if err := gpxio.WriteFile(outPath, data, o.overwrite); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stderr, "Output written to %s\n", outPath)
	}

	if o.reportPath != "" {
		if err := gpxio.WriteFile(o.reportPath, reportJS, o.overwrite); err != nil {
			fmt.Fprintf(stderr, "Error: report: %v\n", err)
			return 1
		}
	}
	if o.geojsonPath != "" {
		if err := gpxio.WriteFile(o.geojsonPath, geojsonJS, o.overwrite); err != nil {
			fmt.Fprintf(stderr, "Error: geojson: %v\n", err)
			return 1
		}
	}
	return 0
}
