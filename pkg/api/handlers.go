package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"mime"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"snap_gpx/pkg/gpxio"
	"snap_gpx/pkg/snap"
)

// gpxMediaTypes are the request content types accepted as GPX.
var gpxMediaTypes = map[string]bool{
	"application/gpx+xml": true,
	"application/xml":     true,
	"text/xml":            true,
}

// Options are the snapping defaults applied when a request leaves a
// parameter unset.
type Options struct {
	MaxDistance    float64
	Mode           snap.Mode
	IndexThreshold int
	MaxBodyBytes   int64
}

// DefaultOptions mirrors the CLI defaults.
func DefaultOptions() Options {
	return Options{
		MaxDistance:    snap.DefaultMaxDistance,
		Mode:           snap.ModeAdd,
		IndexThreshold: snap.DefaultIndexThreshold,
		MaxBodyBytes:   32 << 20,
	}
}

// counters are the running totals behind GET /api/v1/stats.
type counters struct {
	requests  atomic.Int64
	tracks    atomic.Int64
	inserted  atomic.Int64
	moved     atomic.Int64
	skipped   atomic.Int64
	discarded atomic.Int64
}

func (c *counters) record(r *snap.Report) {
	t := r.Totals()
	c.requests.Add(1)
	c.tracks.Add(int64(len(r.Tracks)))
	c.inserted.Add(int64(t.Inserted))
	c.moved.Add(int64(t.Moved))
	c.skipped.Add(int64(t.Skipped))
	c.discarded.Add(int64(t.Discarded))
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	opts    Options
	started time.Time
	stats   counters
}

// NewHandlers creates handlers with the given snapping defaults.
func NewHandlers(opts Options) *Handlers {
	return &Handlers{
		opts:    opts,
		started: time.Now(),
	}
}

// HandleSnap handles POST /api/v1/snap. The body is a GPX document; the
// response is the snapped document, or a JSON report wrapping it when
// format=json.
func (h *Handlers) HandleSnap(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !gpxMediaTypes[mediaType] {
		writeError(w, http.StatusBadRequest, "invalid_request", "content_type", "")
		return
	}

	// Parse query parameters.
	q := r.URL.Query()
	maxDist := h.opts.MaxDistance
	if s := q.Get("max_distance"); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "max_distance", "")
			return
		}
		maxDist = d
	}
	mode := h.opts.Mode
	if s := q.Get("mode"); s != "" {
		m, err := snap.ParseMode(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "mode", "")
			return
		}
		mode = m
	}
	format := q.Get("format")
	if format == "" {
		format = "gpx"
	}
	if format != "gpx" && format != "json" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "format", "")
		return
	}

	// Read and parse the document.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "", "")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "", "")
		return
	}
	doc, err := gpxio.ParseBytes(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_gpx", "", err.Error())
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "", "")
		return
	}

	// Snap.
	report := snap.Run(doc.Tracks(), doc.Waypoints(), snap.Options{
		MaxDistance: maxDist,
		Mode:        mode,
		Finder:      snap.NewFinder(h.opts.IndexThreshold),
	})
	h.stats.record(report)

	out, err := doc.Marshal()
	if err != nil {
		log.Printf("Marshal snapped document: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "", "")
		return
	}

	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "", "")
		return
	}

	if format == "json" {
		js, err := json.Marshal(SnapResponse{Report: report, GPX: string(out)})
		if err != nil {
			log.Printf("Marshal snap response: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "", "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(append(js, '\n'))
		return
	}
	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Header().Set("X-Snap-Summary", report.Summary())
	w.Write(out)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatsResponse{
		Requests:           h.stats.requests.Load(),
		Tracks:             h.stats.tracks.Load(),
		WaypointsInserted:  h.stats.inserted.Load(),
		WaypointsMoved:     h.stats.moved.Load(),
		WaypointsSkipped:   h.stats.skipped.Load(),
		WaypointsDiscarded: h.stats.discarded.Load(),
		UptimeSeconds:      time.Since(h.started).Seconds(),
	})
}

func writeError(w http.ResponseWriter, status int, code, field, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field, Detail: detail})
}
