package api

import "snap_gpx/pkg/snap"

// SnapResponse is the JSON response for POST /api/v1/snap?format=json.
type SnapResponse struct {
	Report *snap.Report `json:"report"`
	GPX    string       `json:"gpx"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	Requests           int64   `json:"requests"`
	Tracks             int64   `json:"tracks"`
	WaypointsInserted  int64   `json:"waypoints_inserted"`
	WaypointsMoved     int64   `json:"waypoints_moved"`
	WaypointsSkipped   int64   `json:"waypoints_skipped"`
	WaypointsDiscarded int64   `json:"waypoints_discarded"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
