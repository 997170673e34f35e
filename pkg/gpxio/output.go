package gpxio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrOutputExists is returned by WriteFile when the target exists and
// overwriting was not requested.
var ErrOutputExists = errors.New("output file already exists")

// OutputPath derives the default output name from the input path and the
// snapping distance: "ride.gpx" at 100 m becomes "ride_snapped_100.gpx".
func OutputPath(input string, maxDistance float64) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return fmt.Sprintf("%s_snapped_%s.gpx", base, formatDistance(maxDistance))
}

// formatDistance prints whole distances without a fraction.
func formatDistance(d float64) string {
	if d == math.Trunc(d) && math.Abs(d) < 1e15 {
		return strconv.FormatInt(int64(d), 10)
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

// outputMode is the permission of newly created output files.
const outputMode os.FileMode = 0o644

// WriteFile writes data to path through a temporary file in the same
// directory, so a failed write never leaves a truncated output behind. A new
// file gets mode 0644; an overwritten file keeps its permissions.
func WriteFile(path string, data []byte, overwrite bool) error {
	mode := outputMode
	if info, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("%s: %w", path, ErrOutputExists)
		}
		mode = info.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	// CreateTemp uses 0600.
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
