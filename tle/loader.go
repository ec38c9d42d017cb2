package tle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/signalsfoundry/orbitpool/model"
)

// Load reads the TLE file for one constellation and date (YYYYMMDD) from
// dir. The expected layout is <dir>/<constellation>_<date>.tle containing
// three-line groups (name line followed by the two element lines).
//
// A missing file yields model.MissingDataError; any group that does not form
// three well-formed lines aborts the load with model.ValidationError, since
// a partially ingested constellation would skew every downstream count.
func Load(dir string, cn model.Constellation, date string) ([]model.TLERecord, error) {
	if !cn.Valid() {
		return nil, fmt.Errorf("tle: unknown constellation %q", cn)
	}
	if len(date) != 8 {
		return nil, fmt.Errorf("tle: date %q must be YYYYMMDD", date)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.tle", cn, date))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &model.MissingDataError{Constellation: cn, Date: date, Path: path}
		}
		return nil, fmt.Errorf("tle: open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("tle: read %s: %w", path, err)
	}
	if len(lines)%3 != 0 {
		return nil, &model.ValidationError{
			Constellation: cn,
			Reason:        fmt.Sprintf("%s: %d non-empty lines do not form 3-line groups", path, len(lines)),
		}
	}

	records := make([]model.TLERecord, 0, len(lines)/3)
	seen := make(map[int]bool, len(lines)/3)
	for i := 0; i < len(lines); i += 3 {
		rec, err := ParseGroup(lines[i], lines[i+1], lines[i+2], cn)
		if err != nil {
			return nil, err
		}
		if seen[rec.SatelliteID] {
			return nil, &model.ValidationError{
				SatelliteID: rec.SatelliteID, Constellation: cn,
				Reason: "duplicate catalog number in file",
			}
		}
		seen[rec.SatelliteID] = true
		records = append(records, rec)
	}
	return records, nil
}

func readLines(f *os.File) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
