// Package tletest builds synthetic, checksum-valid TLE pairs for tests.
// Element values round-trip through the fixed-column format, so tests can
// assert on parsed output without hand-maintaining 69-character strings.
package tletest

import (
	"fmt"
	"math"
	"time"
)

// Params describes one synthetic satellite. Zero values are usable; only
// CatalogNumber and Epoch normally need setting.
type Params struct {
	CatalogNumber       int
	Epoch               time.Time
	InclinationDeg      float64
	RAANDeg             float64
	Eccentricity        float64
	ArgPerigeeDeg       float64
	MeanAnomalyDeg      float64
	MeanMotionRevPerDay float64
	RevNumber           int
}

// MakeTLE renders the pair of element lines for p. Mean motion defaults to
// 15.0 rev/day when unset so the resulting record always has a finite
// orbital period.
func MakeTLE(p Params) (line1, line2 string) {
	if p.MeanMotionRevPerDay == 0 {
		p.MeanMotionRevPerDay = 15.0
	}
	if p.Epoch.IsZero() {
		p.Epoch = time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	}
	epoch := p.Epoch.UTC()
	yy := epoch.Year() % 100
	dayOfYear := float64(epoch.YearDay()) +
		(time.Duration(epoch.Hour())*time.Hour+
			time.Duration(epoch.Minute())*time.Minute+
			time.Duration(epoch.Second())*time.Second).Seconds()/86400.0

	body1 := fmt.Sprintf("1 %05dU 24001A   %02d%012.8f  .00000000  00000-0  00000-0 0  999",
		p.CatalogNumber, yy, dayOfYear)
	line1 = appendChecksum(body1)

	body2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		p.CatalogNumber,
		p.InclinationDeg,
		p.RAANDeg,
		int(math.Round(p.Eccentricity*1e7)),
		p.ArgPerigeeDeg,
		p.MeanAnomalyDeg,
		p.MeanMotionRevPerDay,
		p.RevNumber)
	line2 = appendChecksum(body2)
	return line1, line2
}

func appendChecksum(body string) string {
	sum := 0
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			sum += int(r - '0')
		case r == '-':
			sum++
		}
	}
	return body + string(rune('0'+sum%10))
}
