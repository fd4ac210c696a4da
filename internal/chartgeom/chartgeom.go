// Package chartgeom computes proportional radial chart geometry: angular
// segment bounds, annulus path specs, and stroke-dash lengths. It is pure
// geometry with no knowledge of any specific chart's semantics.
package chartgeom

import (
	"fmt"
	"math"
	"strings"
)

// Share is one named percentage slice of a radial chart. Percentages are
// taken as given and not renormalized, so upstream rounding is preserved.
type Share struct {
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

// Segment is the angular span computed for one share. Angles are in degrees
// measured clockwise from the 12 o'clock position. Consecutive segments are
// contiguous by construction: each EndAngle is the next StartAngle.
type Segment struct {
	Label      string  `json:"label"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	Path       string  `json:"path,omitempty"`
}

// StrokeSegment expresses a share as a dash length along a circle's
// circumference, for ring charts drawn with stroke-dasharray. Offset is the
// negative sum of all prior segment lengths.
type StrokeSegment struct {
	Label      string  `json:"label"`
	Length     float64 `json:"length"`
	Offset     float64 `json:"offset"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
}

// ComputeSegments converts shares into contiguous angular segments scaled by
// the animation progress in [0,1]. A zero-percentage share (or zero
// progress) yields a zero-span segment that leaves its neighbors' boundaries
// untouched.
func ComputeSegments(shares []Share, progress float64) []Segment {
	progress = clamp01(progress)

	segments := make([]Segment, 0, len(shares))
	angle := 0.0
	for _, s := range shares {
		span := clampPercentage(s.Percentage) / 100 * 360 * progress
		segments = append(segments, Segment{
			Label:      s.Label,
			StartAngle: angle,
			EndAngle:   angle + span,
		})
		angle += span
	}
	return segments
}

// AnnulusSegments computes segments and attaches an annulus path spec for
// each, parameterized by center and inner/outer radii. Zero-span segments
// get an empty path so the rendering layer can skip them.
func AnnulusSegments(shares []Share, progress, cx, cy, r0, r1 float64) []Segment {
	segments := ComputeSegments(shares, progress)
	for i := range segments {
		if segments[i].EndAngle > segments[i].StartAngle {
			segments[i].Path = AnnulusPath(cx, cy, r0, r1, segments[i].StartAngle, segments[i].EndAngle)
		}
	}
	return segments
}

// StrokeSegments expresses shares as dash lengths along the given
// circumference, boundary-consistent with the angular mode
func StrokeSegments(shares []Share, progress, circumference float64) []StrokeSegment {
	progress = clamp01(progress)
	if circumference < 0 || math.IsNaN(circumference) || math.IsInf(circumference, 0) {
		circumference = 0
	}

	segments := make([]StrokeSegment, 0, len(shares))
	offset := 0.0
	angle := 0.0
	for _, s := range shares {
		frac := clampPercentage(s.Percentage) / 100 * progress
		length := frac * circumference
		span := frac * 360
		segments = append(segments, StrokeSegment{
			Label:      s.Label,
			Length:     length,
			Offset:     -offset,
			StartAngle: angle,
			EndAngle:   angle + span,
		})
		offset += length
		angle += span
	}
	return segments
}

// AnnulusPath builds an SVG path spec for one annulus segment between
// startAngle and endAngle (degrees, clockwise from 12 o'clock): outer arc
// forward, radial edge inward, inner arc back, close. The large-arc flag is
// set when the span exceeds 180 degrees.
func AnnulusPath(cx, cy, r0, r1, startAngle, endAngle float64) string {
	outerStartX, outerStartY := PointOnCircle(cx, cy, r1, startAngle)
	outerEndX, outerEndY := PointOnCircle(cx, cy, r1, endAngle)
	innerEndX, innerEndY := PointOnCircle(cx, cy, r0, endAngle)
	innerStartX, innerStartY := PointOnCircle(cx, cy, r0, startAngle)

	largeArc := 0
	if endAngle-startAngle > 180 {
		largeArc = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s", coord(outerStartX), coord(outerStartY))
	fmt.Fprintf(&b, " A %s %s 0 %d 1 %s %s", coord(r1), coord(r1), largeArc, coord(outerEndX), coord(outerEndY))
	fmt.Fprintf(&b, " L %s %s", coord(innerEndX), coord(innerEndY))
	fmt.Fprintf(&b, " A %s %s 0 %d 0 %s %s", coord(r0), coord(r0), largeArc, coord(innerStartX), coord(innerStartY))
	b.WriteString(" Z")
	return b.String()
}

// PointOnCircle converts a clockwise-from-12-o'clock angle in degrees to
// Cartesian coordinates on a circle of radius r centered at (cx, cy)
func PointOnCircle(cx, cy, r, angleDeg float64) (x, y float64) {
	rad := (angleDeg - 90) * math.Pi / 180
	return cx + r*math.Cos(rad), cy + r*math.Sin(rad)
}

func coord(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// clampPercentage clamps malformed percentages (negative or non-finite) to
// zero so they never produce malformed geometry
func clampPercentage(pct float64) float64 {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
		return 0
	}
	return pct
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
