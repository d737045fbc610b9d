package feed

import (
	"cmp"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	OutboundShapeSuffix = "_0"
	ReturnShapeSuffix   = "_1"
)

// SegmentedShapes is a shape table where every shape describes a single direction
type SegmentedShapes struct {
	Points []Shape

	// Split maps the id of every circular shape to the ids of its outbound and return halves
	Split map[string][2]string
}

// IDs returns the set of shape ids present after segmentation
func (s *SegmentedShapes) IDs() map[string]bool {
	ids := map[string]bool{}
	for _, point := range s.Points {
		ids[point.ID] = true
	}

	return ids
}

// SegmentShapes replaces every circular shape with an outbound and a return half
func SegmentShapes(points []Shape) *SegmentedShapes {
	grouped := map[string][]Shape{}
	for _, point := range points {
		grouped[point.ID] = append(grouped[point.ID], point)
	}

	shapeIDs := maps.Keys(grouped)
	slices.Sort(shapeIDs)

	segmented := &SegmentedShapes{
		Points: make([]Shape, 0, len(points)),
		Split:  map[string][2]string{},
	}

	for _, shapeID := range shapeIDs {
		shapePoints := grouped[shapeID]
		slices.SortStableFunc(shapePoints, func(a, b Shape) int {
			return cmp.Compare(a.PointSequence, b.PointSequence)
		})

		if !IsCircular(shapePoints) {
			segmented.Points = append(segmented.Points, shapePoints...)
			continue
		}

		outboundID := shapeID + OutboundShapeSuffix
		returnID := shapeID + ReturnShapeSuffix
		breakpoint := splitBreakpoint(shapePoints[len(shapePoints)-1].PointSequence)

		outboundSequence, returnSequence := 0, 0
		for _, point := range shapePoints {
			if point.PointSequence <= breakpoint {
				point.ID = outboundID
				point.PointSequence = outboundSequence
				outboundSequence++
			} else {
				point.ID = returnID
				point.PointSequence = returnSequence
				returnSequence++
			}

			segmented.Points = append(segmented.Points, point)
		}

		segmented.Split[shapeID] = [2]string{outboundID, returnID}

		log.Debug().
			Str("shape", shapeID).
			Int("breakpoint", breakpoint).
			Int("outbound", outboundSequence).
			Int("return", returnSequence).
			Msg("Split circular shape")
	}

	return segmented
}

// IsCircular reports whether the first and last points (by sequence) coincide at 4 decimal places.
// The points must already be ordered by sequence.
func IsCircular(points []Shape) bool {
	if len(points) < 2 {
		return false
	}

	first := points[0]
	last := points[len(points)-1]

	return coordinateKey(first) == coordinateKey(last)
}

func coordinateKey(point Shape) string {
	return fmt.Sprintf("%.4f,%.4f", round4(point.PointLatitude), round4(point.PointLongitude))
}

func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}

// Half-way sequences round to even, so a maximum sequence of 5 splits after point 2
func splitBreakpoint(maxSequence int) int {
	return int(math.RoundToEven(float64(maxSequence) / 2))
}
