// Package forecast builds prompts for the AI forecaster and reads the projected path back out of its reply.
//
// The reply may carry one envelope:
//
//	PROJECTED_PATH_START
//	[timestamp_ms, price]
//	...
//	PROJECTED_PATH_END
//
// and may separate its prose from the envelope with TEXTUAL_ANALYSIS_END_MARKER.
package forecast

import (
	"regexp"
	"strconv"
	"strings"

	"crypto-chart-bot/internal/domain"
)

const (
	PathStartMarker  = "PROJECTED_PATH_START"
	PathEndMarker    = "PROJECTED_PATH_END"
	TextualEndMarker = "TEXTUAL_ANALYSIS_END_MARKER"
)

var pathEntry = regexp.MustCompile(`\[\s*(\d+)\s*,\s*(\d+(?:\.\d*)?|\.\d+)\s*\]`)

type PathStatus int

const (
	PathNotFound PathStatus = iota
	PathFound
)

// PathResult is either Found with at least one point or NotFound. NotFound is not an error.
type PathResult struct {
	Status PathStatus
	Points []domain.ForecastPoint
}

func (r PathResult) Found() bool {
	return r.Status == PathFound
}

// envelope locates the first start marker and the first end marker after it.
// It returns the byte offsets of the whole block and of its body.
func envelope(text string) (blockStart, bodyStart, bodyEnd, blockEnd int, ok bool) {
	blockStart = strings.Index(text, PathStartMarker)
	if blockStart < 0 {
		return 0, 0, 0, 0, false
	}
	bodyStart = blockStart + len(PathStartMarker)
	rel := strings.Index(text[bodyStart:], PathEndMarker)
	if rel < 0 {
		return 0, 0, 0, 0, false
	}
	bodyEnd = bodyStart + rel
	blockEnd = bodyEnd + len(PathEndMarker)
	return blockStart, bodyStart, bodyEnd, blockEnd, true
}

// ParsePath extracts the ordered points found inside the envelope.
func ParsePath(text string) PathResult {
	_, bodyStart, bodyEnd, _, ok := envelope(text)
	if !ok {
		return PathResult{Status: PathNotFound}
	}

	var points []domain.ForecastPoint
	for _, m := range pathEntry.FindAllStringSubmatch(text[bodyStart:bodyEnd], -1) {
		// Timestamps are re-laid onto the horizon grid, so an unparseable one still keeps its price.
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			ts = 0
		}
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.ForecastPoint{TimestampMs: ts, Price: price})
	}
	if len(points) == 0 {
		return PathResult{Status: PathNotFound}
	}
	return PathResult{Status: PathFound, Points: points}
}

// Split separates the prose from the raw path block. With a textual end marker the prose is
// everything before it; otherwise the block is cut out of the full text.
func Split(text string) (textual string, rawBlock string, hasBlock bool) {
	blockStart, _, _, blockEnd, ok := envelope(text)
	if ok {
		rawBlock = text[blockStart:blockEnd]
		hasBlock = true
	}

	if idx := strings.Index(text, TextualEndMarker); idx >= 0 {
		return strings.TrimSpace(text[:idx]), rawBlock, hasBlock
	}
	if hasBlock {
		return strings.TrimSpace(text[:blockStart] + text[blockEnd:]), rawBlock, true
	}
	return strings.TrimSpace(text), "", false
}
