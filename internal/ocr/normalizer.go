/**
 * OCR result normalization
 *
 * Converts one engine invocation's raw result into an ordered detection
 * list plus a formatted text blob. Pure transformation: skipped lines
 * are logged as advisory warnings, never errors.
 */

package ocr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nlpforge/raglab/internal/logging"
)

// Point is one vertex of a detection's bounding polygon.
type Point struct {
	X float64
	Y float64
}

// Detection is one recognized text span.
type Detection struct {
	Index      int
	Text       string
	Confidence float64
	Polygon    []Point // nil when the engine reports no box
}

// plainTextSeparator divides the annotated section from the plain-text
// section in formatted output.
const plainTextSeparator = "=== Plain Text ==="

// Normalizer converts raw OCR results into detections.
type Normalizer struct {
	log *logging.Logger
}

// NewNormalizer creates a normalizer. Advisory skip warnings go to log.
func NewNormalizer(log *logging.Logger) *Normalizer {
	if log == nil {
		log = logging.NewLogger("ocr")
	}
	return &Normalizer{log: log}
}

// Normalize classifies the raw result and produces the ordered detection
// list. Unrecognized shapes yield zero detections.
func (n *Normalizer) Normalize(raw RawResult) []Detection {
	shape := ClassifyShape(raw)

	switch shape.Kind {
	case ShapeBatch:
		return n.normalizeBatch(shape.Batch)
	case ShapeFlatText:
		return n.normalizeFlatText(shape.Texts)
	case ShapeLegacyLine:
		return n.normalizeLegacyLines(shape.Lines)
	default:
		if len(raw) > 0 {
			n.log.Warn("unrecognized OCR result shape, producing zero detections")
		}
		return nil
	}
}

// normalizeBatch pulls parallel text/score/polygon arrays by index.
// A missing confidence defaults to 1.0; a missing polygon is absent.
func (n *Normalizer) normalizeBatch(batch map[string]interface{}) []Detection {
	texts := asSlice(batch["rec_texts"])
	scores := asSlice(batch["rec_scores"])
	polys := asSlice(batch["dt_polys"])

	detections := make([]Detection, 0, len(texts))
	for idx, rawText := range texts {
		text, ok := rawText.(string)
		if !ok {
			n.log.Warn("skipping non-text entry in rec_texts", "index", idx)
			continue
		}

		confidence := 1.0
		if idx < len(scores) {
			c, ok := coerceFloat(scores[idx])
			if !ok {
				n.log.Warn("skipping detection with uncoercible confidence", "index", idx)
				continue
			}
			confidence = c
		}

		var polygon []Point
		if idx < len(polys) {
			polygon = coercePolygon(polys[idx])
		}

		detections = append(detections, Detection{
			Index:      len(detections),
			Text:       text,
			Confidence: clampConfidence(confidence),
			Polygon:    polygon,
		})
	}
	return detections
}

// normalizeFlatText treats every top-level element as one text span with
// confidence fixed at 1.0.
func (n *Normalizer) normalizeFlatText(texts []interface{}) []Detection {
	detections := make([]Detection, 0, len(texts))
	for idx, raw := range texts {
		text, ok := raw.(string)
		if !ok || text == "" {
			if !ok {
				n.log.Warn("skipping non-text entry in flat result", "index", idx)
			}
			continue
		}
		detections = append(detections, Detection{
			Index:      len(detections),
			Text:       text,
			Confidence: 1.0,
		})
	}
	return detections
}

// normalizeLegacyLines handles [polygon, (text, confidence)] entries.
// Entries whose inner pair is malformed are skipped with a warning.
func (n *Normalizer) normalizeLegacyLines(lines []interface{}) []Detection {
	var detections []Detection
	for idx, rawLine := range lines {
		line := asSlice(rawLine)
		if len(line) < 2 {
			n.log.Warn("skipping malformed OCR line", "index", idx)
			continue
		}

		pair := asSlice(line[1])
		if len(pair) < 2 {
			n.log.Warn("skipping OCR line with malformed text pair", "index", idx)
			continue
		}

		text, ok := pair[0].(string)
		if !ok {
			n.log.Warn("skipping OCR line with non-text content", "index", idx)
			continue
		}

		confidence, ok := coerceFloat(pair[1])
		if !ok {
			n.log.Warn("skipping detection with uncoercible confidence", "index", idx)
			continue
		}

		detections = append(detections, Detection{
			Index:      len(detections),
			Text:       text,
			Confidence: clampConfidence(confidence),
			Polygon:    coercePolygon(line[0]),
		})
	}
	return detections
}

// FormatText renders the ordered detection list as two sections: one
// annotated line per detection, then the plain texts. An empty detection
// list yields an empty body.
func FormatText(detections []Detection) string {
	if len(detections) == 0 {
		return ""
	}

	var annotated strings.Builder
	var plain strings.Builder
	for i, det := range detections {
		if i > 0 {
			annotated.WriteByte('\n')
			plain.WriteByte('\n')
		}
		fmt.Fprintf(&annotated, "[Block %d] (conf: %.2f): %s", i+1, det.Confidence, det.Text)
		plain.WriteString(det.Text)
	}

	return annotated.String() + "\n\n" + plainTextSeparator + "\n" + plain.String()
}

// ParsePlainText recovers the detection texts, in order, from a
// formatted text blob. Returns nil when the blob has no plain-text
// section (i.e. zero detections).
func ParsePlainText(formatted string) []string {
	marker := "\n\n" + plainTextSeparator + "\n"
	pos := strings.Index(formatted, marker)
	if pos < 0 {
		return nil
	}
	section := formatted[pos+len(marker):]
	if section == "" {
		return nil
	}
	return strings.Split(section, "\n")
}

// ConfidenceStats computes mean, min, and max confidence over exactly
// the detections present. All three are 0.0 for an empty list.
func ConfidenceStats(detections []Detection) (mean, min, max float64) {
	if len(detections) == 0 {
		return 0.0, 0.0, 0.0
	}

	min = detections[0].Confidence
	max = detections[0].Confidence
	sum := 0.0
	for _, det := range detections {
		sum += det.Confidence
		if det.Confidence < min {
			min = det.Confidence
		}
		if det.Confidence > max {
			max = det.Confidence
		}
	}
	return sum / float64(len(detections)), min, max
}

func clampConfidence(c float64) float64 {
	if c < 0.0 {
		return 0.0
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// coerceFloat converts the numeric representations engines emit into a
// float64. Returns false for anything it cannot interpret.
func coerceFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// coercePolygon converts a nested point sequence into []Point. Anything
// malformed yields nil; a bad polygon never discards its detection.
func coercePolygon(v interface{}) []Point {
	rawPoints := asSlice(v)
	if len(rawPoints) == 0 {
		return nil
	}

	points := make([]Point, 0, len(rawPoints))
	for _, rawPoint := range rawPoints {
		pair := asSlice(rawPoint)
		if len(pair) < 2 {
			return nil
		}
		x, okX := coerceFloat(pair[0])
		y, okY := coerceFloat(pair[1])
		if !okX || !okY {
			return nil
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}
