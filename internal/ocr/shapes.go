/**
 * OCR result shape classification
 *
 * OCR engines return their results in one of several shapes depending on
 * engine and version. Classification happens once, up front, producing a
 * tagged variant; normalization then dispatches on the variant instead
 * of scattering shape checks through the formatting logic.
 */

package ocr

// RawResult is the raw, engine-shaped output of one OCR invocation.
type RawResult []interface{}

// ShapeKind tags the recognized form of a RawResult.
type ShapeKind int

const (
	// ShapeEmpty: nil, empty, or unrecognized result. Normalizes to
	// zero detections rather than failing.
	ShapeEmpty ShapeKind = iota

	// ShapeBatch: first element is a key-value record with parallel
	// rec_texts / rec_scores / dt_polys arrays.
	ShapeBatch

	// ShapeFlatText: the whole result is a flat sequence of text
	// values, no confidences or boxes.
	ShapeFlatText

	// ShapeLegacyLine: first element is a sequence of
	// [polygon, (text, confidence)] line entries.
	ShapeLegacyLine
)

// Shape is the classified form of a raw result, carrying the data the
// matching normalization function needs.
type Shape struct {
	Kind ShapeKind

	// Batch record for ShapeBatch.
	Batch map[string]interface{}

	// All top-level elements for ShapeFlatText.
	Texts []interface{}

	// Line entries of the first element for ShapeLegacyLine.
	Lines []interface{}
}

// batchTextsKey marks the batch shape; its presence decides classification.
const batchTextsKey = "rec_texts"

// ClassifyShape inspects the first top-level element of a raw result and
// returns its tagged variant. Classification never fails: anything
// unrecognized is ShapeEmpty.
func ClassifyShape(raw RawResult) Shape {
	if len(raw) == 0 {
		return Shape{Kind: ShapeEmpty}
	}

	switch first := raw[0].(type) {
	case map[string]interface{}:
		if _, ok := first[batchTextsKey]; ok {
			return Shape{Kind: ShapeBatch, Batch: first}
		}
		return Shape{Kind: ShapeEmpty}

	case string:
		return Shape{Kind: ShapeFlatText, Texts: raw}

	case []interface{}:
		return Shape{Kind: ShapeLegacyLine, Lines: first}

	default:
		return Shape{Kind: ShapeEmpty}
	}
}
