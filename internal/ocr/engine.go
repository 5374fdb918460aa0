/**
 * OCR engine adapter
 *
 * Wraps a local Tesseract install behind the Engine interface. The
 * engine emits the batch result shape (parallel texts / scores /
 * polygons); when Tesseract reports no line boxes it falls back to
 * whole-image text in the flat shape.
 */

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine produces a raw OCR result for one image.
type Engine interface {
	Name() string
	Language() string
	Recognize(ctx context.Context, path string) (RawResult, error)
}

// TesseractEngine performs OCR through Tesseract.
type TesseractEngine struct {
	lang string
}

// NewTesseractEngine creates an engine for the given language code
// (Tesseract traineddata name, e.g. "eng", "chi_sim").
func NewTesseractEngine(lang string) *TesseractEngine {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractEngine{lang: lang}
}

// Name identifies the engine in document metadata.
func (t *TesseractEngine) Name() string {
	return "tesseract"
}

// Language returns the configured recognition language.
func (t *TesseractEngine) Language() string {
	return t.lang
}

// Recognize runs OCR on the image at path.
func (t *TesseractEngine) Recognize(ctx context.Context, path string) (RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.lang); err != nil {
		return nil, fmt.Errorf("failed to set OCR language %q: %w", t.lang, err)
	}

	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(boxes) == 0 {
		return t.recognizeWholeImage(client)
	}

	var texts, scores, polys []interface{}
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}

		texts = append(texts, text)
		// Tesseract reports confidence on a 0-100 scale.
		scores = append(scores, box.Confidence/100.0)
		polys = append(polys, rectPolygon(
			float64(box.Box.Min.X), float64(box.Box.Min.Y),
			float64(box.Box.Max.X), float64(box.Box.Max.Y),
		))
	}

	if len(texts) == 0 {
		return RawResult{}, nil
	}

	return RawResult{map[string]interface{}{
		"rec_texts":  texts,
		"rec_scores": scores,
		"dt_polys":   polys,
	}}, nil
}

// recognizeWholeImage extracts the full image text and emits it as the
// flat shape, one line per text value.
func (t *TesseractEngine) recognizeWholeImage(client *gosseract.Client) (RawResult, error) {
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	var result RawResult
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	if result == nil {
		result = RawResult{}
	}
	return result, nil
}

// rectPolygon converts an axis-aligned box into the four-point polygon
// form detections carry.
func rectPolygon(x0, y0, x1, y1 float64) []interface{} {
	return []interface{}{
		[]interface{}{x0, y0},
		[]interface{}{x1, y0},
		[]interface{}{x1, y1},
		[]interface{}{x0, y1},
	}
}
