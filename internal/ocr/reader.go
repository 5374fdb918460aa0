/**
 * Image document reader
 *
 * Document-loader adapter over an OCR engine: given image path(s), it
 * produces Document records with the formatted text blob and an OCR
 * metadata record, ready for indexing.
 */

package ocr

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nlpforge/raglab/internal/document"
	"github.com/nlpforge/raglab/internal/errors"
	"github.com/nlpforge/raglab/internal/logging"
)

// supportedFormats is the accepted raster image extension set.
var supportedFormats = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// SupportedFormats returns the accepted extensions in sorted order.
func SupportedFormats() []string {
	exts := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ItemFailure records one failed image inside a directory batch.
type ItemFailure struct {
	Path string
	Err  error
}

// ImageReader loads images through an OCR engine into Documents.
type ImageReader struct {
	engine Engine
	norm   *Normalizer
	log    *logging.Logger
}

// NewImageReader creates a reader over the given engine.
func NewImageReader(engine Engine, log *logging.Logger) *ImageReader {
	if log == nil {
		log = logging.NewLogger("ocr")
	}
	return &ImageReader{
		engine: engine,
		norm:   NewNormalizer(log),
		log:    log,
	}
}

// Load runs OCR on one image and returns its Document. extra metadata
// is merged last, so caller-supplied keys may overwrite computed ones.
func (r *ImageReader) Load(ctx context.Context, path string, extra map[string]interface{}) (document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return document.Document{}, errors.NewFileNotFoundError(path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return document.Document{}, errors.NewUnsupportedFormatError(path, ext)
	}

	raw, err := r.engine.Recognize(ctx, path)
	if err != nil {
		return document.Document{}, errors.NewOCRFailedError(path, err)
	}

	detections := r.norm.Normalize(raw)
	text := FormatText(detections)
	mean, min, max := ConfidenceStats(detections)

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	metadata := map[string]interface{}{
		"image_path":      absPath,
		"file_name":       filepath.Base(path),
		"ocr_engine":      r.engine.Name(),
		"language":        r.engine.Language(),
		"num_text_blocks": len(detections),
		"avg_confidence":  round4(mean),
		"min_confidence":  round4(min),
		"max_confidence":  round4(max),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	r.log.Debug("image normalized",
		"file", filepath.Base(path),
		"blocks", len(detections),
		"avg_confidence", round4(mean))

	return document.Document{
		ID:       uuid.New().String(),
		Text:     text,
		Metadata: metadata,
	}, nil
}

// LoadDir enumerates supported images under dir (recursively when asked)
// and loads each one. Items fail independently: a bad file lands in the
// failure list without discarding the rest of the batch. An empty match
// set returns an empty list with an operator-visible warning.
func (r *ImageReader) LoadDir(ctx context.Context, dir string, recursive bool, extra map[string]interface{}) ([]document.Document, []ItemFailure, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil, errors.NewMissingInputError(dir)
	}

	paths, err := r.findImages(dir, recursive)
	if err != nil {
		return nil, nil, err
	}

	if len(paths) == 0 {
		r.log.Warn("no matching images found in directory", "dir", dir, "recursive", recursive)
		return []document.Document{}, nil, nil
	}

	r.log.Info("processing image batch", "dir", dir, "count", len(paths))

	var docs []document.Document
	var failures []ItemFailure
	for _, path := range paths {
		doc, err := r.Load(ctx, path, extra)
		if err != nil {
			r.log.Warn("skipping failed image", "path", path, "error", err)
			failures = append(failures, ItemFailure{Path: path, Err: err})
			continue
		}
		docs = append(docs, doc)
	}

	return docs, failures, nil
}

func (r *ImageReader) findImages(dir string, recursive bool) ([]string, error) {
	var paths []string

	if recursive {
		err := filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && supportedFormats[strings.ToLower(filepath.Ext(path))] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if supportedFormats[strings.ToLower(filepath.Ext(entry.Name()))] {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
