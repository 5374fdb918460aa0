package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlpforge/raglab/internal/errors"
)

// fakeEngine returns a canned raw result and records whether it ran.
type fakeEngine struct {
	result RawResult
	err    error
	calls  int
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) Language() string { return "eng" }

func (f *fakeEngine) Recognize(_ context.Context, _ string) (RawResult, error) {
	f.calls++
	return f.result, f.err
}

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not real image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProducesDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "page.png")

	engine := &fakeEngine{result: RawResult{map[string]interface{}{
		"rec_texts":  []interface{}{"hello", "world"},
		"rec_scores": []interface{}{0.9, 0.8},
	}}}
	reader := NewImageReader(engine, nil)

	doc, err := reader.Load(context.Background(), path, map[string]interface{}{"batch": "b1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if doc.ID == "" {
		t.Error("document ID is empty")
	}
	if doc.Metadata["file_name"] != "page.png" {
		t.Errorf("file_name = %v", doc.Metadata["file_name"])
	}
	if doc.Metadata["num_text_blocks"] != 2 {
		t.Errorf("num_text_blocks = %v, want 2", doc.Metadata["num_text_blocks"])
	}
	if avg := doc.Metadata["avg_confidence"].(float64); !almostEqual(avg, 0.85) {
		t.Errorf("avg_confidence = %v, want 0.85", avg)
	}
	if doc.Metadata["min_confidence"].(float64) != 0.8 || doc.Metadata["max_confidence"].(float64) != 0.9 {
		t.Errorf("min/max = %v/%v", doc.Metadata["min_confidence"], doc.Metadata["max_confidence"])
	}
	if doc.Metadata["batch"] != "b1" {
		t.Errorf("extra metadata not merged: %v", doc.Metadata["batch"])
	}
	imagePath, _ := doc.Metadata["image_path"].(string)
	if !filepath.IsAbs(imagePath) {
		t.Errorf("image_path is not absolute: %q", imagePath)
	}
}

func TestLoadExtraMetadataOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "page.png")

	engine := &fakeEngine{result: RawResult{"hello"}}
	reader := NewImageReader(engine, nil)

	doc, err := reader.Load(context.Background(), path, map[string]interface{}{"language": "deu"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Metadata["language"] != "deu" {
		t.Errorf("caller metadata should win, got %v", doc.Metadata["language"])
	}
}

func TestLoadFileNotFound(t *testing.T) {
	engine := &fakeEngine{}
	reader := NewImageReader(engine, nil)

	_, err := reader.Load(context.Background(), "/nonexistent/page.png", nil)
	if errors.CodeOf(err) != errors.ErrorFileNotFound {
		t.Errorf("error code = %v, want FILE_NOT_FOUND", errors.CodeOf(err))
	}
	if engine.calls != 0 {
		t.Errorf("engine ran %d times for a missing file", engine.calls)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "animation.gif")

	engine := &fakeEngine{}
	reader := NewImageReader(engine, nil)

	_, err := reader.Load(context.Background(), path, nil)
	if errors.CodeOf(err) != errors.ErrorUnsupportedFormat {
		t.Errorf("error code = %v, want UNSUPPORTED_FORMAT", errors.CodeOf(err))
	}
	// Format rejection happens before the engine ever runs.
	if engine.calls != 0 {
		t.Errorf("engine ran %d times for an unsupported format", engine.calls)
	}
}

func TestLoadEngineFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "page.png")

	engine := &fakeEngine{err: os.ErrPermission}
	reader := NewImageReader(engine, nil)

	_, err := reader.Load(context.Background(), path, nil)
	if errors.CodeOf(err) != errors.ErrorOCRFailed {
		t.Errorf("error code = %v, want OCR_FAILED", errors.CodeOf(err))
	}
}

func TestLoadEmptyResult(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "blank.png")

	engine := &fakeEngine{result: nil}
	reader := NewImageReader(engine, nil)

	doc, err := reader.Load(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Text != "" {
		t.Errorf("text = %q, want empty", doc.Text)
	}
	if doc.Metadata["num_text_blocks"] != 0 {
		t.Errorf("num_text_blocks = %v, want 0", doc.Metadata["num_text_blocks"])
	}
	if doc.Metadata["avg_confidence"].(float64) != 0.0 {
		t.Errorf("avg_confidence = %v, want 0.0", doc.Metadata["avg_confidence"])
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	reader := NewImageReader(&fakeEngine{}, nil)

	_, _, err := reader.LoadDir(context.Background(), "/nonexistent/dir", false, nil)
	if errors.CodeOf(err) != errors.ErrorMissingInput {
		t.Errorf("error code = %v, want MISSING_INPUT", errors.CodeOf(err))
	}
}

func TestLoadDirEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	reader := NewImageReader(&fakeEngine{}, nil)

	docs, failures, err := reader.LoadDir(context.Background(), dir, false, nil)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(docs) != 0 || len(failures) != 0 {
		t.Errorf("expected empty results, got %d docs, %d failures", len(docs), len(failures))
	}
}

func TestLoadDirIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "a.png")
	writeTestImage(t, dir, "b.png")
	writeTestImage(t, dir, "c.png")

	engine := &failOnSecondEngine{}
	reader := NewImageReader(engine, nil)

	docs, failures, err := reader.LoadDir(context.Background(), dir, false, nil)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if filepath.Base(failures[0].Path) != "b.png" {
		t.Errorf("failed path = %s, want b.png", failures[0].Path)
	}
	if errors.CodeOf(failures[0].Err) != errors.ErrorOCRFailed {
		t.Errorf("failure code = %v, want OCR_FAILED", errors.CodeOf(failures[0].Err))
	}
}

func TestLoadDirRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestImage(t, dir, "top.png")
	writeTestImage(t, sub, "deep.jpg")

	engine := &fakeEngine{result: RawResult{"text"}}
	reader := NewImageReader(engine, nil)

	docs, _, err := reader.LoadDir(context.Background(), dir, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("non-recursive found %d docs, want 1", len(docs))
	}

	docs, _, err = reader.LoadDir(context.Background(), dir, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("recursive found %d docs, want 2", len(docs))
	}
}

func TestSupportedFormatsSorted(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) == 0 {
		t.Fatal("no supported formats")
	}
	for i := 1; i < len(formats); i++ {
		if formats[i-1] >= formats[i] {
			t.Errorf("formats not sorted: %v", formats)
		}
	}
}

// failOnSecondEngine fails exactly the second image it sees.
type failOnSecondEngine struct {
	calls int
}

func (f *failOnSecondEngine) Name() string     { return "fake" }
func (f *failOnSecondEngine) Language() string { return "eng" }

func (f *failOnSecondEngine) Recognize(_ context.Context, _ string) (RawResult, error) {
	f.calls++
	if f.calls == 2 {
		return nil, os.ErrInvalid
	}
	return RawResult{"recognized"}, nil
}
