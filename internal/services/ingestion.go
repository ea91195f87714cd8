package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ubilern/internal/extract"
	"ubilern/internal/logging"
)

// ProgressCallback is called during loading to report progress.
type ProgressCallback func(step, message string, current, total int)

// LoadResult summarises one load run.
type LoadResult struct {
	Source    string
	Extracted int
	Stored    int
	Abandoned int
}

// IngestionService turns document text into stored questions.
type IngestionService struct {
	pdf       *PDFService
	questions *QuestionService
	logger    *logging.Logger
}

func NewIngestionService(pdf *PDFService, questions *QuestionService, logger *logging.Logger) *IngestionService {
	return &IngestionService{pdf: pdf, questions: questions, logger: logger}
}

// LoadFile reads path, as PDF when it has a .pdf extension and as plain
// text otherwise, and stores every question found in it.
func (s *IngestionService) LoadFile(ctx context.Context, path string, progress ProgressCallback) (*LoadResult, error) {
	report(progress, "read", "Reading "+filepath.Base(path), 0, 100)

	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		var err error
		if text, err = s.pdf.ExtractText(path); err != nil {
			return nil, fmt.Errorf("extract text from %s: %w", path, err)
		}
	} else {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		text = string(raw)
	}

	result, err := s.LoadText(ctx, text, progress)
	if err != nil {
		return nil, err
	}
	result.Source = path
	return result, nil
}

// LoadText extracts questions from text and stores them.
func (s *IngestionService) LoadText(ctx context.Context, text string, progress ProgressCallback) (*LoadResult, error) {
	report(progress, "extract", "Extracting questions", 30, 100)

	ex := extract.NewExtractor()
	records := ex.Extract(text)
	result := &LoadResult{
		Extracted: len(records),
		Abandoned: ex.Abandoned(),
	}
	s.logger.Info("questions extracted", "count", result.Extracted, "abandoned", result.Abandoned)

	report(progress, "save", fmt.Sprintf("Saving %d questions", len(records)), 70, 100)
	stored, err := s.questions.BulkInsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}
	result.Stored = stored

	report(progress, "complete", "Loading complete", 100, 100)
	return result, nil
}

func report(progress ProgressCallback, step, message string, current, total int) {
	if progress != nil {
		progress(step, message, current, total)
	}
}
