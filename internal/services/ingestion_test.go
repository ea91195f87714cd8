package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilern/internal/logging"
)

const twoQuestions = `1. First
question? [1]

a) right

b) wrong

c) wrong too

d) still wrong

2. Broken question without end marker

3. Second? [3]

a) yes

b) no

c) maybe

d) never
`

func newTestIngestion(t *testing.T) (*IngestionService, *QuestionService) {
	t.Helper()
	store := newTestStore(t)
	return NewIngestionService(NewPDFService(), store, logging.NewNop()), store
}

func TestLoadTextStoresExtractedQuestions(t *testing.T) {
	ingest, store := newTestIngestion(t)
	ctx := context.Background()

	var steps []string
	result, err := ingest.LoadText(ctx, twoQuestions, func(step, _ string, _, _ int) {
		steps = append(steps, step)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Extracted)
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, 1, result.Abandoned)
	assert.Equal(t, []string{"extract", "save", "complete"}, steps)

	rec, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "First question?", rec.Question)
	assert.Equal(t, []string{"wrong", "wrong too", "still wrong"}, rec.Distractors)
}

func TestLoadTextTwiceKeepsProgress(t *testing.T) {
	ingest, store := newTestIngestion(t)
	ctx := context.Background()

	_, err := ingest.LoadText(ctx, twoQuestions, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateMastery(ctx, 3, 2))

	_, err = ingest.LoadText(ctx, twoQuestions, nil)
	require.NoError(t, err)

	progress, capacity, err := store.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, progress)
	assert.Equal(t, 6, capacity)
}

func TestLoadFileReadsPlainText(t *testing.T) {
	ingest, store := newTestIngestion(t)
	path := filepath.Join(t.TempDir(), "fragen.txt")
	require.NoError(t, os.WriteFile(path, []byte(twoQuestions), 0o644))

	result, err := ingest.LoadFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, result.Source)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLoadFileMissing(t *testing.T) {
	ingest, _ := newTestIngestion(t)

	_, err := ingest.LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.Error(t, err)

	_, err = ingest.LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), nil)
	assert.Error(t, err)
}

func TestLoadTextWithoutQuestions(t *testing.T) {
	ingest, store := newTestIngestion(t)

	result, err := ingest.LoadText(context.Background(), "just a page header\n\n17\n", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Stored)

	empty, err := store.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
}
