package mastery

import (
	"math/rand/v2"

	"ubilern/internal/models"
)

// Scramble returns options in a uniformly random order together with the new
// position of options[0].
func Scramble(rng *rand.Rand, options []string) ([]string, int) {
	perm := rng.Perm(len(options))
	out := make([]string, len(options))
	correct := 0
	for i, src := range perm {
		out[i] = options[src]
		if src == 0 {
			correct = i
		}
	}
	return out, correct
}

// Present prepares rec for display with scrambled options and no selection.
func Present(rng *rand.Rand, rec models.QuestionRecord) *models.PresentedQuestion {
	options, correct := Scramble(rng, rec.Options())
	return &models.PresentedQuestion{
		Record:       rec,
		Options:      options,
		CorrectIndex: correct,
		Choice:       models.NoSelection(),
	}
}
