package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsAreSequential(t *testing.T) {
	require.Equal(t, 7, Count())
	for i, l := range All() {
		assert.Equal(t, i+1, l.ID)
		assert.NotEmpty(t, l.Title)
		assert.NotEmpty(t, l.Hint)
		assert.NotEmpty(t, l.Effects, "level %d has no effects", l.ID)
	}
}

func TestRevealLettersCoverFinalWord(t *testing.T) {
	seen := map[int]int{}
	for _, l := range All() {
		for _, e := range l.Effects {
			if e.Kind == RevealLetter {
				require.Less(t, e.Index, len(FinalWord))
				seen[e.Index] = l.ID
			}
		}
	}
	for i := 0; i < 6; i++ {
		assert.Equal(t, i+1, seen[i], "letter %d should be revealed by level %d", i, i+1)
	}
}

func TestLevelOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() { Level(0) })
	assert.Panics(t, func() { Level(Count() + 1) })
	assert.False(t, Valid(0))
	assert.True(t, Valid(Count()))
}

func TestSequenceLevelsHaveLabels(t *testing.T) {
	for _, l := range All() {
		switch l.Solution.Kind {
		case OrderedIndexSequence:
			for _, idx := range l.Solution.Sequence {
				assert.Less(t, idx, len(l.Labels))
			}
		case DynamicSequence:
			assert.Len(t, l.Labels, l.Solution.Alphabet)
			if l.Solution.Distinct {
				assert.LessOrEqual(t, l.Solution.Length, l.Solution.Alphabet)
			}
		}
	}
}

func TestRevealLevels(t *testing.T) {
	var gated []int
	for _, l := range All() {
		if l.NeedsReveal() {
			gated = append(gated, l.ID)
		}
		if l.Solution.Kind == DynamicSequence {
			assert.Positive(t, l.RevealHold, "level %d", l.ID)
		}
	}
	assert.Equal(t, []int{2, 3, 5}, gated)
	assert.Equal(t, 1300*time.Millisecond, Level(2).RevealHold)
	assert.Equal(t, 900*time.Millisecond, Level(5).RevealHold)
}

func TestLevelsAreCopies(t *testing.T) {
	l := Level(4)
	l.Solution.Sequence[0] = 8
	l.Labels[0] = "x"
	l.Effects[0].Index = 6

	all := All()
	all[2].Investigation[0] = "9"

	assert.Equal(t, []int{0, 2, 4, 6, 8}, Level(4).Solution.Sequence)
	assert.Equal(t, "◐", Level(4).Labels[0])
	assert.Equal(t, 3, Level(4).Effects[0].Index)
	assert.Equal(t, "2", Level(3).Investigation[0])
}
