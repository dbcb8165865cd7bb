package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrizeTable_PrizeForLevel(t *testing.T) {
	table := DefaultPrizeTable()

	tests := []struct {
		name    string
		level   int
		want    int64
		wantErr bool
	}{
		{"first rung", 0, 100, false},
		{"first fireproof rung", 4, 1000, false},
		{"second fireproof rung", 9, 32000, false},
		{"top prize", 14, 1000000, false},
		{"below ladder", -1, 0, true},
		{"above ladder", 15, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.PrizeForLevel(tt.level)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrizeTable_FireproofPrizeBelow(t *testing.T) {
	table := DefaultPrizeTable()

	tests := []struct {
		name  string
		level int
		want  int64
	}{
		{"failed before first guaranteed rung", 0, 0},
		{"failed at level 4", 4, 0},
		{"failed just past first guaranteed rung", 5, 1000},
		{"failed between guaranteed rungs", 9, 1000},
		{"failed just past second guaranteed rung", 10, 32000},
		{"failed on the last question", 14, 32000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.FireproofPrizeBelow(tt.level))
		})
	}
}

func TestPrizeTable_Validate(t *testing.T) {
	assert.NoError(t, DefaultPrizeTable().Validate())

	t.Run("empty ladder", func(t *testing.T) {
		assert.Error(t, PrizeTable{}.Validate())
	})

	t.Run("non increasing ladder", func(t *testing.T) {
		table := PrizeTable{Prizes: []int64{100, 100, 300}}
		assert.Error(t, table.Validate())
	})

	t.Run("fireproof outside ladder", func(t *testing.T) {
		table := PrizeTable{Prizes: []int64{100, 200}, Fireproof: []int{5}}
		assert.Error(t, table.Validate())
	})

	t.Run("duplicate fireproof level", func(t *testing.T) {
		table := PrizeTable{Prizes: []int64{100, 200, 300}, Fireproof: []int{1, 1}}
		assert.Error(t, table.Validate())
	})
}

func TestPrizeTable_MaxLevel(t *testing.T) {
	assert.Equal(t, 14, DefaultPrizeTable().MaxLevel())
}
