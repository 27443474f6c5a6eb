package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/profile"
)

func TestApplyHistory(t *testing.T) {
	base := []profile.HistoryEntry{
		{EffectiveDate: "2025-05-02", CurrentWeight: 58, Age: 36, Height: 163},
		{EffectiveDate: "2025-05-01", CurrentWeight: 60, Age: 36, Height: 163},
	}

	tests := []struct {
		name      string
		history   []profile.HistoryEntry
		entry     profile.HistoryEntry
		wantLen   int
		wantHead  float64
		wantError error
	}{
		{
			name:     "empty history",
			entry:    profile.HistoryEntry{EffectiveDate: "2025-01-01", CurrentWeight: 70},
			wantLen:  1,
			wantHead: 70,
		},
		{
			name:     "later date is prepended",
			history:  base,
			entry:    profile.HistoryEntry{EffectiveDate: "2025-05-10", CurrentWeight: 56},
			wantLen:  3,
			wantHead: 56,
		},
		{
			name:     "same date replaces head",
			history:  base,
			entry:    profile.HistoryEntry{EffectiveDate: "2025-05-02", CurrentWeight: 57},
			wantLen:  2,
			wantHead: 57,
		},
		{
			name:      "earlier date is rejected",
			history:   base,
			entry:     profile.HistoryEntry{EffectiveDate: "2025-04-30", CurrentWeight: 61},
			wantError: profile.ErrBackdatedHistory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := profile.ApplyHistory(tt.history, tt.entry)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantHead, got[0].CurrentWeight)
			assert.Equal(t, tt.entry.EffectiveDate, got[0].EffectiveDate)
		})
	}
}

func TestApplyHistory_DoesNotModifyInput(t *testing.T) {
	history := []profile.HistoryEntry{{EffectiveDate: "2025-05-01", CurrentWeight: 60}}

	_, err := profile.ApplyHistory(history, profile.HistoryEntry{EffectiveDate: "2025-05-01", CurrentWeight: 59})
	require.NoError(t, err)

	assert.Equal(t, 60.0, history[0].CurrentWeight)
}

func TestApplyHistory_Monotonic(t *testing.T) {
	history := []profile.HistoryEntry{{EffectiveDate: "2025-01-01", CurrentWeight: 80}}
	dates := []string{"2025-01-02", "2025-01-05", "2025-02-01", "2025-03-15"}

	for i, date := range dates {
		var err error
		history, err = profile.ApplyHistory(history, profile.HistoryEntry{EffectiveDate: date, CurrentWeight: 79 - float64(i)})
		require.NoError(t, err)
	}

	assert.Len(t, history, len(dates)+1)
	assert.Equal(t, "2025-03-15", history[0].EffectiveDate)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i-1].EffectiveDate, history[i].EffectiveDate)
	}
}
