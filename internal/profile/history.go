package profile

// ApplyHistory returns history with entry recorded at its head. An entry
// dated on the same day as the current head replaces it, a later one is
// prepended and an earlier one is rejected with ErrBackdatedHistory.
// The input slice is never modified.
func ApplyHistory(history []HistoryEntry, entry HistoryEntry) ([]HistoryEntry, error) {
	if len(history) == 0 {
		return []HistoryEntry{entry}, nil
	}

	// Dates are YYYY-MM-DD so lexical order is chronological.
	head := history[0]
	switch {
	case entry.EffectiveDate < head.EffectiveDate:
		return nil, ErrBackdatedHistory
	case entry.EffectiveDate == head.EffectiveDate:
		next := make([]HistoryEntry, len(history))
		copy(next, history)
		next[0] = entry
		return next, nil
	default:
		next := make([]HistoryEntry, 0, len(history)+1)
		next = append(next, entry)
		return append(next, history...), nil
	}
}
