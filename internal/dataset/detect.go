package dataset

import (
	"sort"
	"strconv"
	"strings"
)

// textThreshold is the minimum proportion of non-numeric values for a
// column to count as text-like.
const textThreshold = 0.7

// ColumnStats summarizes one column for column selection.
type ColumnStats struct {
	Name        string
	NonNull     int
	Unique      int
	AvgLength   float64
	TextRatio   float64
	IsText      bool
	SampleValue string
}

// Stats computes per-column statistics over the whole table.
func (t *Table) Stats() []ColumnStats {
	stats := make([]ColumnStats, 0, len(t.Columns))
	for _, name := range t.Columns {
		values, _ := t.Column(name)

		s := ColumnStats{Name: name, NonNull: len(values)}
		if len(values) == 0 {
			stats = append(stats, s)
			continue
		}

		seen := make(map[string]bool, len(values))
		textCount := 0
		lengthSum := 0
		for _, v := range values {
			seen[v] = true
			lengthSum += len(v)
			if !isNumeric(v) {
				textCount++
			}
		}

		s.Unique = len(seen)
		s.AvgLength = float64(lengthSum) / float64(len(values))
		s.TextRatio = float64(textCount) / float64(len(values))
		s.IsText = s.TextRatio >= textThreshold
		s.SampleValue = values[0]
		stats = append(stats, s)
	}
	return stats
}

// TextColumns returns the names of text-like columns, longest average
// value first. The first entry is the best classification candidate.
func (t *Table) TextColumns() []string {
	stats := t.Stats()
	var text []ColumnStats
	for _, s := range stats {
		if s.IsText && s.NonNull > 0 {
			text = append(text, s)
		}
	}
	sort.SliceStable(text, func(i, j int) bool {
		return text[i].AvgLength > text[j].AvgLength
	})

	names := make([]string, len(text))
	for i, s := range text {
		names[i] = s.Name
	}
	return names
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}
