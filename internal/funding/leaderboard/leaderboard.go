// Package leaderboard ranks donors by cumulative cross-project donation
// amount. Ranking is descending by total; donors with equal totals keep
// their first-global-donation order.
package leaderboard

import (
	id "givepool/pkg/domain"
)

// Entry is one ranked donor.
type Entry struct {
	Donor id.AccountID `json:"donor"`
	Total int64        `json:"total"`
}

// Rank orders the snapshot by total, descending. The input order slice is
// the distinct-donor list in first-donation order, which is also the
// tie-break: a donor who reached a total earlier ranks ahead of a later
// donor with the same total.
//
// Selection sort over the insertion-ordered list: only a strictly greater
// total displaces the current pick, so ties resolve to the earlier donor.
// Quadratic, fine for the donor counts this serves.
func Rank(order []id.AccountID, totals map[id.AccountID]int64) []Entry {
	entries := make([]Entry, 0, len(order))
	for _, donor := range order {
		entries = append(entries, Entry{Donor: donor, Total: totals[donor]})
	}
	for i := range entries {
		best := i
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Total > entries[best].Total {
				best = j
			}
		}
		if best != i {
			picked := entries[best]
			copy(entries[i+1:best+1], entries[i:best])
			entries[i] = picked
		}
	}
	return entries
}

// Slice returns the half-open window [start, end) of a ranking. Out-of-range
// windows degrade rather than fail: start at or past the end of the ranking,
// or start >= end, yields an empty slice; end is clamped to the ranking
// length.
func Slice(entries []Entry, start, end int) []Entry {
	if start < 0 {
		start = 0
	}
	if end > len(entries) {
		end = len(entries)
	}
	if start >= end {
		return []Entry{}
	}
	out := make([]Entry, end-start)
	copy(out, entries[start:end])
	return out
}
