// Package summary builds the glanceable "what to pray today" card.
package summary

import (
	"time"

	"divinity/internal/domain/rosary"
)

const (
	Title = "Divinity"

	// RefreshInterval is how long a timeline stays current.
	RefreshInterval = 30 * time.Minute
)

type Entry struct {
	Date     time.Time
	Title    string
	Subtitle string
}

// Placeholder is shown before anything date-specific is known.
func Placeholder(now time.Time) Entry {
	return Entry{Date: now, Title: Title, Subtitle: "Rosary"}
}

// Snapshot describes now, naming the mystery prayed on that weekday.
func Snapshot(now time.Time) Entry {
	return Entry{
		Date:     now,
		Title:    Title,
		Subtitle: "Rosary · " + rosary.ForDate(now).Title(),
	}
}

// Timeline returns the entries to display and when to ask again.
func Timeline(now time.Time) ([]Entry, time.Time) {
	return []Entry{Snapshot(now)}, now.Add(RefreshInterval)
}
