package rosary

import (
	"fmt"
	"strings"
	"time"
)

// Mystery selects one of the four sets of meditations prayed over the decades.
type Mystery int

const (
	Joyful Mystery = iota
	Sorrowful
	Glorious
	Luminous
)

var mysteryIDs = [...]string{"joyful", "sorrowful", "glorious", "luminous"}

var mysteryTitles = [...]string{"Joyful", "Sorrowful", "Glorious", "Luminous"}

var meditations = [...][5]string{
	Joyful: {
		"The Annunciation",
		"The Visitation",
		"The Nativity",
		"The Presentation",
		"The Finding in the Temple",
	},
	Sorrowful: {
		"The Agony in the Garden",
		"The Scourging at the Pillar",
		"The Crowning with Thorns",
		"The Carrying of the Cross",
		"The Crucifixion",
	},
	Glorious: {
		"The Resurrection",
		"The Ascension",
		"The Descent of the Holy Spirit",
		"The Assumption",
		"The Coronation of Mary",
	},
	Luminous: {
		"The Baptism of Jesus",
		"The Wedding at Cana",
		"The Proclamation of the Kingdom",
		"The Transfiguration",
		"The Institution of the Eucharist",
	},
}

// Mysteries returns all four mysteries in their customary order.
func Mysteries() []Mystery {
	return []Mystery{Joyful, Sorrowful, Glorious, Luminous}
}

// Valid reports whether m is one of the four mysteries.
func (m Mystery) Valid() bool {
	return m >= Joyful && m <= Luminous
}

// ID is the lowercase identifier used on the command line and in config.
func (m Mystery) ID() string {
	if !m.Valid() {
		return "unknown"
	}
	return mysteryIDs[m]
}

func (m Mystery) Title() string {
	if !m.Valid() {
		return "Unknown"
	}
	return mysteryTitles[m]
}

func (m Mystery) String() string {
	return m.ID()
}

// Meditations returns the five captions of the mystery in decade order.
func (m Mystery) Meditations() []string {
	if !m.Valid() {
		return nil
	}
	out := make([]string, len(meditations[m]))
	copy(out, meditations[m][:])
	return out
}

// ParseMystery accepts an id or title, case-insensitively.
func ParseMystery(s string) (Mystery, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Mysteries() {
		if needle == m.ID() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mystery %q (want one of %s)", s, strings.Join(mysteryIDs[:], ", "))
}

// ForDate returns the mystery traditionally prayed on the weekday of t.
func ForDate(t time.Time) Mystery {
	switch t.Weekday() {
	case time.Monday, time.Saturday:
		return Joyful
	case time.Tuesday, time.Friday:
		return Sorrowful
	case time.Thursday:
		return Luminous
	default:
		return Glorious
	}
}
