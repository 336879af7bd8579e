package summary

import (
	"testing"
	"time"
)

func TestSnapshotNamesTodaysMystery(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC), "Rosary · Joyful"},
		{time.Date(2026, time.October, 13, 9, 0, 0, 0, time.UTC), "Rosary · Sorrowful"},
		{time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC), "Rosary · Glorious"},
		{time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC), "Rosary · Luminous"},
	}
	for _, tt := range tests {
		got := Snapshot(tt.date)
		if got.Title != "Divinity" || got.Subtitle != tt.want || !got.Date.Equal(tt.date) {
			t.Fatalf("Snapshot(%s) = %+v, want subtitle %q", tt.date.Weekday(), got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	now := time.Now()
	if got := Placeholder(now); got.Title != "Divinity" || got.Subtitle != "Rosary" {
		t.Fatalf("unexpected placeholder %+v", got)
	}
}

func TestTimelineRefreshesEveryHalfHour(t *testing.T) {
	now := time.Date(2026, time.October, 17, 21, 45, 0, 0, time.UTC)
	entries, next := Timeline(now)
	if len(entries) != 1 || entries[0] != Snapshot(now) {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if want := now.Add(30 * time.Minute); !next.Equal(want) {
		t.Fatalf("next refresh = %s, want %s", next, want)
	}
}
