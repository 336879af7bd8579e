package rosary

import (
	"encoding/json"
	"fmt"
)

// ContentKind tells a prayer reference apart from literal text.
type ContentKind string

const (
	KindPrayer ContentKind = "prayerId"
	KindText   ContentKind = "text"
)

// Content is either a reference into the prayer catalog or literal text.
type Content struct {
	Kind  ContentKind `json:"kind"`
	Value string      `json:"value"`
}

// PrayerReference points at a catalog prayer by id.
func PrayerReference(id string) Content {
	return Content{Kind: KindPrayer, Value: id}
}

// LiteralText is spoken verbatim.
func LiteralText(value string) Content {
	return Content{Kind: KindText, Value: value}
}

// IsPrayer reports whether the content must be resolved through the catalog.
func (c Content) IsPrayer() bool {
	return c.Kind == KindPrayer
}

// UnmarshalJSON decodes unknown kinds as literal text.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode step content: %w", err)
	}
	switch ContentKind(raw.Kind) {
	case KindPrayer:
		*c = PrayerReference(raw.Value)
	default:
		*c = LiteralText(raw.Value)
	}
	return nil
}

// Step is one atomic unit of a rosary script.
type Step struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Content Content `json:"content"`
}

// Script is the ordered sequence of steps for one mystery.
type Script []Step

// LastIndex is len-1, or -1 for an empty script.
func (s Script) LastIndex() int {
	return len(s) - 1
}
