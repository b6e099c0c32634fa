package quotes

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tuma-app/tuma/backend/internal/models"
)

const (
	// MaxChecklistItems caps a checklist synthesised from a quote.
	MaxChecklistItems = 20
	minFragmentRunes  = 3
)

var (
	fragmentSeparators = strings.NewReplacer(
		"\r", "\n", "•", "\n", "·", "\n", "▪", "\n", "◦", "\n", ";", "\n", "|", "\n",
	)
	// numbering must be followed by a space: "1.5 jours" is not a list item
	listMarker = regexp.MustCompile(`^\s*(?:[-*+•>]+|\d+[.)](?:\s|$))\s*`)
)

// MissionTitle is the deterministic title of the mission generated for q.
func MissionTitle(q *models.Quote) string {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		return q.QuoteNumber
	}
	return q.QuoteNumber + " - " + title
}

// Fragments splits free text into sub-task labels: one per line, bullet, semicolon or
// pipe, with list markers removed and too-short fragments dropped.
func Fragments(text string) []string {
	var out []string
	for _, part := range strings.Split(fragmentSeparators.Replace(text), "\n") {
		frag := strings.TrimSpace(part)
		for {
			stripped := strings.TrimSpace(listMarker.ReplaceAllString(frag, ""))
			if stripped == frag {
				break
			}
			frag = stripped
		}
		if utf8.RuneCountInString(frag) < minFragmentRunes {
			continue
		}
		out = append(out, frag)
	}
	return out
}

func quantityPrefix(q float64) string {
	if q <= 1 {
		return ""
	}
	return strconv.FormatFloat(q, 'f', -1, 64) + " x "
}

// BuildChecklist synthesises a mission checklist from a quote: fragments of every line
// item (prefixed with the quantity when above one), then of the description and notes.
// Fragments are deduplicated case-insensitively, first occurrence wins, and the list is
// capped at MaxChecklistItems.
func BuildChecklist(q *models.Quote) []models.ChecklistItem {
	items := []models.ChecklistItem{}
	seen := map[string]bool{}
	add := func(prefix, frag string) bool {
		key := strings.ToLower(frag)
		if seen[key] {
			return true
		}
		seen[key] = true
		items = append(items, models.ChecklistItem{ID: uuid.NewString(), Label: prefix + frag})
		return len(items) < MaxChecklistItems
	}

	for _, li := range q.Items {
		prefix := quantityPrefix(li.Quantity)
		for _, frag := range Fragments(li.Description) {
			if !add(prefix, frag) {
				return items
			}
		}
	}
	for _, text := range []string{q.Description, q.Notes} {
		for _, frag := range Fragments(text) {
			if !add("", frag) {
				return items
			}
		}
	}
	return items
}
