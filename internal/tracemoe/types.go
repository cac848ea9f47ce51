package tracemoe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Title holds the title variants AniList knows for an entry. Any of them may
// be empty.
type Title struct {
	Native  string `json:"native"`
	Romaji  string `json:"romaji"`
	English string `json:"english"`
}

// Preferred returns the native title, then romaji, then English, or "" when
// all are empty. The result is NFC-normalized.
func (t Title) Preferred() string {
	for _, s := range []string{t.Native, t.Romaji, t.English} {
		if s = strings.TrimSpace(s); s != "" {
			return norm.NFC.String(s)
		}
	}
	return ""
}

// AniList is the catalog entry attached to a search result. Without
// anilistInfo the API sends only the numeric id, which decodes into ID.
type AniList struct {
	ID       int      `json:"id"`
	IDMal    int      `json:"idMal"`
	Title    Title    `json:"title"`
	Synonyms []string `json:"synonyms"`
	IsAdult  bool     `json:"isAdult"`
}

// UnmarshalJSON accepts either a bare id or the full object.
func (a *AniList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = AniList{}
		return nil
	case len(data) > 0 && data[0] == '{':
		type plain AniList
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*a = AniList(p)
		return nil
	default:
		var id int
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("anilist: expected id or object: %w", err)
		}
		*a = AniList{ID: id}
		return nil
	}
}

// Episode is the episode a match was found in. The API sends a number, a
// string, a list of candidate numbers or null.
type Episode struct {
	Value string // display form; empty when unknown
}

// Known reports whether the API identified an episode.
func (e Episode) Known() bool { return e.Value != "" }

func (e Episode) String() string {
	if !e.Known() {
		return "?"
	}
	return e.Value
}

// UnmarshalJSON decodes every episode shape the API uses.
func (e *Episode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = Episode{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = Episode{Value: strings.TrimSpace(s)}
	case '[':
		var nums []float64
		if err := json.Unmarshal(data, &nums); err != nil {
			return fmt.Errorf("episode: %w", err)
		}
		parts := make([]string, 0, len(nums))
		for _, n := range nums {
			parts = append(parts, formatNumber(n))
		}
		*e = Episode{Value: strings.Join(parts, ", ")}
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("episode: %w", err)
		}
		*e = Episode{Value: formatNumber(n)}
	}
	return nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Result is one ranked match from the search endpoint.
type Result struct {
	AniList    AniList `json:"anilist"`
	Filename   string  `json:"filename"`
	Episode    Episode `json:"episode"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	Similarity float64 `json:"similarity" validate:"gte=0,lte=1"`
	Video      string  `json:"video"`
	Image      string  `json:"image"`
}

// searchResponse is the body of POST /search.
type searchResponse struct {
	FrameCount int      `json:"frameCount"`
	Error      string   `json:"error"`
	Result     []Result `json:"result"`
}

// Anime is the catalog entry returned by GET /anilist/{id}.
type Anime struct {
	ID       int      `json:"id" validate:"gt=0"`
	IDMal    int      `json:"idMal"`
	Title    Title    `json:"title"`
	Synonyms []string `json:"synonyms"`
	IsAdult  bool     `json:"isAdult"`
	Episodes int      `json:"episodes"`
	Format   string   `json:"format"`
	Status   string   `json:"status"`
}
