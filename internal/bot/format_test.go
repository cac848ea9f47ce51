package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

func TestFormatPercent(t *testing.T) {
	tests := map[float64]string{
		0.95:               "95",
		0.9440424588727485: "94.4",
		0.87654:            "87.65",
		1:                  "100",
		0:                  "0",
		0.123:              "12.3",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatPercent(in), "similarity %v", in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := map[float64]string{
		0:      "00:00",
		59.99:  "00:59",
		120.4:  "02:00",
		126.8:  "02:06",
		3725.0: "62:05",
		-3:     "00:00",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatTimestamp(in), "seconds %v", in)
	}
}

func TestFormatMatch(t *testing.T) {
	r := tracemoe.Result{
		AniList:    tracemoe.AniList{ID: 1535, Title: tracemoe.Title{Romaji: "Death Note", English: "Death Note"}},
		Episode:    tracemoe.Episode{Value: "3"},
		From:       120.4,
		To:         126.8,
		Similarity: 0.95,
	}

	text := FormatMatch(r)

	assert.Contains(t, text, "📺 <b>Anime:</b> Death Note\n")
	assert.Contains(t, text, "📼 <b>Episode:</b> 3\n")
	assert.Contains(t, text, "⏱ <b>Time:</b> 02:00 - 02:06\n")
	assert.Contains(t, text, "🎯 <b>Similarity:</b> 95%")
	assert.Contains(t, text, `<a href="https://anilist.co/anime/1535">`)
}

func TestFormatMatch_TitlePreference(t *testing.T) {
	tests := []struct {
		name  string
		title tracemoe.Title
		want  string
	}{
		{"native first", tracemoe.Title{Native: "デスノート", Romaji: "Death Note"}, "デスノート"},
		{"romaji second", tracemoe.Title{Romaji: "Shingeki no Kyojin", English: "Attack on Titan"}, "Shingeki no Kyojin"},
		{"english third", tracemoe.Title{English: "Attack on Titan"}, "Attack on Titan"},
		{"placeholder", tracemoe.Title{}, unknownTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FormatMatch(tracemoe.Result{AniList: tracemoe.AniList{Title: tt.title}})
			assert.Contains(t, text, "<b>Anime:</b> "+tt.want+"\n")
		})
	}
}

func TestFormatMatch_EscapesAndOptionalParts(t *testing.T) {
	r := tracemoe.Result{
		AniList:    tracemoe.AniList{Title: tracemoe.Title{English: "Love <3 & Peace"}},
		Similarity: 0.5,
	}

	text := FormatMatch(r)

	assert.Contains(t, text, "Love &lt;3 &amp; Peace")
	assert.Contains(t, text, "<b>Episode:</b> ?\n")
	assert.NotContains(t, text, "anilist.co", "no link without a catalog id")
}
