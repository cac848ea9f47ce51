package bot

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/anisearchapp/anisearch-bot/internal/tracemoe"
)

// FormatMatch renders a search result as the HTML reply text.
func FormatMatch(r tracemoe.Result) string {
	title := r.AniList.Title.Preferred()
	if title == "" {
		title = unknownTitle
	}

	var b strings.Builder
	b.WriteString("✅ <b>Found it!</b>\n\n")
	fmt.Fprintf(&b, "📺 <b>Anime:</b> %s\n", html.EscapeString(title))
	fmt.Fprintf(&b, "📼 <b>Episode:</b> %s\n", html.EscapeString(r.Episode.String()))
	fmt.Fprintf(&b, "⏱ <b>Time:</b> %s - %s\n", formatTimestamp(r.From), formatTimestamp(r.To))
	fmt.Fprintf(&b, "🎯 <b>Similarity:</b> %s%%", formatPercent(r.Similarity))

	if r.AniList.ID > 0 {
		fmt.Fprintf(&b, "\n\n🔗 <a href=\"%s%d\">AniList page</a>", anilistURL, r.AniList.ID)
	}
	return b.String()
}

// formatPercent renders a [0,1] similarity as a percentage rounded to two
// decimals with trailing zeros dropped: 0.95 -> "95", 0.94404 -> "94.4".
func formatPercent(similarity float64) string {
	return strconv.FormatFloat(math.Round(similarity*10000)/100, 'f', -1, 64)
}

// formatTimestamp renders seconds as MM:SS, truncating fractions.
// Minutes are not wrapped into hours.
func formatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
