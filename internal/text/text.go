// Package text holds the small string transforms used by the content
// forms: URL slugs, YouTube embed URLs and Brazilian phone masking.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug    = regexp.MustCompile(`[^a-z0-9]+`)
	youtubeRe  = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\s]+)`)
	nonNumeric = regexp.MustCompile(`\D`)
)

// Slugify turns a title into a URL slug: accents stripped via NFD
// decomposition, any non-alphanumeric run collapsed to a single hyphen,
// leading/trailing hyphens dropped.
func Slugify(title string) string {
	stripped, _, _ := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), strings.ToLower(title))
	slug := nonSlug.ReplaceAllString(stripped, "-")
	return strings.Trim(slug, "-")
}

// YouTubeEmbedURL converts a watch or short-link YouTube URL to its
// embed form. It returns "" when no video id can be extracted.
func YouTubeEmbedURL(url string) string {
	m := youtubeRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return "https://www.youtube.com/embed/" + m[1]
}

// FormatPhone applies the Brazilian phone mask as the user types:
// "11987654321" becomes "(11) 98765-4321". Input beyond eleven digits
// is truncated.
func FormatPhone(value string) string {
	numbers := nonNumeric.ReplaceAllString(value, "")
	switch {
	case len(numbers) <= 2:
		return numbers
	case len(numbers) <= 7:
		return "(" + numbers[:2] + ") " + numbers[2:]
	default:
		if len(numbers) > 11 {
			numbers = numbers[:11]
		}
		return "(" + numbers[:2] + ") " + numbers[2:7] + "-" + numbers[7:]
	}
}
