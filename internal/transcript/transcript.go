// Package transcript finds a search snippet inside a timed transcript and widens it to
// the surrounding sentences.
package transcript

import (
	"fmt"
	"strings"

	"github.com/atenger/gmfc101/internal/models"
)

const (
	// MatchWords is how many leading words of a snippet must line up with the transcript.
	MatchWords = 10
	// DefaultWindow is the number of sentences kept on each side of the matched one.
	DefaultWindow = 15
)

type Excerpt struct {
	Text      string
	Start     float64
	End       float64
	MatchedAt float64
}

// Locate finds the first MatchWords words of snippet as a consecutive, case-insensitive
// run of punctuated words, then returns the sentence containing the run's first word
// together with up to window sentences on either side.
func Locate(doc *models.Transcript, snippet string, window int) (*Excerpt, bool) {
	alt, err := doc.Primary()
	if err != nil {
		return nil, false
	}

	at, ok := findWords(alt.Words, leadingWords(snippet))
	if !ok {
		return nil, false
	}

	sentences := alt.Sentences()
	idx := -1
	for i, s := range sentences {
		if s.Start <= at && at <= s.End {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	lo := max(0, idx-window)
	hi := min(len(sentences), idx+window+1)
	span := sentences[lo:hi]

	texts := make([]string, len(span))
	for i, s := range span {
		texts[i] = s.Text
	}
	return &Excerpt{
		Text:      strings.Join(texts, " "),
		Start:     span[0].Start,
		End:       span[len(span)-1].End,
		MatchedAt: at,
	}, true
}

func leadingWords(snippet string) []string {
	words := strings.Fields(strings.ToLower(snippet))
	if len(words) > MatchWords {
		words = words[:MatchWords]
	}
	return words
}

func findWords(words []models.Word, target []string) (float64, bool) {
	for i := range words {
		if i+len(target) > len(words) {
			break
		}
		match := true
		for j, t := range target {
			if strings.ToLower(words[i+j].PunctuatedWord) != t {
				match = false
				break
			}
		}
		if match {
			return words[i].Start, true
		}
	}
	return 0, false
}

// FormatTimestamp renders seconds as MM:SS, or HH:MM:SS from one hour on.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// AnchoredURL drops any query string from base and points it at the given second.
func AnchoredURL(base string, seconds float64) string {
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%s?t=%d", base, int(seconds))
}
