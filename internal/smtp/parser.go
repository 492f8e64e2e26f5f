package smtp

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

// ErrEmptyReply is returned when a reply has no text above the quoted history
var ErrEmptyReply = errors.New("reply has no new text")

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<style[^>]*>.*?</style>`)
	breakRe       = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	// "On Tue, 2 Jan 2024 at 10:00, Sea & Tea <no-reply@...> wrote:"
	attributionRe = regexp.MustCompile(`(?i)^on\s.+wrote:\s*$`)
)

// ParsedReply is the part of an inbound email that becomes a message
type ParsedReply struct {
	From    string
	Subject string
	Body    string
}

// ParseReply parses an email and extracts the text the replier typed
func ParseReply(r io.Reader) (*ParsedReply, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	text := env.Text
	if strings.TrimSpace(text) == "" && env.HTML != "" {
		text = stripHTMLTags(env.HTML)
	}

	body := stripQuoted(text)
	if body == "" {
		return nil, ErrEmptyReply
	}

	return &ParsedReply{
		From:    env.GetHeader("From"),
		Subject: env.GetHeader("Subject"),
		Body:    body,
	}, nil
}

// stripQuoted keeps the lines above the quoted history
func stripQuoted(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if attributionRe.MatchString(trimmed) || trimmed == "-- " || line == "-- " {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// stripHTMLTags removes HTML tags from a string
func stripHTMLTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	html = breakRe.ReplaceAllString(html, "\n")
	html = tagRe.ReplaceAllString(html, "")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&amp;", "&",
	)
	return replacer.Replace(html)
}
