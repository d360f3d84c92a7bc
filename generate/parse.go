package generate

import (
	"regexp"
	"strings"

	parable "github.com/parable-gpt/parable"
)

var (
	reTitle = regexp.MustCompile(`(?m)^\s*(?:\*\*)?Title:(?:\*\*)?\s*(.+?)\s*$`)
	reMoral = regexp.MustCompile(`(?m)^\s*(?:\*\*)?Moral:(?:\*\*)?\s*(.+?)\s*$`)
)

// ParseParable splits model output into title, body, and moral using the
// "Title:" / "Moral:" framing the prompt demands. Output that ignores the
// framing is kept whole as the body.
func ParseParable(output string) parable.Parable {
	p := parable.Parable{Raw: output}
	body := output

	if loc := reTitle.FindStringSubmatchIndex(output); loc != nil {
		p.Title = strings.Trim(output[loc[2]:loc[3]], `"*`)
		body = output[loc[1]:]
	}

	// Use the last "Moral:" line so a moral that quotes the word earlier in
	// the text does not truncate the body.
	if locs := reMoral.FindAllStringSubmatchIndex(body, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		p.Moral = strings.Trim(body[last[2]:last[3]], `"*`)
		body = body[:last[0]]
	}

	p.Body = strings.TrimSpace(body)
	return p
}
