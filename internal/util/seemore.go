package util

import "strings"

const (
	// SeeMorePadding zero-width spaces push the body behind the chat client's
	// "see more" fold.
	SeeMorePadding = 500
	zeroWidthSpace = "\u200b"
)

// FoldLongText puts header on the visible line and folds body behind padding.
// Empty bodies are returned unchanged.
func FoldLongText(header, body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	body = StripLeadingHeader(body, header)
	header = strings.TrimSpace(header)

	var b strings.Builder
	b.Grow(len(header) + len(body) + SeeMorePadding*len(zeroWidthSpace) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(zeroWidthSpace, SeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

// StripLeadingHeader drops header and the line breaks after it when body
// starts with it.
func StripLeadingHeader(body, header string) string {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(body, header) {
		return body
	}
	rest := strings.TrimPrefix(body, header)
	return strings.TrimLeft(rest, "\r\n")
}
