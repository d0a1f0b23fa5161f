package extract

import (
	"regexp"
	"strings"
)

// decodeContentText pulls the literal strings shown by Tj/TJ/'/" operators out
// of a page content stream. It is a best-effort plain-text decode: glyph
// positioning and font encodings beyond basic escapes are ignored.
func decodeContentText(content []byte) string {
	var (
		sb      strings.Builder
		pending []string
	)

	flush := func(lineBreak bool) {
		if len(pending) > 0 {
			sb.WriteString(strings.Join(pending, ""))
			pending = pending[:0]
		}
		if lineBreak {
			sb.WriteByte('\n')
		}
	}

	i := 0
	for i < len(content) {
		switch content[i] {
		case '(':
			str, next := readLiteralString(content, i)
			pending = append(pending, str)
			i = next
		case 'T':
			if i+1 < len(content) {
				switch content[i+1] {
				case 'j', 'J':
					flush(false)
					pending = append(pending, " ")
					i += 2
					continue
				case 'd', 'D', '*':
					flush(true)
					i += 2
					continue
				}
			}
			i++
		case '\'', '"':
			flush(true)
			i++
		case '%':
			// comment runs to end of line
			for i < len(content) && content[i] != '\n' {
				i++
			}
		default:
			i++
		}
	}
	flush(false)
	return sb.String()
}

// readLiteralString consumes a PDF literal string starting at the '(' in
// content[start] and returns the decoded text plus the index past the closing
// parenthesis. Balanced parentheses and backslash escapes per the PDF spec.
func readLiteralString(content []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 < len(content) {
				switch content[i+1] {
				case 'n':
					sb.WriteByte('\n')
				case 'r':
					sb.WriteByte('\r')
				case 't':
					sb.WriteByte('\t')
				case '(', ')', '\\':
					sb.WriteByte(content[i+1])
				}
				i += 2
				continue
			}
			i++
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
			i++
		default:
			if depth > 0 {
				sb.WriteByte(c)
			}
			i++
		}
	}
	return sb.String(), i
}

var (
	trailingSpaceRE = regexp.MustCompile(`(?m)[ \t]+$`)
	manyNewlinesRE  = regexp.MustCompile(`\n{3,}`)
	manySpacesRE    = regexp.MustCompile(`[ \t]{2,}`)
)

// normalizeText removes NUL bytes, normalizes line endings and collapses
// redundant whitespace while keeping paragraph breaks.
func normalizeText(text string) string {
	t := strings.ReplaceAll(text, "\x00", " ")
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = manySpacesRE.ReplaceAllString(t, " ")
	t = trailingSpaceRE.ReplaceAllString(t, "")
	t = manyNewlinesRE.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}
