package mt

import (
	"fmt"
	"log/slog"
	"strings"
)

// Tag is a name/value pair. Values are raw text and may span several lines.
type Tag struct {
	Name  string
	Value string
}

func (t Tag) LogValue() slog.Value {
	return slog.GroupValue(slog.String("name", t.Name), slog.String("value", t.Value))
}

// TagBlock is an ordered list of tags. It holds the user header (block 3),
// the trailer (block 5) and custom named blocks. Names may repeat.
type TagBlock struct {
	ID   string
	Raw  string
	Tags []Tag
}

func (b *TagBlock) BlockID() string  { return b.ID }
func (b *TagBlock) RawValue() string { return b.Raw }
func (*TagBlock) block()             {}

// Len returns the number of tags.
func (b *TagBlock) Len() int {
	return len(b.Tags)
}

// Get returns the first tag with the given name.
func (b *TagBlock) Get(name string) (Tag, bool) {
	for _, t := range b.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// GetAll returns every tag with the given name, in input order.
func (b *TagBlock) GetAll(name string) []Tag {
	var tags []Tag
	for _, t := range b.Tags {
		if t.Name == name {
			tags = append(tags, t)
		}
	}
	return tags
}

// Values is like GetAll but returns only the values.
func (b *TagBlock) Values(name string) []string {
	var values []string
	for _, t := range b.Tags {
		if t.Name == name {
			values = append(values, t.Value)
		}
	}
	return values
}

// TextBlock is block 4. Its tags come from the line-oriented tag grammar,
// except in service messages where block 4 is written as a tag list.
// Leading holds body text in front of the first tag line. Malformed holds
// the incomplete last line of a body whose "-}" terminator never came; that
// text also ends the last tag's value.
type TextBlock struct {
	TagBlock
	Leading   string
	Malformed string
}

// IsTagStart reports whether s begins with a text block tag name and its
// closing colon: two digits, an optional upper-case letter, then ':'. In a
// text block it is applied to the rest of a line that starts with ':'.
func IsTagStart(s string) bool {
	if len(s) < 3 || !isDigit(s[0]) || !isDigit(s[1]) {
		return false
	}
	if s[2] == ':' {
		return true
	}
	return len(s) >= 4 && 'A' <= s[2] && s[2] <= 'Z' && s[3] == ':'
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

// tagLine reports whether a tag line starts at content[i], a line start, and
// returns the tag name and where its value begins.
func tagLine(content string, i int) (string, int, bool) {
	if i >= len(content) || content[i] != ':' || !IsTagStart(content[i+1:]) {
		return "", 0, false
	}
	end := i + 1 + strings.IndexByte(content[i+1:], ':')
	return content[i+1 : end], end + 1, true
}

// trimSeparator strips the one line break that separates a value from the
// next tag line. Any earlier line breaks belong to the value.
func trimSeparator(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}

func trimLeadingBreak(s string) int {
	switch {
	case strings.HasPrefix(s, "\r\n"):
		return 2
	case strings.HasPrefix(s, "\n"):
		return 1
	}
	return 0
}

// splitTextTags segments a text block body into tags. A value runs from its
// tag line to the next tag line or the end of the body. Text in front of the
// first tag line is returned as leading.
func splitTextTags(content string) (tags []Tag, leading string) {
	lead := trimLeadingBreak(content)
	name, value := "", -1
	for pos := lead; ; {
		if n, v, ok := tagLine(content, pos); ok {
			if value >= 0 {
				tags = append(tags, Tag{Name: name, Value: trimSeparator(content[value:pos])})
			} else if pos > lead {
				leading = trimSeparator(content[lead:pos])
			}
			name, value = n, v
		}
		nl := strings.IndexByte(content[pos:], '\n')
		if nl < 0 {
			break
		}
		pos += nl + 1
	}
	if value >= 0 {
		tags = append(tags, Tag{Name: name, Value: trimSeparator(content[value:])})
	} else if lead < len(content) {
		leading = trimSeparator(content[lead:])
	}
	return tags, leading
}

// splitTagList segments "{name:value}{name:value}..." into tags. Entries are
// read with brace counting so values may hold nested braces. Text found
// between entries is kept as a tag without a name and reported.
func splitTagList(content string) (tags []Tag, anomalies []string) {
	for i := 0; i < len(content); {
		j := strings.IndexByte(content[i:], '{')
		gap := content[i:]
		if j >= 0 {
			gap = content[i : i+j]
		}
		if strings.TrimSpace(gap) != "" {
			tags = append(tags, Tag{Value: gap})
			anomalies = append(anomalies, fmt.Sprintf("text %q outside of a tag", gap))
		}
		if j < 0 {
			break
		}
		i += j + 1
		start, depth := i, 1
		for ; i < len(content) && depth > 0; i++ {
			switch content[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		// An unclosed entry can only end an unterminated block, which the
		// block reader reports.
		entry := content[start:]
		if depth == 0 {
			entry = content[start : i-1]
		}
		name, value, _ := strings.Cut(entry, ":")
		tags = append(tags, Tag{Name: name, Value: value})
	}
	return tags, anomalies
}
