package mt

import "strings"

// maxDiscriminator bounds the block name between '{' and ':'.
const maxDiscriminator = 8

type scanner struct {
	data string
	i    int
}

func discriminatorByte(b byte) bool {
	return '0' <= b && b <= '9' ||
		'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z'
}

// nextBlock advances to the next '{'. At end of input it moves past the
// remainder and reports false.
func (s *scanner) nextBlock() bool {
	j := strings.IndexByte(s.data[s.i:], '{')
	if j < 0 {
		s.i = len(s.data)
		return false
	}
	s.i += j
	return true
}

// discriminator reads the block name of the '{' under the cursor and moves
// past the colon that ends it. The cursor is left alone when the brace does
// not open a well-formed block.
func (s *scanner) discriminator() (string, bool) {
	rest := s.data[s.i+1:]
	for k := 0; k < len(rest) && k <= maxDiscriminator; k++ {
		if rest[k] == ':' {
			if k == 0 {
				return "", false
			}
			s.i += k + 2
			return rest[:k], true
		}
		if !discriminatorByte(rest[k]) {
			return "", false
		}
	}
	return "", false
}

func (s *scanner) peek() byte {
	if s.i >= len(s.data) {
		return 0
	}
	return s.data[s.i]
}

// readBalanced returns the content of a brace-delimited block whose opening
// "{id:" has been consumed. Braces are counted as plain characters. When the
// input ends first, everything up to the end is returned along with the
// error.
func (s *scanner) readBalanced(id string, open int) (string, *StructuralError) {
	start := s.i
	depth := 1
	for ; s.i < len(s.data); s.i++ {
		switch s.data[s.i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				content := s.data[start:s.i]
				s.i++
				return content, nil
			}
		}
	}
	return s.data[start:], newStructuralError(s.data, open, id, ErrUnterminatedBlock,
		"missing closing brace (depth %d at end of input)", depth)
}

// readText returns the body of a text block: everything up to the first line
// that begins with "-}". Braces inside the body are inert.
func (s *scanner) readText(id string, open int) (string, *StructuralError) {
	start := s.i
	for i := start; i < len(s.data); {
		if strings.HasPrefix(s.data[i:], "-}") {
			s.i = i + 2
			return s.data[start:i], nil
		}
		nl := strings.IndexByte(s.data[i:], '\n')
		if nl < 0 {
			break
		}
		i += nl + 1
	}
	s.i = len(s.data)
	return s.data[start:], newStructuralError(s.data, open, id, ErrUnterminatedBlock,
		`missing "-}" terminator`)
}
