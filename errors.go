package mt

import (
	"errors"
	"fmt"
)

var (
	ErrUnterminatedBlock = errors.New("unterminated block")
	ErrHeaderLength      = errors.New("wrong header length")
	ErrHeaderVariant     = errors.New("unknown header variant")

	ErrInputTooLarge = errors.New("input too large")
	ErrDepthExceeded = errors.New("unparsed text nesting too deep")
)

// StructuralError reports a block that was opened but never closed, or a
// fixed-width header that could not be sliced. In strict mode it is returned
// from Parse; in lenient mode its text is recorded as a diagnostic.
type StructuralError struct {
	Block  string // block discriminator, e.g. "1" or "4"
	Offset int    // byte offset of the opening brace
	Line   int
	Col    int
	Reason string
	Err    error
}

func newStructuralError(data string, idx int, block string, err error, reason string, args ...any) *StructuralError {
	line, col := 1, 1
	for i := 0; i < idx && i < len(data); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &StructuralError{
		Block:  block,
		Offset: idx,
		Line:   line,
		Col:    col,
		Reason: fmt.Sprintf(reason, args...),
		Err:    err,
	}
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%d:%d block %s: %s", e.Line, e.Col, e.Block, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}
