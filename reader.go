package mt

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseReader reads a whole message from r and parses it. A UTF-8 or UTF-16
// byte order mark selects the decoding; otherwise the configured Encoding
// applies, and without one the bytes are taken as they are.
func (p *Parser) ParseReader(r io.Reader) (*Message, error) {
	var fallback transform.Transformer = transform.Nop
	if p.cfg.Encoding != nil {
		fallback = p.cfg.Encoding.NewDecoder()
	}
	src := io.Reader(transform.NewReader(r, unicode.BOMOverride(fallback)))
	if p.cfg.MaxInputSize > 0 {
		// One byte over the limit is enough for Parse to reject it.
		src = io.LimitReader(src, int64(p.cfg.MaxInputSize)+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return p.ParseBytes(data)
}
