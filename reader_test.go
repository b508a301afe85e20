package mt

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestParseReader(t *testing.T) {
	t.Parallel()

	const msg = "{1:" + testBasic + "}{4:\n:20:REF\n:70:CAFÉ\n-}"
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(msg)
	if err != nil {
		t.Fatalf("encode UTF-16: %v", err)
	}
	latin1, err := charmap.ISO8859_1.NewEncoder().String(msg)
	if err != nil {
		t.Fatalf("encode ISO-8859-1: %v", err)
	}

	for _, tc := range []struct {
		desc string
		in   string
		opts []Option
		want string
	}{
		{"UTF8", msg, nil, "CAFÉ"},
		{"UTF8BOM", "\xef\xbb\xbf" + msg, nil, "CAFÉ"},
		{"UTF16BOM", utf16, nil, "CAFÉ"},
		{"UTF16BOMOverridesEncoding", utf16, []Option{WithEncoding(charmap.ISO8859_1)}, "CAFÉ"},
		{"Latin1", latin1, []Option{WithEncoding(charmap.ISO8859_1)}, "CAFÉ"},
		{"Latin1Unchanged", latin1, nil, "CAF\xc9"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			p := NewParser(append(tc.opts, Strict())...)
			got, err := p.ParseReader(strings.NewReader(tc.in))
			if err != nil {
				t.Fatalf("ParseReader(%q) returned error: %v", tc.in, err)
			}
			if len(got.Unparsed) != 0 {
				t.Errorf("ParseReader(%q) left unparsed text %q", tc.in, got.Unparsed[0].Text)
			}
			if !got.Basic.Decoded {
				t.Errorf("ParseReader(%q) did not decode the basic header", tc.in)
			}
			if tag, _ := got.Text.Get("70"); tag.Value != tc.want {
				t.Errorf("ParseReader(%q) read tag 70 = %q, want %q", tc.in, tag.Value, tc.want)
			}
		})
	}
}

func TestParseReader_Error(t *testing.T) {
	t.Parallel()

	p := NewParser(WithMaxInputSize(16))
	if _, err := p.ParseReader(strings.NewReader("{1:" + testBasic + "}")); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("ParseReader of 29 bytes with a limit of 16 returned error %v, want ErrInputTooLarge", err)
	}

	boom := errors.New("boom")
	if _, err := NewParser().ParseReader(iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Errorf("ParseReader of a failing reader returned error %v, want %v", err, boom)
	}
}
