package mt

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(Config{MaxDepth: DefaultMaxDepth}, NewParser().Config()); diff != "" {
		t.Errorf("default Config returned unexpected diff (-want +got):\n%s", diff)
	}

	got := NewParser(Strict(), WithMaxInputSize(100), WithMaxDepth(0), Lenient()).Config()
	want := Config{MaxInputSize: 100}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Config returned unexpected diff (-want +got):\n%s", diff)
	}

	// WithConfig replaces everything set before it.
	got = NewParser(WithMaxInputSize(100), WithConfig(Config{Strict: true}), WithMaxDepth(3)).Config()
	want = Config{Strict: true, MaxDepth: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Config returned unexpected diff (-want +got):\n%s", diff)
	}
}

func TestParse_Logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := Parse("{1:012345678901}junk", WithLogger(logger)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	type record struct {
		Level      string
		Msg        string
		Component  string
		Depth      int
		Block      string
		Diagnostic string
		Message    struct {
			Blocks   []string
			Unparsed int
		}
	}
	var got []record
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var r record
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode log record: %v", err)
		}
		if r.Component != "mt" || r.Depth != 0 {
			t.Errorf("log record %+v lacks component=mt depth=0", r)
		}
		got = append(got, r)
	}

	var msgs []string
	for _, r := range got {
		msgs = append(msgs, r.Level+" "+r.Msg)
	}
	want := []string{
		"WARN diagnostic",
		"DEBUG read block",
		"DEBUG unparsed text",
		"DEBUG parsed message",
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("log records returned unexpected diff (-want +got):\n%s", diff)
	}
	if got[0].Diagnostic == "" {
		t.Errorf("diagnostic record has no diagnostic attribute")
	}
	if got[1].Block != "1" {
		t.Errorf("read block record names block %q, want 1", got[1].Block)
	}
	if diff := cmp.Diff([]string{"1"}, got[3].Message.Blocks); diff != "" {
		t.Errorf("parsed message blocks returned unexpected diff (-want +got):\n%s", diff)
	}
	if got[3].Message.Unparsed != 1 {
		t.Errorf("parsed message unparsed = %d, want 1", got[3].Message.Unparsed)
	}
}
