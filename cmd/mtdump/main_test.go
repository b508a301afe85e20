package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

const (
	testAck      = "{1:F21BANKBEBBAXXX0000000000}{4:{177:2401011200}{451:0}}"
	testOriginal = "{1:F01BANKBEBBAXXX0000000000}{2:I103BANKDEFFXXXXN}{4:\n:20:REF12345\n-}"
)

func basicHeader(serviceID string) map[string]any {
	return map[string]any{
		"application_id":   "F",
		"service_id":       serviceID,
		"logical_terminal": "BANKBEBBAXXX",
		"session_number":   "0000",
		"sequence_number":  "000000",
	}
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestDump(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, testAck+testOriginal, "--reparse")
	if err != nil {
		t.Fatalf("mtdump --reparse returned error: %v", err)
	}
	var got messageDump
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}

	want := messageDump{
		Source: "-",
		Ack:    "positive",
		Blocks: []blockDump{{
			ID:     "1",
			Raw:    "F21BANKBEBBAXXX0000000000",
			Header: basicHeader("21"),
		}, {
			ID:   "4",
			Raw:  "{177:2401011200}{451:0}",
			Tags: []tagDump{{"177", "2401011200"}, {"451", "0"}},
		}},
		Unparsed: []unparsedDump{{
			Text: testOriginal,
			Message: &messageDump{
				Type: "103",
				Blocks: []blockDump{{
					ID:     "1",
					Raw:    "F01BANKBEBBAXXX0000000000",
					Header: basicHeader("01"),
				}, {
					ID:        "2",
					Raw:       "I103BANKDEFFXXXXN",
					Direction: "input",
					Header: map[string]any{
						"message_type":     "103",
						"receiver_address": "BANKDEFFXXXX",
						"message_priority": "N",
					},
				}, {
					ID:   "4",
					Raw:  "\n:20:REF12345\n",
					Tags: []tagDump{{"20", "REF12345"}},
				}},
			},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mtdump --reparse returned unexpected diff (-want +got):\n%s", diff)
	}
}

func TestDump_Diagnostics(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, "{1:012345678901}junk")
	if err != nil {
		t.Fatalf("mtdump returned error: %v", err)
	}
	var got messageDump
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	want := messageDump{
		Source:      "-",
		Blocks:      []blockDump{{ID: "1", Raw: "012345678901"}},
		Unparsed:    []unparsedDump{{Text: "junk"}},
		Diagnostics: []string{"1:1 block 1: wrong header length: basic header has 12 characters, want 25"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mtdump returned unexpected diff (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr, "level=WARN") {
		t.Errorf("mtdump logged %q, want a warning", stderr)
	}

	if _, _, err := execute(t, "{1:012345678901}", "--strict"); err == nil {
		t.Errorf("mtdump --strict of a short header returned no error")
	}
}

func TestDump_File(t *testing.T) {
	t.Parallel()

	latin1, err := charmap.ISO8859_1.NewEncoder().String("{4:\n:70:CAFÉ\n-}")
	if err != nil {
		t.Fatalf("encode ISO-8859-1: %v", err)
	}
	name := filepath.Join(t.TempDir(), "msg.fin")
	if err := os.WriteFile(name, []byte(latin1), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "", "--encoding", "ISO-8859-1", name)
	if err != nil {
		t.Fatalf("mtdump %s returned error: %v", name, err)
	}
	var got messageDump
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	if len(got.Blocks) != 1 || len(got.Blocks[0].Tags) != 1 || got.Blocks[0].Tags[0].Value != "CAFÉ" {
		t.Errorf("mtdump %s = %+v, want tag 70 with value CAFÉ", name, got)
	}

	if _, _, err := execute(t, "", "--encoding", "ebcdic", name); err == nil {
		t.Errorf("mtdump --encoding ebcdic returned no error")
	}
	if _, _, err := execute(t, "", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("mtdump of a missing file returned no error")
	}
}
