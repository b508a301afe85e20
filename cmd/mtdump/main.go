// Command mtdump decodes wire messages and prints their blocks as YAML.
//
//	mtdump [flags] [file...]
//
// With no file, or with "-", the message is read from standard input. Each
// input becomes one YAML document.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
	"roseh.moe/pkg/mt"
)

var encodings = map[string]encoding.Encoding{
	"utf-8":        nil,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
}

type options struct {
	strict   bool
	reparse  bool
	maxDepth int
	verbose  bool
	encoding string
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:          "mtdump [file...]",
		Short:        "Decode wire messages and print their blocks as YAML",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.strict, "strict", false, "fail on structural errors instead of reporting them as diagnostics")
	f.BoolVar(&o.reparse, "reparse", false, "decode unparsed text that holds further messages")
	f.IntVar(&o.maxDepth, "max-depth", mt.DefaultMaxDepth, "nesting limit for --reparse, 0 for none")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log each block read to standard error")
	f.StringVar(&o.encoding, "encoding", "utf-8", "encoding of input without a byte order mark: utf-8, iso-8859-1 or windows-1252")
	return cmd
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	enc, ok := encodings[strings.ToLower(o.encoding)]
	if !ok {
		return fmt.Errorf("unknown encoding %q", o.encoding)
	}
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts := []mt.Option{mt.WithLogger(logger), mt.WithEncoding(enc), mt.WithMaxDepth(o.maxDepth)}
	if o.strict {
		opts = append(opts, mt.Strict())
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	out := yaml.NewEncoder(cmd.OutOrStdout())
	out.SetIndent(2)
	for _, name := range args {
		d, err := o.dumpFile(cmd.InOrStdin(), name, opts)
		if err != nil {
			return err
		}
		if err := out.Encode(d); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return out.Close()
}

func (o *options) dumpFile(stdin io.Reader, name string, opts []mt.Option) (*messageDump, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	p := mt.NewParser(opts...)
	msg, err := p.ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	d := o.dump(msg, p.Diagnostics())
	d.Source = name
	return d, nil
}

type messageDump struct {
	Source      string         `yaml:"source,omitempty"`
	Type        string         `yaml:"type,omitempty"`
	Ack         string         `yaml:"ack,omitempty"`
	Blocks      []blockDump    `yaml:"blocks,omitempty"`
	Unparsed    []unparsedDump `yaml:"unparsed,omitempty"`
	Diagnostics []string       `yaml:"diagnostics,omitempty"`
}

type blockDump struct {
	ID        string    `yaml:"id"`
	Raw       string    `yaml:"raw,omitempty"`
	Direction string    `yaml:"direction,omitempty"`
	Header    any       `yaml:"header,omitempty"`
	Tags      []tagDump `yaml:"tags,omitempty"`
	Leading   string    `yaml:"leading,omitempty"`
	Malformed string    `yaml:"malformed,omitempty"`
}

type tagDump struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type unparsedDump struct {
	Text    string       `yaml:"text"`
	Message *messageDump `yaml:"message,omitempty"`
	Error   string       `yaml:"error,omitempty"`
}

func (o *options) dump(msg *mt.Message, diagnostics []string) *messageDump {
	d := &messageDump{Type: msg.MessageType(), Diagnostics: diagnostics}
	switch {
	case msg.IsAck():
		d.Ack = "positive"
	case msg.IsNack():
		d.Ack = "negative"
	}
	for b := range msg.Blocks() {
		d.Blocks = append(d.Blocks, dumpBlock(b))
	}
	for _, u := range msg.Unparsed {
		ud := unparsedDump{Text: u.Text}
		if o.reparse {
			p := u.Parser()
			m, err := p.Parse(u.Text)
			switch {
			case err != nil:
				ud.Error = err.Error()
			case hasBlocks(m):
				// Text without blocks would come back as the same unparsed
				// text, forever.
				ud.Message = o.dump(m, p.Diagnostics())
			}
		}
		d.Unparsed = append(d.Unparsed, ud)
	}
	return d
}

func hasBlocks(m *mt.Message) bool {
	for range m.Blocks() {
		return true
	}
	return false
}

func dumpBlock(b mt.Block) blockDump {
	d := blockDump{ID: b.BlockID(), Raw: b.RawValue()}
	switch b := b.(type) {
	case *mt.BasicHeader:
		if b.Decoded {
			d.Header = b
		}
	case *mt.ApplicationHeader:
		if b.Direction != mt.DirectionUnknown {
			d.Direction = b.Direction.String()
		}
		switch {
		case b.Input != nil:
			d.Header = b.Input
		case b.Output != nil:
			d.Header = b.Output
		}
	case *mt.TextBlock:
		d.Tags = dumpTags(b.Tags)
		d.Leading = b.Leading
		d.Malformed = b.Malformed
	case *mt.TagBlock:
		d.Tags = dumpTags(b.Tags)
	}
	return d
}

func dumpTags(tags []mt.Tag) []tagDump {
	out := make([]tagDump, len(tags))
	for i, t := range tags {
		out[i] = tagDump{Name: t.Name, Value: t.Value}
	}
	return out
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
