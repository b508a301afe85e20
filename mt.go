// Package mt decodes block-structured financial wire messages.
//
// A message is a sequence of blocks. Each block opens with a brace, a block
// name and a colon, and closes with a brace:
//
//	{1:F01BANKBEBBAXXX0000000000}{2:I103BANKDEFFXXXXN}{4:
//	:20:REF12345
//	:32A:240101EUR1000,00
//	-}{5:{CHK:ABCDEF123456}}
//
// # Blocks
//
// Blocks 1 to 5 are the standard blocks. Each is optional and appears at
// most once, normally in increasing order. Any other name of up to eight
// letters or digits is a custom block:
//
//	{S:{SAC:}{COP:P}}
//
// # Headers
//
// Blocks 1 and 2 hold a fixed-width string. Block 1 is 25 characters:
//
//	F 01 BANKBEBBAXXX 0000 000000
//	| |  |            |    sequence number
//	| |  |            session number
//	| |  logical terminal
//	| service id
//	application id
//
// Block 2 starts with I (input, 17, 18 or 21 characters) or O (output, 47
// characters). See [InputHeader] and [OutputHeader] for the sub-fields.
//
// # Tag lists
//
// Blocks 3, 5 and custom blocks hold a list of {name:value} entries. Names
// may repeat and order is kept:
//
//	{3:{108:MUR12345}{121:180f1e65-90e0-44d5-a49a-92b55eb3025f}}
//
// A brace inside a tag list only ever opens or closes an entry, so {4:x}
// inside block 3 is a tag named "4", not a block.
//
// # Text block
//
// Block 4 is line oriented. A tag starts on a line of the form :NN: or
// :NNa: where N is a digit and a is an upper-case letter, and its value runs
// until the next such line. The block ends at the first line that begins
// with -}. Braces inside the text block mean nothing:
//
//	{4:
//	:79:unbalanced } and { are fine
//	:77E::colon-led continuation
//	:/not a tag:
//	-}
//
// The line break in front of each tag line separates tags and is not part
// of the previous value; any other line break is.
//
// Service messages write block 4 as a tag list instead:
//
//	{1:F21BANKBEBBAXXX0000000000}{4:{177:2401011200}{451:0}}
//
// # Unparsed text
//
// Text outside any block, including braces that open no block, ends up in
// [Message.Unparsed] rather than in an error. So does a standard block the
// message already has (a second block 1, say) and everything after it. An acknowledgement is usually followed by the message it
// acknowledges; that message is kept whole and [UnparsedText.Parse] decodes
// it when asked.
//
// # Strict and lenient parsing
//
// A block that is never closed, or a header with the wrong length, is a
// [StructuralError]. Lenient parsing, the default, records it in
// [Parser.Diagnostics] and keeps whatever could be read. [Strict] parsing
// returns it.
package mt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Parser decodes messages. A Parser is not safe for concurrent use; give
// each goroutine its own.
type Parser struct {
	cfg         Config
	depth       int
	diagnostics []string
}

// NewParser returns a lenient Parser unless opts say otherwise.
func NewParser(opts ...Option) *Parser {
	return &Parser{cfg: newConfig(opts...)}
}

// Parse decodes text with a new Parser. Use NewParser to read diagnostics.
func Parse(text string, opts ...Option) (*Message, error) {
	return NewParser(opts...).Parse(text)
}

// Config returns a copy of the configuration p was built with.
func (p *Parser) Config() Config {
	return p.cfg
}

// Diagnostics returns the anomalies of the last lenient parse, in the order
// they were found.
func (p *Parser) Diagnostics() []string {
	return append([]string(nil), p.diagnostics...)
}

// Parse decodes the first message in text. Anything after it is returned
// as unparsed text.
func (p *Parser) Parse(text string) (*Message, error) {
	p.diagnostics = nil
	if p.cfg.MaxDepth > 0 && p.depth > p.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: depth %d, limit %d", ErrDepthExceeded, p.depth, p.cfg.MaxDepth)
	}
	if p.cfg.MaxInputSize > 0 && len(text) > p.cfg.MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(text), p.cfg.MaxInputSize)
	}
	run := &parser{
		Parser: p,
		sc:     scanner{data: text},
		msg:    newMessage(),
	}
	if p.cfg.Logger != nil {
		run.logger = p.cfg.Logger.With(slog.String("component", "mt"), slog.Int("depth", p.depth))
	}
	if err := run.parse(); err != nil {
		run.log(slog.LevelDebug, "parse failed", slog.String("error", err.Error()))
		return nil, err
	}
	run.log(slog.LevelDebug, "parsed message", slog.Any("message", run.msg))
	return run.msg, nil
}

// ParseBytes is Parse for a byte slice already in UTF-8. Use ParseReader to
// decode other encodings.
func (p *Parser) ParseBytes(data []byte) (*Message, error) {
	return p.Parse(string(data))
}

type blockKind int

const (
	kindCustom blockKind = iota
	kindBasic
	kindApplication
	kindUser
	kindText
	kindTrailer
)

func kindOf(id string) blockKind {
	switch id {
	case "1":
		return kindBasic
	case "2":
		return kindApplication
	case "3":
		return kindUser
	case "4":
		return kindText
	case "5":
		return kindTrailer
	}
	return kindCustom
}

// parser is the state of one Parse call.
type parser struct {
	*Parser
	sc     scanner
	msg    *Message
	logger *slog.Logger
}

func (p *parser) log(level slog.Level, msg string, attrs ...slog.Attr) {
	if p.logger == nil {
		return
	}
	p.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// check is where the two modes part: a structural error is returned in
// strict mode and noted otherwise, so the caller carries on with the
// partial result.
func (p *parser) check(err *StructuralError) error {
	if err == nil {
		return nil
	}
	if p.cfg.Strict {
		return err
	}
	p.note(err.Error())
	return nil
}

// note records an anomaly that is never fatal. Strict parsing drops it.
func (p *parser) note(msg string) {
	if p.cfg.Strict {
		return
	}
	p.diagnostics = append(p.diagnostics, msg)
	p.log(slog.LevelWarn, "diagnostic", slog.String("diagnostic", msg))
}

func (p *parser) unparsed(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.msg.Unparsed = append(p.msg.Unparsed, &UnparsedText{Text: text, cfg: p.cfg, depth: p.depth + 1})
	p.log(slog.LevelDebug, "unparsed text", slog.Int("bytes", len(text)))
}

func (p *parser) parse() error {
	// from is the start of text not yet claimed by a block.
	from := p.sc.i
	for p.sc.nextBlock() {
		open := p.sc.i
		id, ok := p.sc.discriminator()
		if !ok {
			// Not a block; the brace is ordinary text.
			p.sc.i++
			continue
		}
		kind := kindOf(id)
		if kind != kindCustom && p.msg.Block(id) != nil {
			// A repeated standard block starts the next message.
			p.sc.i = len(p.sc.data)
			break
		}
		if kind == kindCustom && p.msg.Custom.Has(id) {
			// The first block of a name wins; a repeat stays unparsed.
			if _, err := p.balanced(id, open); err != nil {
				return err
			}
			continue
		}
		p.unparsed(p.sc.data[from:open])
		if err := p.block(kind, id, open); err != nil {
			return err
		}
		p.log(slog.LevelDebug, "read block", slog.String("block", id), slog.Int("offset", open))
		from = p.sc.i
	}
	p.unparsed(p.sc.data[from:])
	return nil
}

func (p *parser) block(kind blockKind, id string, open int) error {
	switch kind {
	case kindBasic:
		raw, err := p.balanced(id, open)
		if err != nil {
			return err
		}
		h, herr := decodeBasicHeader(raw)
		if err := p.check(p.headerError(herr, id, open)); err != nil {
			return err
		}
		p.msg.Basic = h
	case kindApplication:
		raw, err := p.balanced(id, open)
		if err != nil {
			return err
		}
		h, herr := decodeApplicationHeader(raw)
		if err := p.check(p.headerError(herr, id, open)); err != nil {
			return err
		}
		p.msg.Application = h
	case kindUser:
		b, err := p.tagList(id, open)
		if err != nil {
			return err
		}
		p.msg.User = b
	case kindText:
		b, err := p.text(id, open)
		if err != nil {
			return err
		}
		p.msg.Text = b
	case kindTrailer:
		b, err := p.tagList(id, open)
		if err != nil {
			return err
		}
		p.msg.Trailer = b
	case kindCustom:
		b, err := p.tagList(id, open)
		if err != nil {
			return err
		}
		p.msg.Custom.Set(id, b)
	default:
		panic(fmt.Sprintf("mt: unhandled block kind %d", kind))
	}
	return nil
}

func (p *parser) balanced(id string, open int) (string, error) {
	raw, serr := p.sc.readBalanced(id, open)
	return raw, p.check(serr)
}

func (p *parser) headerError(err error, id string, open int) *StructuralError {
	if err == nil {
		return nil
	}
	return newStructuralError(p.sc.data, open, id, err, "%s", err.Error())
}

func (p *parser) tagList(id string, open int) (*TagBlock, error) {
	raw, err := p.balanced(id, open)
	if err != nil {
		return nil, err
	}
	tags, anomalies := splitTagList(raw)
	for _, a := range anomalies {
		p.note(fmt.Sprintf("block %s: %s", id, a))
	}
	return &TagBlock{ID: id, Raw: raw, Tags: tags}, nil
}

func (p *parser) text(id string, open int) (*TextBlock, error) {
	if p.sc.peek() == '{' {
		b, err := p.tagList(id, open)
		if err != nil {
			return nil, err
		}
		return &TextBlock{TagBlock: *b}, nil
	}
	raw, serr := p.sc.readText(id, open)
	if err := p.check(serr); err != nil {
		return nil, err
	}
	tags, leading := splitTextTags(raw)
	if leading != "" {
		p.note(fmt.Sprintf("block %s: text %q is not part of any tag", id, leading))
	}
	b := &TextBlock{TagBlock: TagBlock{ID: id, Raw: raw, Tags: tags}, Leading: leading}
	if serr != nil {
		b.Malformed = raw[strings.LastIndexByte(raw, '\n')+1:]
	}
	return b, nil
}
