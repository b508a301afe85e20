package mt

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/elliotchance/orderedmap/v3"
)

// Block is one decoded section of a message: *BasicHeader,
// *ApplicationHeader, *TagBlock or *TextBlock.
type Block interface {
	// BlockID is "1" to "5" for the standard blocks, or the custom name.
	BlockID() string
	// RawValue is the block content as read, between "{id:" and its close.
	RawValue() string
	block()
}

// Message is a decoded wire message. A nil block was absent from the input.
type Message struct {
	Basic       *BasicHeader
	Application *ApplicationHeader
	User        *TagBlock
	Text        *TextBlock
	Trailer     *TagBlock

	// Custom holds named blocks other than 1 to 5, in input order.
	Custom *orderedmap.OrderedMap[string, *TagBlock]

	// Unparsed holds input found outside any recognized block.
	Unparsed []*UnparsedText
}

func newMessage() *Message {
	return &Message{Custom: orderedmap.NewOrderedMap[string, *TagBlock]()}
}

// Blocks yields the blocks that are present: 1 to 5 in order, then the
// custom blocks in input order.
func (m *Message) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for _, b := range m.standard() {
			if b != nil && !yield(b) {
				return
			}
		}
		if m.Custom == nil {
			return
		}
		for b := range m.Custom.Values() {
			if !yield(b) {
				return
			}
		}
	}
}

func (m *Message) standard() []Block {
	var blocks []Block
	if m.Basic != nil {
		blocks = append(blocks, m.Basic)
	}
	if m.Application != nil {
		blocks = append(blocks, m.Application)
	}
	if m.User != nil {
		blocks = append(blocks, m.User)
	}
	if m.Text != nil {
		blocks = append(blocks, m.Text)
	}
	if m.Trailer != nil {
		blocks = append(blocks, m.Trailer)
	}
	return blocks
}

// Block returns the block with the given id, or nil.
func (m *Message) Block(id string) Block {
	switch kindOf(id) {
	case kindBasic:
		if m.Basic != nil {
			return m.Basic
		}
	case kindApplication:
		if m.Application != nil {
			return m.Application
		}
	case kindUser:
		if m.User != nil {
			return m.User
		}
	case kindText:
		if m.Text != nil {
			return m.Text
		}
	case kindTrailer:
		if m.Trailer != nil {
			return m.Trailer
		}
	case kindCustom:
		if m.Custom == nil {
			return nil
		}
		if b, ok := m.Custom.Get(id); ok {
			return b
		}
	}
	return nil
}

// MessageType returns the message type from a decoded application header.
func (m *Message) MessageType() string {
	if m.Application == nil {
		return ""
	}
	return m.Application.MessageType()
}

// IsAck reports whether m is a positive service acknowledgement.
func (m *Message) IsAck() bool {
	return m.serviceResult() == "0"
}

// IsNack reports whether m is a negative service acknowledgement.
func (m *Message) IsNack() bool {
	return m.serviceResult() == "1"
}

func (m *Message) serviceResult() string {
	if m.Basic == nil || m.Basic.ServiceID != "21" || m.Text == nil {
		return ""
	}
	t, _ := m.Text.Get("451")
	return t.Value
}

func (m *Message) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4)
	if t := m.MessageType(); t != "" {
		attrs = append(attrs, slog.String("type", t))
	}
	var ids []string
	for b := range m.Blocks() {
		ids = append(ids, b.BlockID())
	}
	attrs = append(attrs, slog.Any("blocks", ids))
	if m.Text != nil {
		attrs = append(attrs, slog.Int("tags", m.Text.Len()))
	}
	if len(m.Unparsed) > 0 {
		attrs = append(attrs, slog.Int("unparsed", len(m.Unparsed)))
	}
	return slog.GroupValue(attrs...)
}

// UnparsedText is input found outside any recognized block. A service
// acknowledgement followed by the message it acknowledges yields the
// acknowledged message as unparsed text, which Parse decodes on demand.
type UnparsedText struct {
	Text string

	cfg   Config
	depth int
}

// Parser returns a fresh Parser configured like the one that found u. Use
// it instead of Parse to read the diagnostics of the re-parse.
func (u *UnparsedText) Parser() *Parser {
	return &Parser{cfg: u.cfg, depth: u.depth}
}

// Parse decodes the text as a message of its own.
func (u *UnparsedText) Parse() (*Message, error) {
	return u.Parser().Parse(u.Text)
}

func (u *UnparsedText) String() string {
	return fmt.Sprintf("unparsed text (%d bytes)", len(u.Text))
}
