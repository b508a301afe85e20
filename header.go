package mt

import "fmt"

// BasicHeader is block 1. Raw is kept even when it cannot be sliced, in
// which case Decoded is false and the sub-fields are empty.
type BasicHeader struct {
	Raw     string `yaml:"-"`
	Decoded bool   `yaml:"-"`

	ApplicationID   string `mt:"application_id" yaml:"application_id"`
	ServiceID       string `mt:"service_id" yaml:"service_id"`
	LogicalTerminal string `mt:"logical_terminal" yaml:"logical_terminal"`
	SessionNumber   string `mt:"session_number" yaml:"session_number"`
	SequenceNumber  string `mt:"sequence_number" yaml:"sequence_number"`
}

func (h *BasicHeader) BlockID() string  { return "1" }
func (h *BasicHeader) RawValue() string { return h.Raw }
func (*BasicHeader) block()             {}

func decodeBasicHeader(raw string) (*BasicHeader, error) {
	h := &BasicHeader{Raw: raw}
	if err := layouts().Basic.slice(raw, h); err != nil {
		return h, err
	}
	h.Decoded = true
	return h, nil
}

// Direction tells the two application header variants apart.
type Direction byte

const (
	DirectionUnknown Direction = 0
	DirectionInput   Direction = 'I'
	DirectionOutput  Direction = 'O'
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	}
	return "unknown"
}

// ApplicationHeader is block 2. Exactly one of Input and Output is set when
// the header was decoded.
type ApplicationHeader struct {
	Raw       string
	Direction Direction
	Input     *InputHeader
	Output    *OutputHeader
}

func (h *ApplicationHeader) BlockID() string  { return "2" }
func (h *ApplicationHeader) RawValue() string { return h.Raw }
func (*ApplicationHeader) block()             {}

// Decoded reports whether the variant's sub-fields were sliced.
func (h *ApplicationHeader) Decoded() bool {
	return h.Input != nil || h.Output != nil
}

// MessageType returns the three digit message type, or "" when the header
// was not decoded.
func (h *ApplicationHeader) MessageType() string {
	switch {
	case h.Input != nil:
		return h.Input.MessageType
	case h.Output != nil:
		return h.Output.MessageType
	}
	return ""
}

// InputHeader is the application header of a message sent to the network.
// The last two fields are optional and empty when absent.
type InputHeader struct {
	MessageType        string `mt:"message_type" yaml:"message_type"`
	ReceiverAddress    string `mt:"receiver_address" yaml:"receiver_address"`
	MessagePriority    string `mt:"message_priority" yaml:"message_priority"`
	DeliveryMonitoring string `mt:"delivery_monitoring" yaml:"delivery_monitoring,omitempty"`
	ObsolescencePeriod string `mt:"obsolescence_period" yaml:"obsolescence_period,omitempty"`
}

// OutputHeader is the application header of a message delivered by the
// network.
type OutputHeader struct {
	MessageType        string `mt:"message_type" yaml:"message_type"`
	SenderInputTime    string `mt:"sender_input_time" yaml:"sender_input_time"`
	MIR                MIR    `mt:"mir" yaml:"mir"`
	ReceiverOutputDate string `mt:"receiver_output_date" yaml:"receiver_output_date"`
	ReceiverOutputTime string `mt:"receiver_output_time" yaml:"receiver_output_time"`
	MessagePriority    string `mt:"message_priority" yaml:"message_priority"`
}

// MIR is the message input reference of an output header.
type MIR struct {
	Date            string `mt:"date" yaml:"date"`
	LogicalTerminal string `mt:"logical_terminal" yaml:"logical_terminal"`
	SessionNumber   string `mt:"session_number" yaml:"session_number"`
	SequenceNumber  string `mt:"sequence_number" yaml:"sequence_number"`
}

func (m MIR) String() string {
	return m.Date + m.LogicalTerminal + m.SessionNumber + m.SequenceNumber
}

func decodeApplicationHeader(raw string) (*ApplicationHeader, error) {
	h := &ApplicationHeader{Raw: raw}
	if raw == "" {
		return h, fmt.Errorf("%w: empty application header", ErrHeaderVariant)
	}
	switch d := Direction(raw[0]); d {
	case DirectionInput:
		h.Direction = d
		in := new(InputHeader)
		if err := layouts().Input.slice(raw, in); err != nil {
			return h, err
		}
		h.Input = in
	case DirectionOutput:
		h.Direction = d
		out := new(OutputHeader)
		if err := layouts().Output.slice(raw, out); err != nil {
			return h, err
		}
		h.Output = out
	default:
		return h, fmt.Errorf("%w: application header starts with %q, want 'I' or 'O'", ErrHeaderVariant, raw[0])
	}
	return h, nil
}
