package comm

// DefaultBufferSize is the receive buffer size of the radar firmware.
const DefaultBufferSize = 256

// ParseState is the state of the receive state machine.
type ParseState int

const (
	// StateWaitingForHeader discards bytes until a HEAD byte.
	StateWaitingForHeader ParseState = iota
	// StateWaitingForFooter accumulates the frame body until a FOOT byte.
	StateWaitingForFooter
)

func (s ParseState) String() string {
	if s == StateWaitingForFooter {
		return "WAITING_FOR_FOOTER"
	}
	return "WAITING_FOR_HEADER"
}

// ParseResult indicates the result after one parsing step.
// At most one of Frame and Err is set, both nil means nothing happened.
type ParseResult struct {
	Frame *Frame
	Err   error
}

// IsEmpty returns true if neither a frame nor an error is reported.
func (r ParseResult) IsEmpty() bool {
	return r.Frame == nil && r.Err == nil
}

// Parser reconstructs frames from a byte stream. It never blocks and
// keeps its buffer bounded to the capacity given at construction.
type Parser struct {
	Codec *Codec

	state   ParseState
	escaped bool
	buf     []byte
	last    []byte
}

// NewParser creates a Parser with the given receive buffer capacity.
func NewParser(capacity int) *Parser {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Parser{buf: make([]byte, 0, capacity)}
}

// State gets the current state.
func (p *Parser) State() ParseState {
	return p.state
}

// Capacity returns the receive buffer capacity.
func (p *Parser) Capacity() int {
	p.init()
	return cap(p.buf)
}

// Reset drops any partial frame and waits for a header.
func (p *Parser) Reset() {
	p.init()
	p.state, p.escaped, p.buf = StateWaitingForHeader, false, p.buf[:0]
}

// LastFrame returns a copy of the unescaped body of the most recently
// completed frame, valid or not.
func (p *Parser) LastFrame() []byte {
	return append([]byte(nil), p.last...)
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	p.init()
	switch p.state {
	case StateWaitingForHeader:
		if b == HeadByte {
			p.begin()
		}
	case StateWaitingForFooter:
		if p.escaped {
			p.escaped = false
			return p.store(b ^ p.Codec.escapeXOR())
		}
		switch b {
		case EscByte:
			p.escaped = true
		case FootByte:
			return p.frameReady()
		case HeadByte:
			// footer lost, the header starts a new frame.
			p.begin()
			pr.Err = malformed("header inside frame")
		default:
			return p.store(b)
		}
	}
	return
}

// Feed consumes a chunk of bytes and returns all non-empty results in order.
func (p *Parser) Feed(data []byte) (results []ParseResult) {
	for _, b := range data {
		if pr := p.Parse(b); !pr.IsEmpty() {
			results = append(results, pr)
		}
	}
	return
}

func (p *Parser) init() {
	if p.buf == nil {
		p.buf = make([]byte, 0, DefaultBufferSize)
	}
}

func (p *Parser) begin() {
	p.state, p.escaped, p.buf = StateWaitingForFooter, false, p.buf[:0]
}

func (p *Parser) store(b byte) (pr ParseResult) {
	if len(p.buf) >= cap(p.buf) {
		p.Reset()
		pr.Err = ErrBufferOverflow
		return
	}
	p.buf = append(p.buf, b)
	return
}

func (p *Parser) frameReady() (pr ParseResult) {
	p.last = append(p.last[:0], p.buf...)
	f, err := p.Codec.Unpack(p.buf)
	p.Reset()
	if err != nil {
		pr.Err = err
		return
	}
	pr.Frame = &f
	return
}
