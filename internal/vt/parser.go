package vt

import "unicode/utf8"

// parser state, driven one byte at a time.
type parserState uint8

const (
	stateGround parserState = iota
	stateEscape
	stateCharset
	stateCSI
	stateOSC
	stateOSCEsc
)

const (
	maxParams = 16
	maxOSCLen = 2048
)

// parser classifies escape sequences and applies them to a Terminal.
// Unknown or malformed sequences are consumed up to their terminator and
// discarded; the parser always finds its way back to ground state.
type parser struct {
	state   parserState
	params  []int
	private bool
	hasParam bool
	osc     []byte
	partial [4]byte
	npartial int
}

func newParser() *parser {
	return &parser{params: make([]int, 0, maxParams)}
}

func (p *parser) reset() {
	p.state = stateGround
	p.params = p.params[:0]
	p.private = false
	p.hasParam = false
	p.osc = p.osc[:0]
}

// advance feeds one byte through the state machine.
func (p *parser) advance(t *Terminal, b byte) {
	switch p.state {
	case stateGround:
		p.ground(t, b)
	case stateEscape:
		p.escape(t, b)
	case stateCharset:
		// Charset designation byte; nothing tracked beyond consuming it.
		p.state = stateGround
	case stateCSI:
		p.csi(t, b)
	case stateOSC:
		p.oscByte(t, b)
	case stateOSCEsc:
		if b == '\\' {
			t.handleOSC(string(p.osc))
			p.reset()
			return
		}
		// Not a string terminator after all; drop the sequence.
		p.reset()
	}
}

func (p *parser) ground(t *Terminal, b byte) {
	switch {
	case b == 0x1b:
		p.npartial = 0
		p.state = stateEscape
	case b < 0x20 || b == 0x7f:
		p.npartial = 0
		t.control(b)
	default:
		p.rune(t, b)
	}
}

// rune accumulates UTF-8 continuation bytes until a full rune decodes.
// Invalid encodings are discarded rather than printed as replacement
// characters, keeping garbage out of the grid.
func (p *parser) rune(t *Terminal, b byte) {
	if p.npartial == 0 {
		if b < utf8.RuneSelf {
			t.print(rune(b))
			return
		}
		p.partial[0] = b
		p.npartial = 1
		return
	}
	p.partial[p.npartial] = b
	p.npartial++
	if utf8.FullRune(p.partial[:p.npartial]) {
		r, _ := utf8.DecodeRune(p.partial[:p.npartial])
		p.npartial = 0
		if r != utf8.RuneError {
			t.print(r)
		}
		return
	}
	if p.npartial == len(p.partial) {
		p.npartial = 0
	}
}

func (p *parser) escape(t *Terminal, b byte) {
	switch b {
	case '[':
		p.state = stateCSI
		p.params = p.params[:0]
		p.private = false
		p.hasParam = false
	case ']':
		p.state = stateOSC
		p.osc = p.osc[:0]
	case '(', ')', '*', '+':
		p.state = stateCharset
	case '7':
		t.saveCursor()
		p.state = stateGround
	case '8':
		t.restoreCursor()
		p.state = stateGround
	case 'D': // IND
		t.index()
		p.state = stateGround
	case 'M': // RI
		t.reverseIndex()
		p.state = stateGround
	case 'E': // NEL
		t.carriageReturn()
		t.index()
		p.state = stateGround
	case '=':
		t.appKeypad = true
		p.state = stateGround
	case '>':
		t.appKeypad = false
		p.state = stateGround
	case 'c': // RIS
		t.fullReset()
		p.state = stateGround
	case 0x1b:
		// Restart the sequence.
	default:
		p.state = stateGround
	}
}

func (p *parser) csi(t *Terminal, b byte) {
	switch {
	case b >= '0' && b <= '9':
		if !p.hasParam {
			p.params = append(p.params, 0)
			p.hasParam = true
		}
		i := len(p.params) - 1
		if p.params[i] < 1<<20 {
			p.params[i] = p.params[i]*10 + int(b-'0')
		}
	case b == ';' || b == ':':
		if !p.hasParam {
			p.params = append(p.params, 0)
		}
		p.hasParam = false
		if len(p.params) >= maxParams {
			// Over-long parameter list; swallow to the final byte.
			p.params = p.params[:maxParams]
		}
	case b == '?':
		p.private = true
	case b >= 0x20 && b <= 0x2f:
		// Intermediate bytes are accepted and ignored.
	case b >= 0x40 && b <= 0x7e:
		t.csiDispatch(b, p.params, p.private)
		p.reset()
	case b == 0x18 || b == 0x1a:
		p.reset()
	case b == 0x1b:
		p.reset()
		p.state = stateEscape
	case b < 0x20:
		// C0 controls execute even mid-sequence.
		t.control(b)
	default:
		p.reset()
	}
}

func (p *parser) oscByte(t *Terminal, b byte) {
	switch b {
	case 0x07:
		t.handleOSC(string(p.osc))
		p.reset()
	case 0x1b:
		p.state = stateOSCEsc
	case 0x18, 0x1a:
		p.reset()
	default:
		if len(p.osc) < maxOSCLen {
			p.osc = append(p.osc, b)
		}
	}
}

// param returns the i-th parameter or def when absent or zero.
func param(params []int, i, def int) int {
	if i >= len(params) || params[i] == 0 {
		return def
	}
	return params[i]
}

// paramOr returns the i-th parameter or def when absent (zero allowed).
func paramOr(params []int, i, def int) int {
	if i >= len(params) {
		return def
	}
	return params[i]
}
