package terminal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Telnet protocol bytes (RFC 854).
const (
	telnetIAC  byte = 255
	telnetDONT byte = 254
	telnetDO   byte = 253
	telnetWONT byte = 252
	telnetWILL byte = 251
	telnetSB   byte = 250
	telnetSE   byte = 240
	telnetIP   byte = 244

	telnetOptEcho byte = 1
	telnetOptSGA  byte = 3
)

// TelnetConfig configures a line-mode telnet terminal.
type TelnetConfig struct {
	Host        string
	Port        int
	Width       int
	DialTimeout time.Duration
}

// DialTelnet returns a line-mode telnet terminal. Attention is sent as
// IAC IP.
func DialTelnet(cfg TelnetConfig) *StreamTerminal {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dial := func(ctx context.Context) (io.ReadWriteCloser, error) {
		d := net.Dialer{Timeout: cfg.DialTimeout}
		return d.DialContext(ctx, "tcp", addr)
	}

	var neg telnetNegotiator
	return NewStreamTerminal(dial, StreamOptions{
		Width:     cfg.Width,
		Newline:   []byte("\r\n"),
		Attention: []byte{telnetIAC, telnetIP},
		Filter:    neg.filter,
		Escape:    escapeIAC,
	})
}

// escapeIAC doubles literal 0xFF bytes.
func escapeIAC(p []byte) []byte {
	if bytes.IndexByte(p, telnetIAC) < 0 {
		return p
	}
	return bytes.ReplaceAll(p, []byte{telnetIAC}, []byte{telnetIAC, telnetIAC})
}

type negotiationState int

const (
	stateData negotiationState = iota
	stateIAC
	stateOption
	stateSub
	stateSubIAC
)

// telnetNegotiator strips telnet commands from the inbound stream. The
// server may echo and suppress go-ahead; every other option is refused.
type telnetNegotiator struct {
	state negotiationState
	verb  byte
	// err is the first failed reply; once set the negotiator stays failed.
	err error
}

func (n *telnetNegotiator) filter(p []byte, reply io.Writer) ([]byte, error) {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		switch n.state {
		case stateData:
			if b == telnetIAC {
				n.state = stateIAC
			} else {
				out = append(out, b)
			}
		case stateIAC:
			switch b {
			case telnetIAC:
				out = append(out, b)
				n.state = stateData
			case telnetDO, telnetDONT, telnetWILL, telnetWONT:
				n.verb = b
				n.state = stateOption
			case telnetSB:
				n.state = stateSub
			default:
				n.state = stateData
			}
		case stateOption:
			n.respond(n.verb, b, reply)
			n.state = stateData
		case stateSub:
			if b == telnetIAC {
				n.state = stateSubIAC
			}
		case stateSubIAC:
			if b == telnetSE {
				n.state = stateData
			} else {
				n.state = stateSub
			}
		}
	}
	return out, n.err
}

func (n *telnetNegotiator) respond(verb, opt byte, reply io.Writer) {
	var answer byte
	switch verb {
	case telnetDO:
		answer = telnetWONT
	case telnetWILL:
		if opt == telnetOptEcho || opt == telnetOptSGA {
			answer = telnetDO
		} else {
			answer = telnetDONT
		}
	default:
		return
	}
	if n.err != nil {
		return
	}
	if _, err := reply.Write([]byte{telnetIAC, answer, opt}); err != nil {
		n.err = fmt.Errorf("telnet option %d reply: %w", opt, err)
	}
}
