// ABOUTME: Pair implementation framing lines over any net.Conn (unix socket, TCP, net.Pipe).
// ABOUTME: A reader pump splits the byte stream on newlines so one chunk can carry many replies.

package channel

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
)

// connPair adapts a net.Conn to the Pair interface. A background pump reads
// the stream through a buffered reader and emits one logical line per
// newline, so a single read that drained several concatenated replies still
// surfaces them individually and in order.
type connPair struct {
	conn net.Conn

	writeMu sync.Mutex

	lines chan string
	done  chan struct{}
	once  sync.Once

	errMu   sync.Mutex
	readErr error
}

// NewConnPair wraps conn in a line-framed Pair and starts its reader pump.
func NewConnPair(conn net.Conn) Pair {
	p := &connPair{
		conn:  conn,
		lines: make(chan string, pipeBufferLines),
		done:  make(chan struct{}),
	}
	go p.pump()
	return p
}

// pump moves newline-terminated lines from the conn into the lines channel
// until the stream errors or the pair is closed.
func (p *connPair) pump() {
	defer close(p.lines)

	r := bufio.NewReader(p.conn)
	for {
		raw, err := r.ReadString('\n')
		if line := strings.TrimRight(raw, "\r\n"); line != "" || err == nil {
			select {
			case p.lines <- line:
			case <-p.done:
				return
			}
		}
		if err != nil {
			p.setReadErr(err)
			return
		}
	}
}

func (p *connPair) setReadErr(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.readErr == nil {
		p.readErr = err
	}
}

func (p *connPair) takeReadErr() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.readErr != nil {
		return p.readErr
	}
	return ErrClosed
}

func (p *connPair) WriteLine(line string) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	_, err := io.WriteString(p.conn, line+"\n")
	return err
}

func (p *connPair) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", p.takeReadErr()
		}
		return line, nil
	default:
	}

	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", p.takeReadErr()
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", ErrClosed
	}
}

func (p *connPair) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		err = p.conn.Close()
	})
	return err
}
