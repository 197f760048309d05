// ABOUTME: Line-framed channel pair abstraction connecting the head office to one branch.
// ABOUTME: Defines the Pair interface plus an in-process implementation backed by buffered queues.

package channel

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pair operations after either end has been closed.
var ErrClosed = errors.New("channel closed")

// pipeBufferLines is the per-direction line buffer of an in-memory pipe.
// Matches the reply channel sizing used elsewhere: deep enough that a burst
// of replies never blocks the writer during normal operation.
const pipeBufferLines = 64

// Pair is one end of a bidirectional, line-framed byte channel. The concrete
// transport (in-memory pipe, socket) is a provisioning concern; consumers
// only rely on whole-line writes and cancellable whole-line reads.
type Pair interface {
	// WriteLine sends one line. The line must not contain a newline; framing
	// is the implementation's job.
	WriteLine(line string) error

	// ReadLine blocks until a full line is available, the context is
	// cancelled, or the channel closes. Lines already in flight when the
	// channel closes are still delivered before ErrClosed is reported.
	ReadLine(ctx context.Context) (string, error)

	// Close releases the channel. Closing either end closes both.
	Close() error
}

// memoryEnd is one end of an in-process pipe.
type memoryEnd struct {
	out  chan string
	in   chan string
	done chan struct{}
	once *sync.Once
}

// NewMemoryPipe creates a cross-wired in-process channel pair and returns
// the two ends. Writes on one end become reads on the other, in order.
// Used by the single-binary demo and by tests.
func NewMemoryPipe() (Pair, Pair) {
	ab := make(chan string, pipeBufferLines)
	ba := make(chan string, pipeBufferLines)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &memoryEnd{out: ab, in: ba, done: done, once: once}
	b := &memoryEnd{out: ba, in: ab, done: done, once: once}
	return a, b
}

func (e *memoryEnd) WriteLine(line string) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.out <- line:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

func (e *memoryEnd) ReadLine(ctx context.Context) (string, error) {
	// Drain buffered lines even after close, so shutdown acknowledgements
	// written just before Close are not lost.
	select {
	case line := <-e.in:
		return line, nil
	default:
	}

	select {
	case line := <-e.in:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-e.done:
		select {
		case line := <-e.in:
			return line, nil
		default:
			return "", ErrClosed
		}
	}
}

func (e *memoryEnd) Close() error {
	e.once.Do(func() { close(e.done) })
	return nil
}
