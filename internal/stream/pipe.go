package stream

import (
	"context"
	"sync"
)

const pipeBuffer = 64

type pipe struct {
	closed chan struct{}
	once   sync.Once
}

type pipeEnd struct {
	p   *pipe
	in  <-chan Message
	out chan<- Message
}

// Pipe returns two connected in-process transports. Closing either end
// closes both.
func Pipe() (Transport, Transport) {
	p := &pipe{closed: make(chan struct{})}
	ab := make(chan Message, pipeBuffer)
	ba := make(chan Message, pipeBuffer)
	return &pipeEnd{p: p, in: ba, out: ab}, &pipeEnd{p: p, in: ab, out: ba}
}

func (e *pipeEnd) Send(ctx context.Context, msg Message) error {
	select {
	case <-e.p.closed:
		return ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.p.closed:
		return ErrClosed
	case e.out <- msg:
		return nil
	}
}

func (e *pipeEnd) Receive(ctx context.Context) (Message, error) {
	// Drain anything already delivered before reporting closure.
	select {
	case msg := <-e.in:
		return msg, nil
	default:
	}
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-e.in:
		return msg, nil
	case <-e.p.closed:
		return Message{}, ErrClosed
	}
}

func (e *pipeEnd) Close() error {
	e.p.once.Do(func() { close(e.p.closed) })
	return nil
}
