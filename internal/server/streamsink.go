package server

import "github.com/redarrow/redarrow/pkg/redarrow/stream"

// StreamSink bridges the two blocking stdout/stderr reader goroutines
// started by dispatch.ExecuteIter to the HTTP response writer goroutine,
// playing the role of the specification's internal queue plus waker: the
// buffered channel itself is the queue, and a channel send/receive is the
// waker — the writer goroutine parks on a receive instead of busy-polling.
type StreamSink struct {
	lines chan string
	done  <-chan struct{}
}

// NewStreamSink allocates a sink with room for backlog frames before a
// producer would otherwise block on a slow client. done is closed when the
// consuming side (the HTTP handler) gives up, e.g. on client disconnect;
// once closed, Send stops delivering and reports failure instead of
// blocking forever.
func NewStreamSink(buf int, done <-chan struct{}) *StreamSink {
	return &StreamSink{
		lines: make(chan string, buf),
		done:  done,
	}
}

// Send implements dispatch.Sink: it delivers one already-framed line,
// returning false if the consumer is gone.
func (s *StreamSink) Send(fd stream.FD, line string) bool {
	select {
	case s.lines <- line:
		return true
	case <-s.done:
		return false
	}
}

// Lines exposes the read side for the writer goroutine to range over.
func (s *StreamSink) Lines() <-chan string {
	return s.lines
}

// Close signals no further lines will be produced; the writer goroutine's
// range over Lines() terminates once the channel drains.
func (s *StreamSink) Close() {
	close(s.lines)
}
