// Package notify delivers short user-facing messages. Sinks are
// fire-and-forget: Notify never fails and never blocks on the caller.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

type Level int

const (
	Info Level = iota
	Success
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Sink interface {
	Notify(level Level, msg string)
}

type Message struct {
	Level Level
	Text  string
}

// Discard drops every message.
var Discard Sink = discard{}

type discard struct{}

func (discard) Notify(Level, string) {}

// LogSink forwards messages to a zerolog logger.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Notify(level Level, msg string) {
	var ev *zerolog.Event
	switch level {
	case Warn:
		ev = s.Log.Warn()
	case Error:
		ev = s.Log.Error()
	default:
		ev = s.Log.Info()
	}
	ev.Str("toast", level.String()).Msg(msg)
}

// WriterSink prints each message on its own line. Warnings and errors are
// prefixed with their level.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Notify(level Level, msg string) {
	switch level {
	case Warn, Error:
		fmt.Fprintf(s.W, "%s: %s\n", level, msg)
	default:
		fmt.Fprintln(s.W, msg)
	}
}

// Recorder keeps the most recent messages, newest last.
type Recorder struct {
	mu   sync.Mutex
	max  int
	msgs []Message
}

func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 1
	}
	return &Recorder{max: max}
}

func (r *Recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Level: level, Text: msg})
	if len(r.msgs) > r.max {
		r.msgs = r.msgs[len(r.msgs)-r.max:]
	}
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Last returns the newest message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

// Tee fans a message out to several sinks.
type Tee []Sink

func (t Tee) Notify(level Level, msg string) {
	for _, s := range t {
		s.Notify(level, msg)
	}
}
