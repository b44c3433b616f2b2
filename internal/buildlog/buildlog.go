// Package buildlog is the deployment build log that explains runtime selection to the user.
package buildlog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// Status is the pipeline-visible outcome of a deployment.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Sink receives diagnostic lines in order and then the final status exactly once.
type Sink interface {
	Append(line string)
	Complete(status Status)
}

// Memory keeps the log in memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	lines  []string
	status Status
}

func NewMemory() *Memory {
	return &Memory{status: StatusPending}
}

func (m *Memory) Append(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

func (m *Memory) Complete(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Lines returns a copy of the lines appended so far.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Text returns the log joined by newlines.
func (m *Memory) Text() string {
	return strings.Join(m.Lines(), "\n")
}

func (m *Memory) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Writer streams the log to w, one line per Append.
//
// Write errors are remembered and reported by Err; the build log must never
// change the deployment outcome.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Append(line string) {
	w.writeLine(line)
}

func (w *Writer) Complete(status Status) {
	switch status {
	case StatusSuccess:
		w.writeLine("Deployment successful.")
	case StatusFailed:
		w.writeLine("Deployment Failed.")
	default:
		w.writeLine(fmt.Sprintf("Deployment finished with status %s.", status))
	}
}

func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) writeLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.w, line+"\n"); err != nil {
		w.err = fmt.Errorf("buildlog: write: %w", err)
	}
}

// Logger mirrors the build log into a structured logger.
type Logger struct {
	Log logr.Logger
}

func (l Logger) Append(line string) {
	l.Log.Info(line)
}

func (l Logger) Complete(status Status) {
	l.Log.Info("deployment completed", "status", status)
}

// Multi fans every call out to each sink in order.
type Multi []Sink

func (m Multi) Append(line string) {
	for _, s := range m {
		s.Append(line)
	}
}

func (m Multi) Complete(status Status) {
	for _, s := range m {
		s.Complete(status)
	}
}
