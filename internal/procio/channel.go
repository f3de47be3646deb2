// Package procio runs child processes and exposes their output as a
// non-blocking line stream.
//
// A Channel is owned by a single goroutine. The only background work is a
// reader goroutine that moves raw bytes from the child's pipe into a small
// queue; buffering, line splitting and error reporting happen on the owner's
// side, in the order the bytes were produced.
package procio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const (
	readChunkSize = 8192
	bufferChunk   = 8192
	queuedChunks  = 16
	stderrLimit   = 4096
	waitDelay     = 2 * time.Second
)

// Command describes a child process to run.
type Command struct {
	Argv []string
	Dir  string
	// Env entries are appended to the current environment.
	Env []string
	// Stdin is forwarded to the child when set.
	Stdin io.Reader
	// WithStderr merges the child's stderr into the output stream.
	WithStderr bool
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

type chunk struct {
	data []byte
	err  error
}

// Channel is a byte stream bound to a child process (or to a fixed string).
type Channel struct {
	argv   []string
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *tailBuffer

	chunks  chan chunk
	stop    chan struct{}
	wake    chan<- struct{}
	pending *chunk

	buf   []byte
	start int
	end   int

	sourceDone bool
	eof        bool
	err        error

	closed  bool
	killed  bool
	exitErr error
}

// Open starts the command and returns a channel reading its stdout. wake, if
// not nil, receives a non-blocking signal every time new output is queued or
// the stream ends.
func Open(ctx context.Context, c Command, wake chan<- struct{}) (*Channel, error) {
	if len(c.Argv) == 0 {
		return nil, &SpawnError{Err: errors.New("empty command")}
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &SpawnError{Argv: c.Argv, Err: err}
	}
	var stderr *tailBuffer
	if c.WithStderr {
		cmd.Stderr = cmd.Stdout
	} else {
		stderr = &tailBuffer{limit: stderrLimit}
		cmd.Stderr = stderr
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &SpawnError{Argv: c.Argv, Err: err}
	}
	ch := newChannel(wake)
	ch.argv = c.Argv
	ch.cmd = cmd
	ch.cancel = cancel
	ch.stderr = stderr
	go ch.pump(stdout)
	return ch, nil
}

// FromString returns an already finished channel whose stream is text.
func FromString(text string) *Channel {
	ch := newChannel(nil)
	ch.append([]byte(text))
	ch.sourceDone = true
	close(ch.chunks)
	return ch
}

// FromReader returns a channel streaming r, which is read until EOF by a
// background goroutine. Closing the channel does not close r.
func FromReader(r io.Reader, wake chan<- struct{}) *Channel {
	ch := newChannel(wake)
	go ch.pump(r)
	return ch
}

func newChannel(wake chan<- struct{}) *Channel {
	return &Channel{
		chunks: make(chan chunk, queuedChunks),
		stop:   make(chan struct{}),
		wake:   wake,
	}
}

func (c *Channel) pump(r io.Reader) {
	defer func() {
		close(c.chunks)
		c.notify()
	}()
	for {
		buf := make([]byte, readChunkSize)
		n, err := r.Read(buf)
		if n > 0 && !c.send(chunk{data: buf[:n]}) {
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.send(chunk{err: err})
			}
			return
		}
	}
}

func (c *Channel) send(ck chunk) bool {
	select {
	case c.chunks <- ck:
		c.notify()
		return true
	case <-c.stop:
		return false
	}
}

func (c *Channel) notify() {
	if c.wake == nil {
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Ready reports whether Fill would make progress. With block set it waits
// for the next chunk or the end of the stream; otherwise it never blocks.
func (c *Channel) Ready(block bool) bool {
	if c.pending != nil || c.sourceDone || c.err != nil {
		return true
	}
	if block {
		ck, ok := <-c.chunks
		c.accept(ck, ok)
		return true
	}
	select {
	case ck, ok := <-c.chunks:
		c.accept(ck, ok)
		return true
	default:
		return false
	}
}

func (c *Channel) accept(ck chunk, ok bool) {
	if !ok {
		c.sourceDone = true
		return
	}
	c.pending = &ck
}

// Pending reports whether output is queued that has not been pulled into
// the read buffer yet.
func (c *Channel) Pending() bool {
	return c.pending != nil || len(c.chunks) > 0 || (c.sourceDone && !c.eof)
}

// Fill moves the next available chunk into the read buffer and returns its
// size. It returns io.EOF once the stream ended. A read failure is recorded
// when it arrives and returned by the following call, so bytes received
// before it are consumed first.
func (c *Channel) Fill() (int, error) {
	if c.pending == nil && !c.sourceDone && c.err == nil && !c.Ready(false) {
		return 0, nil
	}
	if ck := c.pending; ck != nil {
		c.pending = nil
		if ck.err != nil {
			c.err = &IOError{Err: ck.err}
			return 0, nil
		}
		c.append(ck.data)
		return len(ck.data), nil
	}
	if c.err != nil {
		return 0, c.err
	}
	c.eof = true
	return 0, io.EOF
}

func (c *Channel) append(data []byte) {
	if c.start > 0 {
		c.end = copy(c.buf, c.buf[c.start:c.end])
		c.start = 0
	}
	if need := c.end + len(data); need > len(c.buf) {
		size := (need + bufferChunk - 1) / bufferChunk * bufferChunk
		grown := make([]byte, size)
		copy(grown, c.buf[:c.end])
		c.buf = grown
	}
	c.end += copy(c.buf[c.end:], data)
}

// Line extracts the next delim-terminated line from the read buffer, without
// the delimiter. An incomplete trailing fragment stays buffered until more
// data arrives; once the stream ended it is returned as the last line.
// The returned slice is only valid until the next call to Fill.
func (c *Channel) Line(delim byte) ([]byte, bool) {
	if c.start >= c.end {
		return nil, false
	}
	unread := c.buf[c.start:c.end]
	if i := bytes.IndexByte(unread, delim); i >= 0 {
		c.start += i + 1
		return unread[:i:i], true
	}
	if (c.sourceDone || c.err != nil) && c.pending == nil {
		c.start = c.end
		return unread[:len(unread):len(unread)], true
	}
	return nil, false
}

// Buffered returns the number of unread bytes in the read buffer.
func (c *Channel) Buffered() int {
	return c.end - c.start
}

// EOF reports whether Fill already returned io.EOF.
func (c *Channel) EOF() bool {
	return c.eof
}

// Kill signals the child and finalizes the channel.
func (c *Channel) Kill() error {
	if !c.closed && c.cmd != nil && c.cmd.Process != nil {
		c.killed = true
		_ = c.cmd.Process.Kill()
	}
	return c.Close()
}

// Close finalizes the channel and waits for the child to exit. A child still
// producing output is killed first. The result is an *ExitError unless the
// child exited normally with status 0.
func (c *Channel) Close() error {
	if c.closed {
		return c.exitErr
	}
	if !c.eof && c.cmd != nil && c.cmd.Process != nil && !c.killed {
		c.killed = true
		_ = c.cmd.Process.Kill()
	}
	c.closed = true
	close(c.stop)
	if c.cmd == nil {
		return nil
	}
	err := c.cmd.Wait()
	c.cancel()
	if err != nil {
		c.exitErr = c.exitError(err)
	}
	return c.exitErr
}

// Success reports whether the channel was closed and the child exited
// normally with status 0.
func (c *Channel) Success() bool {
	return c.closed && c.exitErr == nil
}

func (c *Channel) exitError(err error) error {
	res := &ExitError{Argv: c.argv, Code: -1, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.Code = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			res.Signaled = true
		}
	}
	if c.stderr != nil {
		res.Stderr = strings.TrimSpace(c.stderr.String())
	}
	return res
}

// Output runs the command to completion and returns its stdout. git's stderr
// is appended to the returned error.
func Output(ctx context.Context, c Command) (string, error) {
	if len(c.Argv) == 0 {
		return "", &SpawnError{Err: errors.New("empty command")}
	}
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return "", &SpawnError{Argv: c.Argv, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		ch := &Channel{argv: c.Argv, stderr: stderr}
		return stdout.String(), ch.exitError(err)
	}
	return stdout.String(), nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
