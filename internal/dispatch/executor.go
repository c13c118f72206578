//go:build linux

package dispatch

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/internal/metrics"
	"github.com/redarrow/redarrow/pkg/redarrow"
	"github.com/redarrow/redarrow/pkg/redarrow/stream"
)

// Sink receives one streamed line at a time during ExecuteIter. It returns
// false if the line could not be delivered (e.g. the caller's channel is
// closed); a false return does not fail the command, it is only logged.
type Sink func(fd stream.FD, line string) bool

// Executor runs one catalog.Command's child process, enforcing the
// supervisor's timeout/signal escalation and recording completion metrics.
// It holds no per-call state and is safe for concurrent use across
// requests.
type Executor struct {
	log *zap.Logger
}

// NewExecutor returns an Executor that logs through log.
func NewExecutor(log *zap.Logger) *Executor {
	return &Executor{log: log.Named("dispatch")}
}

// Execute runs cmd with arguments, buffering stdout/stderr to completion
// (or until time_limit triggers the supervisor), and returns the buffered
// result shape. It never panics; spawn and regex validation failures map to
// CommandResult errors.
func (x *Executor) Execute(cmd *catalog.Command, arguments []string) *redarrow.CommandResult {
	program, argv, err := cmd.Build(arguments)
	if err != nil {
		return resultFromBuildError(err)
	}

	startTime := time.Now()
	c := newChildCommand(program, argv)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Start(); err != nil {
		return spawnError(err)
	}
	pid := c.Process.Pid

	done := make(chan struct{})
	go func() {
		_ = c.Wait()
		close(done)
	}()

	outcome := superviseTimeout(pid, cmd.TimeLimit, done)
	<-done // Wait() above has returned; c.ProcessState is now populated.

	elapsed := time.Since(startTime).Seconds()
	epoch := float64(startTime.UnixNano()) / 1e9

	exitCode, signaled := classifyExit(nil, c)
	return x.render(outcome, exitCode, signaled, stdout.String(), stderr.String(), elapsed, epoch)
}

// ExecuteIter runs cmd with arguments, delivering each stdout/stderr line to
// sink as a framed "<fd>> line\n" string the instant it is read, rather than
// buffering the whole output. Returns the chunked result shape on
// completion.
func (x *Executor) ExecuteIter(cmd *catalog.Command, arguments []string, sink Sink) *redarrow.CommandResult {
	program, argv, err := cmd.Build(arguments)
	if err != nil {
		return resultFromBuildError(err)
	}

	startTime := time.Now()
	c := newChildCommand(program, argv)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return spawnError(err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return spawnError(err)
	}

	if err := c.Start(); err != nil {
		return spawnError(err)
	}
	pid := c.Process.Pid

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); x.drain(stdout, stream.FDStdout, sink) }()
	go func() { defer wg.Done(); x.drain(stderr, stream.FDStderr, sink) }()

	readersDone := make(chan struct{})
	go func() { wg.Wait(); close(readersDone) }()

	outcome := superviseTimeout(pid, cmd.TimeLimit, readersDone)

	// Both reader goroutines have returned (readersDone is closed on every
	// path through superviseTimeout); the child's pipes are closed, so Wait
	// returns promptly.
	_ = c.Wait()

	elapsed := time.Since(startTime).Seconds()
	epoch := float64(startTime.UnixNano()) / 1e9

	exitCode, signaled := classifyExit(nil, c)
	return x.renderChunked(outcome, exitCode, signaled, elapsed, epoch)
}

// drain scans line by line, framing each as it goes, until the stream ends.
func (x *Executor) drain(r io.Reader, fd stream.FD, sink Sink) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := string(stream.Encode(fd, sc.Bytes()))
		if sink != nil && !sink(fd, line) {
			x.log.Warn("dispatch: dropped line, sink unavailable", zap.String("fd", fd.String()))
		}
	}
	if err := sc.Err(); err != nil {
		x.log.Error("dispatch: stream read failure", zap.String("fd", fd.String()), zap.Error(err))
	}
}

func (x *Executor) render(o supervisorOutcome, exitCode int32, signaled bool, stdout, stderr string, elapsed, epoch float64) *redarrow.CommandResult {
	if res := x.terminalError(o, exitCode, signaled, elapsed); res != nil {
		return res
	}
	metrics.RecordCompletion(metrics.StatusOK, strconv.Itoa(int(exitCode)))
	return redarrow.OK(stdout, stderr, exitCode, elapsed, epoch)
}

func (x *Executor) renderChunked(o supervisorOutcome, exitCode int32, signaled bool, elapsed, epoch float64) *redarrow.CommandResult {
	if res := x.terminalError(o, exitCode, signaled, elapsed); res != nil {
		return res
	}
	metrics.RecordCompletion(metrics.StatusOK, strconv.Itoa(int(exitCode)))
	return redarrow.ChunkedOK(exitCode, elapsed, epoch)
}

// terminalError maps a supervisorOutcome plus raw exit classification onto
// the wire error taxonomy, or returns nil when the command succeeded.
func (x *Executor) terminalError(o supervisorOutcome, exitCode int32, signaled bool, elapsed float64) *redarrow.CommandResult {
	detail := ""
	if o.sigErr != nil {
		detail = o.sigErr.Error()
	}

	switch {
	case o.killed:
		metrics.RecordCompletion(metrics.StatusTimeout, "")
		msg := "killed"
		if detail != "" {
			msg += "; " + detail
		}
		return timeLimitExceededError(msg)

	case o.timedOut:
		metrics.RecordCompletion(metrics.StatusTimeout, "")
		status := "terminated"
		if signaled {
			status = "signal: terminated"
		} else {
			status = "exit status " + strconv.Itoa(int(exitCode))
		}
		if detail != "" {
			status += "; " + detail
		}
		return timeLimitExceededError(status)

	case signaled:
		metrics.RecordCompletion(metrics.StatusTerminated, "")
		return terminatedBySignalError()

	default:
		return nil
	}
}
