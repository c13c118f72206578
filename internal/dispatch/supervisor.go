//go:build linux

package dispatch

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// supervisorOutcome classifies how a child's lifecycle ended, grounded on
// the specification's Running/Terminating/Killing state machine (§4.3) and
// the teacher's process.Close() grace-then-SIGKILL escalation.
type supervisorOutcome struct {
	timedOut bool   // the Running->Terminating transition fired
	killed   bool   // the Terminating->Killing transition fired
	sigErr   error  // a SIGTERM/SIGKILL syscall itself failed
}

// superviseTimeout races timeLimit against done, which the caller closes once
// the child is finished: Execute closes it after Wait returns, ExecuteIter
// once both stdout/stderr readers have observed EOF (both fds close on
// process exit). On timeout it sends
// SIGTERM to the whole process group, waits up to one second, then escalates
// to SIGKILL. The process group (not just the PID) is signaled so detached
// grandchildren are reaped too — this is the reason every spawned child is
// placed in its own process group at Start time.
func superviseTimeout(pid int, timeLimit time.Duration, done <-chan struct{}) supervisorOutcome {
	timer := time.NewTimer(timeLimit)
	defer timer.Stop()

	select {
	case <-done:
		return supervisorOutcome{}

	case <-timer.C:
		var out supervisorOutcome
		out.timedOut = true

		if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
			out.sigErr = fmt.Errorf("SIGTERM: %w", err)
		}

		grace := time.NewTimer(1 * time.Second)
		defer grace.Stop()

		select {
		case <-done:
			return out

		case <-grace.C:
			out.killed = true
			if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
				if out.sigErr != nil {
					out.sigErr = fmt.Errorf("%w; SIGKILL: %v", out.sigErr, err)
				} else {
					out.sigErr = fmt.Errorf("SIGKILL: %w", err)
				}
			}
			<-done // the group is presumed reaped once pipes close
			return out
		}
	}
}

// newChildCommand builds an *exec.Cmd detached into its own process group,
// mirroring processmgr.newProcess: this is what lets the supervisor signal
// the whole group instead of a single PID, so detached grandchildren don't
// survive a timeout kill. Pdeathsig guarantees the child is reaped by the
// kernel even if redarrow itself is killed before the supervisor can act.
func newChildCommand(program string, argv []string) *exec.Cmd {
	cmd := exec.Command(program, argv...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	return cmd
}

// classifyExit inspects a reaped *os.ProcessState (via cmd.ProcessState,
// set after Wait returns) and reports the exit code if one exists.
func classifyExit(waitErr error, cmd *exec.Cmd) (exitCode int32, signaled bool) {
	if cmd.ProcessState == nil {
		return 0, false
	}
	status, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		// Not on a platform exposing WaitStatus; fall back to ExitCode().
		return int32(cmd.ProcessState.ExitCode()), cmd.ProcessState.ExitCode() == -1
	}
	if status.Signaled() {
		return 0, true
	}
	return int32(status.ExitStatus()), false
}
