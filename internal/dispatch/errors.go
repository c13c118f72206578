// Package dispatch implements command execution (§4.2 of the
// specification) and the timeout/signal-escalation supervisor (§4.3),
// rendering every failure into the wire error taxonomy of §7.
package dispatch

import (
	"fmt"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/pkg/redarrow"
)

// resultFromBuildError renders a catalog.Build error into the wire
// "Illegal Argument" shape.
func resultFromBuildError(err error) *redarrow.CommandResult {
	switch e := err.(type) {
	case *catalog.ArgCountError:
		return redarrow.Err(fmt.Sprintf("%s: %s", redarrow.PrefixIllegalArgument, e.Error()))
	case *catalog.ArgMatchError:
		return redarrow.Err(fmt.Sprintf("%s: %s", redarrow.PrefixIllegalArgument, e.Error()))
	default:
		return redarrow.Err(fmt.Sprintf("%s: %s", redarrow.PrefixIllegalArgument, err.Error()))
	}
}

// spawnError renders a failure to start or read the child process.
func spawnError(err error) *redarrow.CommandResult {
	return redarrow.Err(fmt.Sprintf("Spawn: %s", err.Error()))
}

// terminatedBySignalError renders a child that died without an exit code
// and not as a result of our own timeout escalation.
func terminatedBySignalError() *redarrow.CommandResult {
	return redarrow.Err(redarrow.PrefixTerminatedBySig)
}

// timeLimitExceededError renders the timeout shape, optionally carrying
// wait-status detail or a signal-delivery failure.
func timeLimitExceededError(detail string) *redarrow.CommandResult {
	if detail == "" {
		return redarrow.Err(redarrow.PrefixTimeLimitExceeded)
	}
	return redarrow.Err(fmt.Sprintf("%s: %s", redarrow.PrefixTimeLimitExceeded, detail))
}
