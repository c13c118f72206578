// Package redarrow defines the wire contract shared by the redarrow server
// and its clients: the CommandResult envelope and the fd-tagged streaming
// frame grammar layered on top of it.
package redarrow

import "encoding/json"

// CommandResult is the JSON envelope returned by the server for both
// buffered and chunked command execution. Fields are omitted from the wire
// when unset so the three shapes (ok, chunked_ok, err) stay distinguishable.
type CommandResult struct {
	Stdout    *string  `json:"stdout,omitempty"`
	Stderr    *string  `json:"stderr,omitempty"`
	ExitCode  *int32   `json:"exit_code,omitempty"`
	TimeCost  *float64 `json:"time_cost,omitempty"`
	StartTime *float64 `json:"start_time,omitempty"`
	Error     *string  `json:"error,omitempty"`
}

// OK builds the buffered success shape: stdout/stderr/exit_code/time_cost/
// start_time set, error unset.
func OK(stdout, stderr string, exitCode int32, timeCost, startTime float64) *CommandResult {
	return &CommandResult{
		Stdout:    &stdout,
		Stderr:    &stderr,
		ExitCode:  &exitCode,
		TimeCost:  &timeCost,
		StartTime: &startTime,
	}
}

// ChunkedOK builds the streaming success shape: stdout/stderr are carried out
// of band as frames, so only exit_code/time_cost/start_time are set here.
func ChunkedOK(exitCode int32, timeCost, startTime float64) *CommandResult {
	return &CommandResult{
		ExitCode:  &exitCode,
		TimeCost:  &timeCost,
		StartTime: &startTime,
	}
}

// Err builds the error shape: only error is set.
func Err(msg string) *CommandResult {
	return &CommandResult{Error: &msg}
}

// IsError reports whether this result carries an error.
func (r *CommandResult) IsError() bool { return r != nil && r.Error != nil }

// ErrorMessage returns the error string, or "" if this result is not an error.
func (r *CommandResult) ErrorMessage() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return *r.Error
}

// GetExitCode returns the exit code and whether one is present.
func (r *CommandResult) GetExitCode() (int32, bool) {
	if r == nil || r.ExitCode == nil {
		return 0, false
	}
	return *r.ExitCode, true
}

// GetTimeCost returns the elapsed wall-clock seconds and whether one is
// present.
func (r *CommandResult) GetTimeCost() (float64, bool) {
	if r == nil || r.TimeCost == nil {
		return 0, false
	}
	return *r.TimeCost, true
}

// Marshal serializes the result to its wire JSON form.
func (r *CommandResult) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal parses a wire JSON body into a CommandResult.
func Unmarshal(body []byte) (*CommandResult, error) {
	var r CommandResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
