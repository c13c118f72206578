package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redarrow/redarrow/internal/fanout"
	"github.com/redarrow/redarrow/pkg/redarrow"
)

func TestExitFromResultPassthrough(t *testing.T) {
	code := int32(7)
	res := &redarrow.CommandResult{ExitCode: &code}
	assert.Equal(t, 7, exitFromResult(res, nil))
}

func TestExitFromResultTransportError(t *testing.T) {
	assert.Equal(t, 3, exitFromResult(nil, errors.New("boom")))
}

func TestExitFromResultServerError(t *testing.T) {
	assert.Equal(t, 3, exitFromResult(redarrow.Err("Illegal Argument: bad"), nil))
}

func TestSummarizeTransportError(t *testing.T) {
	r := fanout.HostResult{Host: "h1", Err: errors.New("dial failed")}
	assert.Contains(t, summarize(r), "transport error")
}

func TestSummarizeExitCode(t *testing.T) {
	code := int32(2)
	r := fanout.HostResult{Host: "h2", Res: &redarrow.CommandResult{ExitCode: &code}}
	assert.Equal(t, "exit_code=2", summarize(r))
}
