package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/internal/dispatch"
	"github.com/redarrow/redarrow/pkg/redarrow"
	"github.com/redarrow/redarrow/pkg/redarrow/stream"
)

const streamBacklog = 256

// commandHandler closes over the loaded catalog and executor; gin calls it
// once per matched request.
type commandHandler struct {
	cat catalog.Catalog
	exe *dispatch.Executor
}

func (h *commandHandler) handle(c *gin.Context) {
	name := c.Param("name")
	chunked := c.DefaultQuery("chunked", "0") == "1"
	format := c.DefaultQuery("format", "json")
	arguments := splitArgument(c.Query("argument"))

	cmd, ok := h.cat.Lookup(name)
	if !ok {
		h.writeUnknownCommand(c, name, chunked)
		return
	}

	if chunked {
		if format != "json" {
			c.Data(http.StatusBadRequest, "application/octet-stream", []byte("0> chunked only support json format\n"))
			return
		}
		h.handleChunked(c, cmd, arguments)
		return
	}

	res := h.exe.Execute(cmd, arguments)

	switch format {
	case "prometheus":
		h.writePrometheus(c, res)
	default:
		h.writeJSON(c, res)
	}
}

// splitArgument implements the spec's "split on single ASCII space, empty
// or absent yields zero arguments" rule.
func splitArgument(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, " ")
}

func (h *commandHandler) writeUnknownCommand(c *gin.Context, name string, chunked bool) {
	res := redarrow.Err(fmt.Sprintf("%s%s", redarrow.PrefixUnknownCommand, name))
	body, _ := res.Marshal()

	if chunked {
		c.Data(http.StatusBadRequest, "application/octet-stream", stream.Encode(stream.FDResult, body))
		return
	}
	c.Data(http.StatusBadRequest, "application/json", body)
}

func (h *commandHandler) writeJSON(c *gin.Context, res *redarrow.CommandResult) {
	body, err := res.Marshal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	// Illegal Argument is a pre-execution validation failure, not a failed
	// execution: no child was ever spawned, so the call "succeeded" at the
	// HTTP layer even though the CommandResult itself carries an error.
	if res.IsError() && !strings.Contains(res.ErrorMessage(), redarrow.PrefixIllegalArgument) {
		status = http.StatusInternalServerError
	}
	c.Data(status, "application/json", body)
}

func (h *commandHandler) writePrometheus(c *gin.Context, res *redarrow.CommandResult) {
	success := 1
	var code int32
	var timeCost float64
	if res.IsError() {
		success = 0
	} else if ec, ok := res.GetExitCode(); ok {
		code = ec
		if ec != 0 {
			success = 0
		}
	}
	if tc, ok := res.GetTimeCost(); ok {
		timeCost = tc
	}

	var b strings.Builder
	fmt.Fprintf(&b, "redarrow_command_success %d\n", success)
	fmt.Fprintf(&b, "redarrow_command_return_code %d\n", code)
	fmt.Fprintf(&b, "redarrow_command_time_cost %g\n", timeCost)
	c.Data(http.StatusOK, "text/plain; version=0.0.4", []byte(b.String()))
}

func (h *commandHandler) handleChunked(c *gin.Context, cmd *catalog.Command, arguments []string) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/octet-stream")
	c.Header("X-Content-Type-Options", "nosniff")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		res := h.exe.Execute(cmd, arguments)
		h.writeJSON(c, res)
		return
	}

	done := c.Request.Context().Done()
	sink := NewStreamSink(streamBacklog, done)

	resultCh := make(chan *redarrow.CommandResult, 1)
	go func() {
		defer sink.Close()
		resultCh <- h.exe.ExecuteIter(cmd, arguments, sink.Send)
	}()

	for line := range sink.Lines() {
		if _, err := c.Writer.WriteString(line); err != nil {
			return
		}
		flusher.Flush()
	}

	res := <-resultCh
	body, err := res.Marshal()
	if err != nil {
		return
	}
	c.Writer.Write(stream.Encode(stream.FDResult, body))
	flusher.Flush()
}
