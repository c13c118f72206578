// Package stream implements the redarrow chunked wire grammar:
//
//	stream  := frame*
//	frame   := fd "> " payload "\n"
//	fd      := "0" | "1" | "2"
//
// fd=1/2 carry one line of child stdout/stderr each; fd=0 carries the final
// JSON CommandResult and terminates the stream. The grammar is deliberately
// line-oriented rather than length-prefixed so it reads naturally off an
// HTTP chunked response body with any off-the-shelf reader.
package stream

import "fmt"

// FD identifies which stream a frame's payload came from.
type FD int

const (
	FDResult FD = 0 // terminal JSON CommandResult envelope
	FDStdout FD = 1
	FDStderr FD = 2
)

func (fd FD) String() string {
	switch fd {
	case FDResult:
		return "0"
	case FDStdout:
		return "1"
	case FDStderr:
		return "2"
	default:
		return fmt.Sprintf("%d", int(fd))
	}
}

// Frame is one parsed wire record.
type Frame struct {
	FD      FD
	Payload []byte
}

// Encode renders one frame exactly as it appears on the wire:
// "<fd>> <payload>\n". Payload must not itself contain a newline.
func Encode(fd FD, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, fd.String()...)
	out = append(out, '>', ' ')
	out = append(out, payload...)
	out = append(out, '\n')
	return out
}

// EncodeLine is a convenience wrapper over Encode for string payloads.
func EncodeLine(fd FD, line string) []byte {
	return Encode(fd, []byte(line))
}
