// Package ipc implements the bridged request/response loop the external
// client drives over standard input and output.
//
// Transport: one JSON object per line, no framing. The loop reads a line,
// dispatches it, writes exactly one response line, and reads the next —
// no pipelining. Standard error carries log lines and is not part of the
// protocol. While a tick runs, stdin is not read.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/engine"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// maxLineBytes bounds one request line.
const maxLineBytes = 1 << 20

type request struct {
	Type    string          `json:"type"`
	Count   uint64          `json:"count"`
	Cmd     string          `json:"cmd"`
	Payload json.RawMessage `json:"payload"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Loop runs the request/response state machine until a quit request or
// end-of-file on the input. Request errors become {"error": "..."}
// responses and the loop resumes reading; only transport failures abort.
func Loop(eng *engine.Engine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	writer := bufio.NewWriter(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := writeJSON(writer, errorResponse{Error: err.Error()}); err != nil {
				return err
			}
			continue
		}

		if req.Type == "quit" {
			slog.Info("ipc quit requested")
			return nil
		}

		response, err := dispatch(eng, &req)
		if err != nil {
			response = errorResponse{Error: err.Error()}
		}
		if err := writeJSON(writer, response); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return sim.CommandErr("read ipc input", err)
	}
	// EOF is a shutdown signal equivalent to quit.
	slog.Info("ipc input closed")
	return nil
}

func dispatch(eng *engine.Engine, req *request) (any, error) {
	switch req.Type {
	case "tick":
		count := req.Count
		if count == 0 {
			count = 1
		}
		if err := eng.RunTicks(count); err != nil {
			return nil, err
		}
		return eng.BuildUIState()

	case "get_state":
		return eng.BuildUIState()

	case "command":
		cmd, err := sim.ParseCommand(req.Cmd, req.Payload)
		if err != nil {
			return nil, err
		}
		if err := eng.SubmitCommand(cmd); err != nil {
			return nil, err
		}
		// Advance one tick so the command takes effect before the
		// response snapshot.
		if err := eng.RunTicks(1); err != nil {
			return nil, err
		}
		return eng.BuildUIState()

	default:
		return nil, sim.CommandErr(fmt.Sprintf("unknown request type %q", req.Type), nil)
	}
}

func writeJSON(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return sim.SerializationErr("marshal ipc response", err)
	}
	if _, err := w.Write(data); err != nil {
		return sim.CommandErr("write ipc response", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return sim.CommandErr("write ipc response", err)
	}
	return w.Flush()
}
