// Package nativehost implements the browser native messaging host: the
// extension's startTimer/stopTimer messages arrive on stdin, framed with a
// 4-byte little-endian length prefix, and are forwarded to the daemon.
package nativehost

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

// MaxMessageSize is the browser's limit on a host-to-extension message.
const MaxMessageSize = 1 << 20

// Extension actions.
const (
	ActionStartTimer = "startTimer"
	ActionStopTimer  = "stopTimer"
	ActionGetState   = "getState"
)

// Request is a message from the extension.
type Request struct {
	Action     string               `json:"action"`
	Duration   int64                `json:"duration,omitempty"` // milliseconds
	PresetName string               `json:"presetName,omitempty"`
	PresetID   string               `json:"presetId,omitempty"`
	Clocks     []model.ClockSegment `json:"clocks,omitempty"`
}

// Response is the reply to one Request.
type Response struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	State   *timer.RestoreResult `json:"state,omitempty"`
}

// ReadMessage reads one length-prefixed message.
func ReadMessage(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes (max %d)", length, MaxMessageSize)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMessage writes one length-prefixed message.
func WriteMessage(w io.Writer, msg []byte) error {
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(msg), MaxMessageSize)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(msg))); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}

// ParseRequest decodes a Request.
func ParseRequest(b []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func encode(resp Response) []byte {
	b, _ := json.Marshal(resp)
	return b
}

func failure(err error) Response {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Response{Success: false, Error: msg}
}
