// Package wire implements the corkboard protocol: newline-delimited JSON
// objects over TCP, one request and at most one response per connection.
package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/ugorji/go/codec"
)

// ErrUnknownType is returned when a frame carries an unrecognised type tag.
var ErrUnknownType = errors.New("unknown request type")

var jsonHandle = newJSONHandle()

func newJSONHandle() *codec.JsonHandle {
	h := new(codec.JsonHandle)
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}

// envelope is the first-pass decode of a frame: just enough to dispatch on.
type envelope struct {
	Type string `json:"type"`
}

// ReadFrame reads one newline-terminated frame, without the delimiter. A
// connection that closes before the delimiter arrives is a framing error.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return line[:len(line)-1], nil
}

// WriteFrame encodes v as a single JSON object followed by the newline
// delimiter.
func WriteFrame(w io.Writer, v interface{}) error {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, jsonHandle).Encode(v); err != nil {
		return err
	}
	buf = append(buf, '\n')
	_, err := w.Write(buf)
	return err
}

// DecodeRequest maps a frame to its concrete request struct. The frame is
// decoded twice: once for the envelope tag, once into the matching variant.
func DecodeRequest(frame []byte) (interface{}, error) {
	var env envelope
	if err := Decode(frame, &env); err != nil {
		return nil, err
	}

	var req interface{}
	switch env.Type {
	case TypeLogin:
		req = new(LoginRequest)
	case TypePost:
		req = new(PostRequest)
	case TypeGet:
		req = new(GetRequest)
	case TypeHello:
		req = new(HelloRequest)
	case TypeSend:
		req = new(SendRequest)
	case TypeToken:
		req = new(TokenRequest)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := Decode(frame, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Decode unmarshals one frame into v.
func Decode(frame []byte, v interface{}) error {
	return codec.NewDecoderBytes(frame, jsonHandle).Decode(v)
}
