package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

// ErrUnknownEncoder is returned when an output format is not registered.
var ErrUnknownEncoder = errors.New("unknown encoder")

// Encoder writes a query to w in some output format.
type Encoder interface {
	Encode(w io.Writer, q Query) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(w io.Writer, q Query) error

// Encode calls f(w, q).
func (f EncoderFunc) Encode(w io.Writer, q Query) error {
	return f(w, q)
}

var (
	encodersMu sync.RWMutex
	encoders   = make(map[string]Encoder)
)

// RegisterEncoder registers an encoder by name, replacing any previous
// registration under that name.
func RegisterEncoder(name string, e Encoder) {
	encodersMu.Lock()
	defer encodersMu.Unlock()

	encoders[name] = e
}

// GetEncoder returns the encoder registered under name, or nil.
func GetEncoder(name string) Encoder { //nolint:ireturn
	encodersMu.RLock()
	defer encodersMu.RUnlock()

	return encoders[name]
}

// LookupEncoder is like GetEncoder but returns ErrUnknownEncoder when name is
// not registered.
func LookupEncoder(name string) (Encoder, error) { //nolint:ireturn
	e := GetEncoder(name)
	if e == nil {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownEncoder, name, RegisteredEncoders())
	}

	return e, nil
}

// RegisteredEncoders returns the sorted names of all registered encoders.
func RegisteredEncoders() []string {
	encodersMu.RLock()
	defer encodersMu.RUnlock()

	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Built-in encoder names.
const (
	EncoderJSON       = "json"
	EncoderJSONPretty = "json-pretty"
	EncoderYAML       = "yaml"
	EncoderText       = "text"
)

func init() {
	RegisterEncoder(EncoderJSON, EncoderFunc(func(w io.Writer, q Query) error {
		data, err := EncodeJSON(q)
		if err != nil {
			return err
		}

		_, err = w.Write(data)

		return err
	}))

	RegisterEncoder(EncoderJSONPretty, EncoderFunc(func(w io.Writer, q Query) error {
		t, err := toTagged(q, "$")
		if err != nil {
			return err
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(t)
	}))

	RegisterEncoder(EncoderYAML, EncoderFunc(func(w io.Writer, q Query) error {
		data, err := EncodeYAML(q)
		if err != nil {
			return err
		}

		_, err = w.Write(data)

		return err
	}))

	RegisterEncoder(EncoderText, EncoderFunc(func(w io.Writer, q Query) error {
		if !complete(q) {
			return fmt.Errorf("%w: query has a missing sub-query", ErrInvalidEncoding)
		}

		_, err := io.WriteString(w, Format(q)+"\n")

		return err
	}))
}
