package repository

import (
	"errors"
	"fmt"
)

// NetworkError means the API could not be reached or answered with a
// non-success status. Retrying the navigation may help.
type NetworkError struct {
	Op     string
	URL    string
	Status int // 0 when no response was received
	Msg    string
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Msg != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.Status, e.Msg)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.Status)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError means a response arrived but could not be understood: invalid
// JSON, an unknown entry shape, or blob content that is not base64.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsDecode reports whether err is a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
