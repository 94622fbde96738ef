package api

import "fmt"

// NetworkError indicates a transport or connectivity failure: the request
// never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError indicates the service responded with a non-success status.
// Detail carries the server-supplied message when the body had one.
type RemoteError struct {
	Op     string
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: remote error: status %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: remote error: status %d", e.Op, e.Status)
}

// ParseError indicates a response or frame could not be decoded against the
// expected schema.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
