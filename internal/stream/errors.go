package stream

import "fmt"

// ConfigurationError indicates a missing document or credential before any
// connection attempt. No connection is opened when this is returned.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("solve not configured: %s", e.Reason)
}

// PayloadReadError indicates the document bytes could not be fetched after
// the connection opened. The connection is closed abnormally.
type PayloadReadError struct {
	Name string
	Err  error
}

func (e *PayloadReadError) Error() string {
	return fmt.Sprintf("read document %q: %v", e.Name, e.Err)
}

func (e *PayloadReadError) Unwrap() error { return e.Err }

// TransportError indicates a connection-level failure (dial, reset, write).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("solver connection %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
