package solve

// Event is one typed transport event fed to the controller's dispatch.
// The stream callbacks are thin adapters that produce these.
type Event interface {
	isEvent()
}

// Opened signals the transport connection is established.
type Opened struct{}

// Content carries the text of one content frame.
type Content struct {
	Text string
}

// Status carries one status line, verbatim.
type Status struct {
	Line string
}

// Failure carries a transport or payload error.
type Failure struct {
	Err error
}

// Closed signals the connection ended, cleanly or not.
type Closed struct {
	Code  int
	Clean bool
}

func (Opened) isEvent()  {}
func (Content) isEvent() {}
func (Status) isEvent()  {}
func (Failure) isEvent() {}
func (Closed) isEvent()  {}
