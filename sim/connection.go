package sim

// SendError marks a failed send or receive.
type SendError struct{}

// NewSendError creates a SendError.
func NewSendError() *SendError {
	return new(SendError)
}

// A Connection is responsible for delivering messages to their destination.
type Connection interface {
	Named
	Hookable

	PlugIn(port Port)
	Unplug(port Port)

	// NotifyAvailable is called by a port to notify the connection that it
	// can deliver to the port again.
	NotifyAvailable(port Port)

	// NotifySend is called by a port to notify the connection that there is
	// a message to deliver.
	NotifySend()
}
