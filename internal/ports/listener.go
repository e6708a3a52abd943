package ports

// Listener is a network front end that is started and stopped with the process
type Listener interface {
	// Name identifies the listener in logs
	Name() string

	// Start starts serving in the background
	Start() error

	// Stop stops serving
	Stop() error
}
