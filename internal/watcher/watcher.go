package watcher

// Watcher reports changes to a single file.
type Watcher interface {
	// Changes yields one value per burst of writes, creates, renames or
	// removals of the watched file. It is closed when the watcher stops.
	Changes() <-chan struct{}
	Close() error
}
