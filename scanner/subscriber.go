package scanner

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                 chan struct{}
	scanStartedHandler   func(ScanStarted)
	completedHandler     func(ScanCompleted)
	failedHandler        func(ScanFailed)
	archiveFailedHandler func(ArchiveFailed)
	pollStartedHandler   func(PollingStarted)
	pollShutdownHandler  func(PollingShutdown)
}

// OnScanStarted sets the handler for ScanStarted events
func OnScanStarted(fn func(ScanStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.scanStartedHandler = fn }
}

// OnScanCompleted sets the handler for ScanCompleted events
func OnScanCompleted(fn func(ScanCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.completedHandler = fn }
}

// OnScanFailed sets the handler for ScanFailed events
func OnScanFailed(fn func(ScanFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.failedHandler = fn }
}

// OnArchiveFailed sets the handler for ArchiveFailed events
func OnArchiveFailed(fn func(ArchiveFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.archiveFailedHandler = fn }
}

// OnPollingStarted sets the handler for PollingStarted events
func OnPollingStarted(fn func(PollingStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollStartedHandler = fn }
}

// OnPollingShutdown sets the handler for PollingShutdown events
func OnPollingShutdown(fn func(PollingShutdown)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollShutdownHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := scanner.NewSubscriber(events,
//	  scanner.OnScanCompleted(func(e scanner.ScanCompleted) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                 make(chan struct{}),
		scanStartedHandler:   func(ScanStarted) {},     // nop by default
		completedHandler:     func(ScanCompleted) {},   // nop by default
		failedHandler:        func(ScanFailed) {},      // nop by default
		archiveFailedHandler: func(ArchiveFailed) {},   // nop by default
		pollStartedHandler:   func(PollingStarted) {},  // nop by default
		pollShutdownHandler:  func(PollingShutdown) {}, // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case ScanStarted:
				s.scanStartedHandler(e)
			case ScanCompleted:
				s.completedHandler(e)
			case ScanFailed:
				s.failedHandler(e)
			case ArchiveFailed:
				s.archiveFailedHandler(e)
			case PollingStarted:
				s.pollStartedHandler(e)
			case PollingShutdown:
				s.pollShutdownHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
