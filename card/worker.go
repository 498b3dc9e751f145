package card

// Worker runs the single-threaded GPG worker loop (spec §4.12, §5): wait
// for a command, dispatch it, signal completion. Request/Done stand in for
// the pair of event flags in the original firmware — the transport fiber
// writes to Request only while the worker is parked on the wait-event
// below, and the worker never touches Request again once it starts
// dispatching, matching the spec's exclusive-ownership handoff.
type Worker struct {
	Session *Session

	Request chan []byte
	Done    chan WorkerResult
}

// WorkerResult is what the worker signals back to the transport side after
// running the dispatcher once.
type WorkerResult struct {
	Response []byte
	Err      error
}

// NewWorker returns a Worker bound to session, with unbuffered request/done
// channels — a command is handed off and its result collected synchronously,
// matching the spec's "a handler runs to completion before the next command
// is accepted" ordering guarantee.
func NewWorker(session *Session) *Worker {
	return &Worker{
		Session: session,
		Request: make(chan []byte),
		Done:    make(chan WorkerResult),
	}
}

// Run blocks, servicing one command per iteration of Request, until stop is
// closed. There is no cancellation of an in-flight command and no
// per-command timeout (spec §5): a call to Dispatch runs to completion
// before the loop waits again.
func (w *Worker) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case raw := <-w.Request:
			resp, err := Dispatch(w.Session, raw)
			w.Done <- WorkerResult{Response: resp, Err: err}
		}
	}
}

// Submit hands one command APDU to the worker and blocks for its response,
// the synchronous request/response shape the transport side actually needs
// (it always waits for Done before sending the next command).
func (w *Worker) Submit(raw []byte) ([]byte, error) {
	w.Request <- raw
	result := <-w.Done
	return result.Response, result.Err
}

// DispatchSync runs the dispatcher directly against session without going
// through a Worker's channels, for callers that don't need the worker's
// transport-handoff modeling and just want one command's response. It is
// the same call as Dispatch.
func DispatchSync(session *Session, raw []byte) ([]byte, error) {
	return Dispatch(session, raw)
}
