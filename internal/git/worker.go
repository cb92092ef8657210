package git

// Differ is the single operation the worker needs from a Reader. Diff must
// absorb all failures into an empty result (see Reader.Diff), which is why
// the worker loop has no error branch that exits.
type Differ interface {
	Diff(mode DiffMode) *DiffResult
}

// DiffRequest asks the worker to run one comparison. Seq is assigned by the
// consumer and echoed back on the response so stale responses can be
// discarded after the user has already moved on to another mode.
type DiffRequest struct {
	Seq  uint64
	Mode DiffMode
}

// DiffResponse carries the payload for exactly one request.
type DiffResponse struct {
	Seq    uint64
	Mode   DiffMode
	Result *DiffResult
}

// Worker owns the repository handle on a dedicated goroutine so blocking
// git calls never stall the interactive loop. Requests are serviced strictly
// in arrival order; an in-flight request is never canceled — superseded
// responses are still delivered and the consumer drops them by Seq.
//
// A single worker also serializes all access to the repository, since git
// gives no concurrency guarantees for one working copy.
type Worker struct {
	differ    Differ
	requests  chan DiffRequest
	responses chan DiffResponse
	done      chan struct{}
}

// NewWorker starts the worker goroutine. The buffer lets the interactive
// loop fire several requests without blocking while a slow query runs.
func NewWorker(d Differ) *Worker {
	w := &Worker{
		differ:    d,
		requests:  make(chan DiffRequest, 16),
		responses: make(chan DiffResponse, 16),
		done:      make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.done)
	defer close(w.responses)
	for req := range w.requests {
		w.responses <- DiffResponse{
			Seq:    req.Seq,
			Mode:   req.Mode,
			Result: w.differ.Diff(req.Mode),
		}
	}
}

// Request enqueues a diff query. Blocks only if the request buffer is full
// (the worker is far behind); it never blocks on the git call itself.
// Request and Close are both invoked from the single interactive goroutine,
// so Request must not be called after Close.
func (w *Worker) Request(req DiffRequest) {
	w.requests <- req
}

// Responses returns the channel results arrive on, in request order.
// The channel is closed during Close once in-flight work has drained.
func (w *Worker) Responses() <-chan DiffResponse {
	return w.responses
}

// Close shuts the worker down. Pending requests are still serviced, but
// their responses are discarded: with no consumer left, the drain keeps the
// loop from blocking on a full response buffer.
func (w *Worker) Close() {
	close(w.requests)
	for range w.responses {
	}
	<-w.done
}
