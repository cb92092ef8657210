package git

import (
	"testing"
	"time"
)

// stubDiffer answers each mode with a payload tagged by the mode string, so
// tests can check request/response correlation. An optional delay simulates
// a slow repository.
type stubDiffer struct {
	delay time.Duration
}

func (s *stubDiffer) Diff(mode DiffMode) *DiffResult {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return &DiffResult{
		Mode:  mode,
		Files: []FileDiff{{Path: mode.String() + ".go", Change: ChangeModified}},
	}
}

func TestWorkerDeliversInOrder(t *testing.T) {
	w := NewWorker(&stubDiffer{})
	defer w.Close()

	modes := []DiffMode{
		{Kind: ModeUnstaged},
		{Kind: ModeStaged},
		{Kind: ModeBranch, Base: "main"},
	}
	for i, m := range modes {
		w.Request(DiffRequest{Seq: uint64(i + 1), Mode: m})
	}

	for i, m := range modes {
		resp := <-w.Responses()
		if resp.Seq != uint64(i+1) {
			t.Errorf("response %d: expected seq %d, got %d", i, i+1, resp.Seq)
		}
		if resp.Mode != m {
			t.Errorf("response %d: mode mismatch: %+v", i, resp.Mode)
		}
		if resp.Result == nil || len(resp.Result.Files) != 1 {
			t.Fatalf("response %d: missing payload", i)
		}
		if want := m.String() + ".go"; resp.Result.Files[0].Path != want {
			t.Errorf("response %d: payload for wrong mode: %s", i, resp.Result.Files[0].Path)
		}
	}
}

func TestWorkerSupersededResponsesStillDelivered(t *testing.T) {
	// A slow differ guarantees the second request queues behind the first.
	w := NewWorker(&stubDiffer{delay: 20 * time.Millisecond})
	defer w.Close()

	w.Request(DiffRequest{Seq: 1, Mode: DiffMode{Kind: ModeUnstaged}})
	w.Request(DiffRequest{Seq: 2, Mode: DiffMode{Kind: ModeStaged}})

	first := <-w.Responses()
	second := <-w.Responses()
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("responses out of order: %d then %d", first.Seq, second.Seq)
	}
}

func TestWorkerCloseDrains(t *testing.T) {
	w := NewWorker(&stubDiffer{delay: 5 * time.Millisecond})

	for i := 1; i <= 4; i++ {
		w.Request(DiffRequest{Seq: uint64(i), Mode: DiffMode{Kind: ModeUnstaged}})
	}
	w.Close()

	// Close consumes the pending responses; the channel is closed and empty.
	select {
	case resp, ok := <-w.Responses():
		if ok {
			t.Errorf("response %d survived Close", resp.Seq)
		}
	default:
		t.Error("response channel not closed after Close")
	}
}

func TestWorkerCloseWithFullResponseBuffer(t *testing.T) {
	// More undelivered responses than the buffer holds, and no consumer.
	// Close must still finish: it drains what the loop produces instead of
	// waiting for a reader that will never come.
	w := NewWorker(&stubDiffer{delay: time.Millisecond})

	for i := 1; i <= 20; i++ {
		w.Request(DiffRequest{Seq: uint64(i), Mode: DiffMode{Kind: ModeUnstaged}})
	}

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked with a full response buffer")
	}
}
