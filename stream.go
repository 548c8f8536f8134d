package glossia

import "context"

// Increment is one in-order piece of a streaming translation. Increments
// for chunk i+1 never arrive before the last increment for chunk i, even
// when chunks are translated concurrently.
type Increment struct {
	Chunk int    // Index of the source chunk this piece belongs to
	Text  string // Translated text fragment, empty on a failure marker
	Err   error  // Non-nil marks the chunk as failed at this position
}

// TerminationReason classifies how a translation stream ended.
type TerminationReason string

const (
	// TerminationDone means every chunk was translated.
	TerminationDone TerminationReason = "done"
	// TerminationCanceled means the caller's context was canceled before
	// completion. Output already delivered remains valid.
	TerminationCanceled TerminationReason = "canceled"
	// TerminationFailed means at least one chunk exhausted its retry
	// budget. Output for surviving chunks was still delivered.
	TerminationFailed TerminationReason = "failed"
)

// Termination is the terminal marker of a Stream. It is distinct from
// both ordinary increments and transport errors so consumers can always
// tell a completed translation from an interrupted one.
type Termination struct {
	Reason      TerminationReason
	FailedChunk int   // First unrecoverable chunk, meaningful for TerminationFailed
	Err         error // Underlying cause for failed or canceled terminations
}

// Stream delivers translation increments in chunk order. Consumers range
// over Increments until it is closed, then call Termination to learn how
// the stream ended:
//
//	for inc := range st.Increments() {
//	    if inc.Err != nil {
//	        // chunk inc.Chunk failed, later chunks may still arrive
//	        continue
//	    }
//	    fmt.Print(inc.Text)
//	}
//	term := st.Termination()
type Stream struct {
	incs   chan Increment
	term   Termination
	done   chan struct{}
	source Language
}

func newStream(buffer int) *Stream {
	return &Stream{
		incs: make(chan Increment, buffer),
		done: make(chan struct{}),
	}
}

// Increments returns the in-order increment channel. It is closed after
// the final increment.
func (s *Stream) Increments() <-chan Increment {
	return s.incs
}

// Source reports the resolved source language, which may come from
// detection when the request asked for auto.
func (s *Stream) Source() Language {
	return s.source
}

// Termination reports how the stream ended. It blocks until the stream
// has finished, so it is safe to call once Increments is closed.
func (s *Stream) Termination() Termination {
	<-s.done
	return s.term
}

// emit delivers one increment, giving up when ctx is canceled. Reports
// whether the increment was delivered.
func (s *Stream) emit(ctx context.Context, inc Increment) bool {
	select {
	case s.incs <- inc:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish records the termination and closes the stream. Must be called
// exactly once, after the last emit.
func (s *Stream) finish(term Termination) {
	s.term = term
	close(s.incs)
	close(s.done)
}
