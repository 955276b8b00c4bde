// Package fetch bounds and deduplicates background work against the music
// server. The scheduler is pure bookkeeping: it decides which requests may
// run, and the caller performs the I/O and reports completions back. It is
// only ever touched from the coordinator's update loop, so it needs no
// locking.
package fetch

// Kind classifies a background fetch.
type Kind int

const (
	KindChildren Kind = iota
	KindArt
	KindLyrics
)

func (k Kind) String() string {
	switch k {
	case KindChildren:
		return "children"
	case KindArt:
		return "art"
	case KindLyrics:
		return "lyrics"
	}
	return "unknown"
}

// Request identifies one unit of background work. Two requests are the same
// work when both fields match.
type Request struct {
	TargetID string
	Kind     Kind
}

// Status is the scheduler's answer to Submit.
type Status int

const (
	// Dispatch: the request was admitted and the caller should start it now.
	Dispatch Status = iota
	// Enqueued: admitted but over the concurrency cap; it will be returned
	// from a later Complete call when capacity frees up.
	Enqueued
	// AlreadyPending: an identical request is outstanding or queued; the
	// caller must not start another.
	AlreadyPending
)

const defaultLimit = 4

// Scheduler tracks outstanding and queued requests under a concurrency cap.
type Scheduler struct {
	limit       int
	outstanding map[Request]struct{}
	queue       []Request
}

func NewScheduler(limit int) *Scheduler {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Scheduler{
		limit:       limit,
		outstanding: make(map[Request]struct{}),
	}
}

// Submit registers a request. Duplicates of anything outstanding or queued
// are rejected with AlreadyPending rather than double-dispatched.
func (s *Scheduler) Submit(req Request) Status {
	if _, ok := s.outstanding[req]; ok {
		return AlreadyPending
	}
	for _, q := range s.queue {
		if q == req {
			return AlreadyPending
		}
	}
	if len(s.outstanding) < s.limit {
		s.outstanding[req] = struct{}{}
		return Dispatch
	}
	s.queue = append(s.queue, req)
	return Enqueued
}

// Complete removes a finished request and promotes queued requests into the
// freed capacity, in submission order. The returned requests are now
// outstanding and the caller must start them. Completing a request the
// scheduler does not know about promotes nothing.
func (s *Scheduler) Complete(req Request) []Request {
	if _, ok := s.outstanding[req]; !ok {
		return nil
	}
	delete(s.outstanding, req)

	var promoted []Request
	for len(s.queue) > 0 && len(s.outstanding) < s.limit {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.outstanding[next] = struct{}{}
		promoted = append(promoted, next)
	}
	return promoted
}

// Pending reports whether the request is outstanding or queued.
func (s *Scheduler) Pending(req Request) bool {
	if _, ok := s.outstanding[req]; ok {
		return true
	}
	for _, q := range s.queue {
		if q == req {
			return true
		}
	}
	return false
}

// Outstanding returns the number of requests currently running.
func (s *Scheduler) Outstanding() int { return len(s.outstanding) }

// Queued returns the number of requests waiting for capacity.
func (s *Scheduler) Queued() int { return len(s.queue) }
