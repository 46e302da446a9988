package tracker

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// BusyClass is the class set on a trigger element while its request is pending.
const BusyClass = "ajaxing"

// Marker toggles the busy marking on a trigger element (or the descendants
// of it matching subScope when subScope is not empty).
type Marker interface {
	MarkBusy(trigger *html.Node, subScope string, busy bool)
}

// PendingRequest is an in-flight operation keyed by its logical name.
type PendingRequest struct {
	Key       string
	Trigger   *html.Node
	SubScope  string
	StartedAt time.Time
}

// Tracker deduplicates in-flight requests by key. At most one request per
// key is pending at any time.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]*PendingRequest
	marker  Marker
	log     *slog.Logger
}

func New(marker Marker, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		pending: make(map[string]*PendingRequest),
		marker:  marker,
		log:     log,
	}
}

// Start records a pending request for key and marks its trigger busy. It
// returns false without side effects when key is already pending.
func (t *Tracker) Start(key string, trigger *html.Node, subScope string) bool {
	t.mu.Lock()
	if _, ok := t.pending[key]; ok {
		t.mu.Unlock()
		t.log.Debug("skipping request, already in progress", "key", key)
		return false
	}
	t.pending[key] = &PendingRequest{
		Key:       key,
		Trigger:   trigger,
		SubScope:  subScope,
		StartedAt: time.Now(),
	}
	t.mu.Unlock()

	if trigger != nil && t.marker != nil {
		t.marker.MarkBusy(trigger, subScope, true)
	}
	return true
}

// Ajaxing reports whether a request for key is in progress.
func (t *Tracker) Ajaxing(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[key]
	return ok
}

// Complete releases key and clears its busy marking. Completing a key that
// is not pending is a no-op.
func (t *Tracker) Complete(key string) {
	t.mu.Lock()
	req, ok := t.pending[key]
	delete(t.pending, key)
	t.mu.Unlock()

	if ok && req.Trigger != nil && t.marker != nil {
		t.marker.MarkBusy(req.Trigger, req.SubScope, false)
	}
}

// Pending returns a copy of the in-flight requests ordered by key.
func (t *Tracker) Pending() []PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PendingRequest, 0, len(t.pending))
	for _, req := range t.pending {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
