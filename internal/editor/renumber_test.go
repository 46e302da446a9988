package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveOrder(t *testing.T) {
	ids := []int{0, 1, 2, 3, 4, 5}
	tests := []struct {
		name   string
		change Change
		want   []int
	}{
		{"none", NoChange{}, []int{0, 1, 2, 3, 4, 5}},
		{"up", Move{From: 5, To: 2}, []int{0, 1, 5, 2, 3, 4}},
		{"down", Move{From: 1, To: 3}, []int{0, 2, 3, 1, 4, 5}},
		{"delete", Delete{Number: 3}, []int{0, 1, 2, 4, 5}},
		{"past end", Move{From: 1, To: 7}, []int{0, 2, 3, 4, 5, placeholder, placeholder, 1}},
		{"unknown", Move{From: 9, To: 1}, []int{0, 1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MoveOrder(ids, tt.change))
		})
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, ids)
}

type bogusChange struct{}

func (bogusChange) change() {}

func TestMoveOrder_UnknownChangePanics(t *testing.T) {
	assert.Panics(t, func() { MoveOrder([]int{0}, bogusChange{}) })
}

func TestSectionTarget(t *testing.T) {
	assert.Equal(t, 2, SectionTarget(5, 2))
	assert.Equal(t, 3, SectionTarget(1, 4))
	assert.Equal(t, 0, SectionTarget(3, 0))
}

func TestNearestSibling(t *testing.T) {
	assert.Equal(t, -1, nearestSibling(nil, 3))
	assert.Equal(t, 2, nearestSibling([]int{0, 2, 7}, 3))
	assert.Equal(t, 7, nearestSibling([]int{0, 7}, 5))
	// Equidistant: the first in page order wins.
	assert.Equal(t, 2, nearestSibling([]int{0, 2, 4}, 3))
	assert.Equal(t, 4, nearestSibling([]int{4, 2}, 3))
}

type countingMover struct {
	mu          sync.Mutex
	sent        []int
	inflight    int
	maxInflight int
	failID      int
}

func (m *countingMover) Move(_ context.Context, req backend.MoveRequest) error {
	m.mu.Lock()
	m.sent = append(m.sent, req.ID)
	m.inflight++
	m.maxInflight = max(m.maxInflight, m.inflight)
	m.mu.Unlock()
	time.Sleep(2 * time.Millisecond)
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
	if req.ID == m.failID {
		return errors.New("rejected")
	}
	return nil
}

func assetBatchOf(ids ...int) Batch {
	items := make([]ItemRef, len(ids))
	for i, id := range ids {
		items[i] = asset(id)
	}
	return Batch{
		Items:   items,
		Request: func(item ItemRef) backend.MoveRequest { return backend.AssetMove(item.ID, 0, 1) },
	}
}

func newQueue(m Mover) (*MoveQueue, *tracker.Tracker) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := tracker.New(nil, log)
	return NewMoveQueue(m, tr, log), tr
}

func TestMoveQueue_Sequential(t *testing.T) {
	m := &countingMover{}
	q, tr := newQueue(m)

	var applied []int
	var lastRan bool
	b := assetBatchOf(1, 2, 3)
	b.Apply = func(i int, item ItemRef) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		assert.Len(t, m.sent, i+1)
		applied = append(applied, item.ID)
		return nil
	}
	b.Last = func(context.Context) error {
		lastRan = true
		return nil
	}

	require.NoError(t, q.Drain(context.Background(), b))
	assert.Equal(t, []int{1, 2, 3}, m.sent)
	assert.Equal(t, []int{1, 2, 3}, applied)
	assert.Equal(t, 1, m.maxInflight)
	assert.True(t, lastRan)
	assert.False(t, tr.Ajaxing(moveKey))
}

func TestMoveQueue_StopsAtFailure(t *testing.T) {
	m := &countingMover{failID: 2}
	q, tr := newQueue(m)
	lastRan := false
	b := assetBatchOf(1, 2, 3)
	b.Last = func(context.Context) error {
		lastRan = true
		return nil
	}

	err := q.Drain(context.Background(), b)
	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, 1, moveErr.Index)
	assert.Equal(t, 2, moveErr.Item.ID)
	assert.Equal(t, []int{1, 2}, m.sent)
	assert.False(t, lastRan)
	assert.False(t, tr.Ajaxing(moveKey))
}

func TestMoveQueue_OneDrainAtATime(t *testing.T) {
	q, tr := newQueue(&countingMover{})
	require.True(t, tr.Start(moveKey, nil, ""))
	assert.ErrorIs(t, q.Drain(context.Background(), assetBatchOf(1)), ErrMoveInProgress)
	tr.Complete(moveKey)
	assert.NoError(t, q.Drain(context.Background(), assetBatchOf(1)))
}
