package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mulakhat/interview/internal/events"
	"mulakhat/interview/internal/metrics"
	"mulakhat/interview/internal/repositories"
)

// Hub maps interview IDs to live rooms. Rooms are created lazily on first use
// from the persisted interview and retired once empty. The hub lock guards
// only the map; the interview load runs outside it.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	store    repositories.InterviewStore
	messages repositories.MessageStore
	pub      *events.Publisher
	log      *zap.Logger
}

func NewHub(store repositories.InterviewStore, messages repositories.MessageStore, pub *events.Publisher, log *zap.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]*Room),
		store:    store,
		messages: messages,
		pub:      pub,
		log:      log,
	}
}

// GetOrCreate returns the live room for the interview, loading the persisted
// interview on first use. Concurrent creators converge on one instance: the
// loser of the re-check discards its freshly built room.
func (h *Hub) GetOrCreate(ctx context.Context, interviewID string) (*Room, error) {
	h.mu.RLock()
	r, ok := h.rooms[interviewID]
	h.mu.RUnlock()
	if ok {
		return r, nil
	}

	iv, err := h.store.Get(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[interviewID]; ok {
		return r, nil
	}
	r = NewRoom(iv, h.store, h.messages, h.pub, h.log)
	h.rooms[interviewID] = r
	metrics.ActiveRooms.Inc()
	h.log.Info("room created", zap.String("interview", interviewID))
	return r, nil
}

// Get returns the room only if one is already live.
func (h *Hub) Get(interviewID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[interviewID]
	return r, ok
}

// Retire drops the room if it is still empty. The room is marked retired
// under its own mutex before the map entry goes, so a client holding a stale
// handle has its Join refused and retries through GetOrCreate instead of
// joining an instance the registry no longer maps.
func (h *Hub) Retire(interviewID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[interviewID]
	if !ok {
		return
	}
	if !r.markRetired() {
		return
	}
	delete(h.rooms, interviewID)
	metrics.ActiveRooms.Dec()
	h.log.Info("room retired", zap.String("interview", interviewID))
}

// RoomCount reports the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
