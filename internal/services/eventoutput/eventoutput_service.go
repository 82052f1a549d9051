package eventoutput

import (
	"sync"

	"blackmarket-trader/internal/models"
)

// Holder keeps the response envelope of the item event currently being processed
// for each session.
type Holder struct {
	mu      sync.Mutex
	outputs map[string]*models.ItemEventResponse
}

func NewHolder() *Holder {
	return &Holder{outputs: make(map[string]*models.ItemEventResponse)}
}

// Reset starts a fresh envelope for the session and returns it.
func (h *Holder) Reset(sessionID string) *models.ItemEventResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := models.NewItemEventResponse()
	h.outputs[sessionID] = out
	return out
}

// Output returns the session's envelope, starting one if none exists.
func (h *Holder) Output(sessionID string) *models.ItemEventResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.outputs[sessionID]
	if !ok {
		out = models.NewItemEventResponse()
		h.outputs[sessionID] = out
	}
	return out
}

// Release drops the session's envelope once the response has been written.
func (h *Holder) Release(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.outputs, sessionID)
}
