package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks the live cursors and selections in a room, one
// entry per connected client. Keying by client rather than user lets a
// user with two tabs open show two cursors, matching the per-client
// drag sessions in RoomState.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

// SetDraggingNode records which node a client's gesture is moving, or
// clears it with an empty id. No-op for clients without presence yet.
func (pm *PresenceManager) SetDraggingNode(clientID, nodeID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p, ok := pm.presences[clientID]; ok {
		p.DraggingNode = nodeID
	}
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		result[k] = v
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
