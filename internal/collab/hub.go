package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/flowgrid/flowgrid/internal/drag"
	"github.com/flowgrid/flowgrid/internal/store"
)

// saveInterval paces the periodic flush of dirty rooms.
const saveInterval = 15 * time.Second

// SnapshotStore loads and persists diagram documents. An error from Load
// with no prior document should be reported as pgx.ErrNoRows by the
// implementation; the hub then starts the room empty.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, diagramID string) (json.RawMessage, error)
	SaveSnapshot(ctx context.Context, diagramID string, doc json.RawMessage) error
}

type Room struct {
	diagramID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	state     *RoomState
}

func NewRoom(diagramID string, st *store.Store) *Room {
	return &Room{
		diagramID: diagramID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		state:     NewRoomState(st),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // diagramID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopped    chan struct{}

	snapshots SnapshotStore
	defaults  store.Settings
}

// NewHub creates a hub whose rooms load from and save to snapshots.
// A nil SnapshotStore keeps all rooms in memory only.
func NewHub(snapshots SnapshotStore, defaults store.Settings) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		snapshots:  snapshots,
		defaults:   defaults,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.flushDirtyRooms()
		case <-h.done:
			h.flushDirtyRooms()
			return
		}
	}
}

// Stop shuts the hub down after a final flush of unsaved rooms.
func (h *Hub) Stop() {
	close(h.done)
	<-h.stopped
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DiagramID]
	if !ok {
		room = NewRoom(client.DiagramID, h.loadStore(client.DiagramID))
		h.rooms[client.DiagramID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(&Message{
		Type:      TypeWelcome,
		DiagramID: client.DiagramID,
		ClientID:  client.ClientID,
	})

	h.sendDocSync(room, client)

	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.DiagramID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "diagram", client.DiagramID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DiagramID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.DiagramID)
	}
	h.mu.Unlock()

	// Detach only after releasing h.mu: an in-flight drag callback holds
	// the session lock while it broadcasts, and broadcasting takes h.mu.
	room.state.DetachClient(client.ClientID)

	if empty {
		h.saveRoom(room)
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		UserID:   client.UserID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.DiagramID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "diagram", client.DiagramID)
}

// Export returns the current document of a live room, or false when no
// room is open for the diagram.
func (h *Hub) Export(diagramID string) (store.Snapshot, bool) {
	h.mu.RLock()
	room, ok := h.rooms[diagramID]
	h.mu.RUnlock()
	if !ok {
		return store.Snapshot{}, false
	}
	snap, err := room.state.Store().Export()
	if err != nil {
		slog.Error("export room", "diagram", diagramID, "error", err)
		return store.Snapshot{}, false
	}
	return snap, true
}

func (h *Hub) loadStore(diagramID string) *store.Store {
	st := store.New(h.defaults)
	if h.snapshots == nil {
		return st
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := h.snapshots.LoadSnapshot(ctx, diagramID)
	if err != nil {
		slog.Warn("load snapshot", "diagram", diagramID, "error", err)
		return st
	}

	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		slog.Error("decode snapshot", "diagram", diagramID, "error", err)
		return st
	}
	if err := st.Import(snap); err != nil {
		slog.Error("import snapshot", "diagram", diagramID, "error", err)
	}
	return st
}

func (h *Hub) saveRoom(room *Room) {
	if h.snapshots == nil || !room.state.Dirty() {
		return
	}

	snap, err := room.state.Store().Export()
	if err != nil {
		slog.Error("export room", "diagram", room.diagramID, "error", err)
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		slog.Error("encode snapshot", "diagram", room.diagramID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.snapshots.SaveSnapshot(ctx, room.diagramID, raw); err != nil {
		slog.Error("save snapshot", "diagram", room.diagramID, "error", err)
		return
	}
	room.state.MarkSaved()
	slog.Debug("room saved", "diagram", room.diagramID, "serverSeq", room.state.ServerSeq())
}

func (h *Hub) flushDirtyRooms() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) sendDocSync(room *Room, client *Client) {
	snap, err := room.state.Store().Export()
	if err != nil {
		slog.Error("export room", "diagram", room.diagramID, "error", err)
		return
	}
	doc, err := json.Marshal(snap)
	if err != nil {
		slog.Error("encode document", "diagram", room.diagramID, "error", err)
		return
	}
	payload, _ := json.Marshal(DocSyncPayload{
		Document:  doc,
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{
		Type:      TypeDocSync,
		DiagramID: room.diagramID,
		Payload:   payload,
	})
}

func (h *Hub) roomFor(diagramID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[diagramID]
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOperationSubmit(sender, msg)
	case TypePointerDown, TypePointerMove, TypePointerUp:
		h.handlePointer(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.UserID = sender.UserID
	presence.DisplayName = sender.DisplayName

	room := h.roomFor(sender.DiagramID)
	if room == nil {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		UserID:   sender.UserID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.DiagramID, outMsg, sender.ClientID)
}

func (h *Hub) handleOperationSubmit(sender *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid operation payload", "error", err, "user", sender.UserID)
		return
	}

	room := h.roomFor(sender.DiagramID)
	if room == nil {
		return
	}

	serverSeq, err := room.state.ApplyOperation(payload.Operation)
	if err != nil {
		slog.Warn("operation rejected", "type", payload.Operation.Type, "user", sender.UserID, "error", err)
		nackPayload, _ := json.Marshal(OperationNackPayload{
			OperationID: payload.Operation.ID,
			Reason:      err.Error(),
		})
		sender.Send(&Message{Type: TypeOpNack, Payload: nackPayload})
		return
	}

	ackPayload, _ := json.Marshal(OperationAckPayload{
		OperationID:     payload.Operation.ID,
		ServerSeq:       serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: serverSeq, Payload: ackPayload})

	broadcastPayload, _ := json.Marshal(OperationBroadcastPayload{
		Operation: payload.Operation,
		UserID:    sender.UserID,
		ServerSeq: serverSeq,
	})
	h.broadcastToRoom(sender.DiagramID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Seq:     serverSeq,
		Payload: broadcastPayload,
	}, sender.ClientID)
}

func (h *Hub) handlePointer(sender *Client, msg *Message) {
	var payload PointerPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid pointer payload", "error", err, "user", sender.UserID)
		return
	}

	room := h.roomFor(sender.DiagramID)
	if room == nil {
		return
	}

	switch msg.Type {
	case TypePointerDown:
		settings := room.state.Store().Settings()
		opts := drag.Options{
			Threshold:         settings.DragThreshold,
			SnapToGrid:        settings.SnapToGrid,
			SnapGrid:          settings.SnapGrid,
			SelectNodesOnDrag: settings.SelectNodesOnDrag,
			AutoPan: drag.AutoPanOptions{
				Enabled: true,
				Margin:  settings.AutoPanMargin,
				Speed:   settings.AutoPanSpeed,
			},
		}
		diagramID := sender.DiagramID
		clientID := sender.ClientID
		handler := drag.HandlerFunc(func(ev drag.Event) {
			switch ev.Kind {
			case drag.KindStart:
				if ev.Node != nil {
					room.presence.SetDraggingNode(clientID, ev.Node.ID)
				}
			case drag.KindStop, drag.KindClick:
				room.presence.SetDraggingNode(clientID, "")
			}
			h.broadcastDragEvent(diagramID, ev)
		})
		room.state.PointerDown(sender.ClientID, payload, opts, handler)
	case TypePointerMove:
		room.state.PointerMove(sender.ClientID, payload)
	case TypePointerUp:
		room.state.PointerUp(sender.ClientID, payload)
	}
}

// broadcastDragEvent fans a drag lifecycle event out to every client in
// the room, the dragging client included; the server is authoritative
// for positions during a drag.
func (h *Hub) broadcastDragEvent(diagramID string, ev drag.Event) {
	msgType := ""
	switch ev.Kind {
	case drag.KindStart:
		msgType = TypeDragStart
	case drag.KindProgress:
		msgType = TypeDragProgress
	case drag.KindStop:
		msgType = TypeDragStop
	case drag.KindClick:
		msgType = TypeNodeClick
	default:
		return
	}

	dragPayload := DragPayload{}
	if ev.Node != nil {
		dragPayload.NodeID = ev.Node.ID
	}
	for _, n := range ev.Nodes {
		dragPayload.Nodes = append(dragPayload.Nodes, NodePosition{
			NodeID:   n.ID,
			Position: n.Position,
			Absolute: n.PositionAbsolute,
		})
	}

	payload, _ := json.Marshal(dragPayload)
	h.broadcastToRoom(diagramID, &Message{
		Type:      msgType,
		DiagramID: diagramID,
		Payload:   payload,
	}, "")
}

func (h *Hub) broadcastToRoom(diagramID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[diagramID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
