package collab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flowgrid/flowgrid/internal/drag"
	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
	"github.com/flowgrid/flowgrid/internal/store"
)

// A gesture callback broadcasts while the session lock is held, so
// removing a disconnecting client must never wait on the session lock
// while it still holds the hub lock.
func TestRemoveClientDuringInFlightDragCallback(t *testing.T) {
	h := NewHub(nil, store.DefaultSettings())
	client := NewClient(h, nil, "u1", "User One", "d1", "c1")
	h.addClient(client)

	room := h.roomFor("d1")
	room.state.Store().SetElements([]graph.NodeSpec{
		{ID: "a", Width: 50, Height: 50},
	}, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	handler := drag.HandlerFunc(func(ev drag.Event) {
		if ev.Kind != drag.KindStart {
			return
		}
		close(entered)
		<-release
		h.broadcastToRoom("d1", &Message{Type: TypeDragStart}, "")
	})

	downDone := make(chan struct{})
	go func() {
		room.state.PointerDown("c1", PointerPayload{NodeID: "a"}, drag.Options{}, handler)
		close(downDone)
	}()
	<-entered

	removeDone := make(chan struct{})
	go func() {
		h.removeClient(client)
		close(removeDone)
	}()

	// Give removeClient time to reach the detach before unblocking the
	// callback's broadcast.
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-downDone:
	case <-time.After(2 * time.Second):
		t.Fatal("pointer down still blocked after disconnect")
	}
	select {
	case <-removeDone:
	case <-time.After(2 * time.Second):
		t.Fatal("removeClient still blocked behind the drag callback")
	}
}

// The hub's run loop keeps serving registrations after a client
// disconnects with a gesture still in flight.
func TestHubServesAfterDisconnectMidDrag(t *testing.T) {
	h := NewHub(nil, store.DefaultSettings())
	go h.Run()
	defer h.Stop()

	first := NewClient(h, nil, "u1", "User One", "d1", "c1")
	h.Register(first)
	waitForMessage(t, first, TypeWelcome)

	room := h.roomFor("d1")
	room.state.Store().SetElements([]graph.NodeSpec{
		{ID: "a", Width: 50, Height: 50},
	}, nil)
	room.state.Store().SetContainerRect(geometry.Rect{Width: 1000, Height: 1000})

	down, _ := json.Marshal(PointerPayload{NodeID: "a"})
	h.handleMessage(first, &Message{Type: TypePointerDown, Payload: down})
	move, _ := json.Marshal(PointerPayload{Position: geometry.XYPosition{X: 30, Y: 0}})
	h.handleMessage(first, &Message{Type: TypePointerMove, Payload: move})

	h.unregister <- first

	second := NewClient(h, nil, "u2", "User Two", "d1", "c2")
	h.Register(second)
	waitForMessage(t, second, TypeWelcome)

	if room.state.Store().FindNode("a").Dragging {
		t.Error("node still marked dragging after its client disconnected")
	}
}

func waitForMessage(t *testing.T, c *Client, msgType string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-c.send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("decode message: %v", err)
			}
			if msg.Type == msgType {
				return
			}
		case <-deadline:
			t.Fatalf("no %s message received", msgType)
		}
	}
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	h := NewHub(nil, store.DefaultSettings())
	client := NewClient(h, nil, "u1", "User One", "d1", "c1")

	client.closeSend()
	client.Send(&Message{Type: TypeDragProgress})
	client.closeSend()
}
