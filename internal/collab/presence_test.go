package collab_test

import (
	"testing"

	"github.com/flowgrid/flowgrid/internal/collab"
)

func TestPresenceKeyedByClient(t *testing.T) {
	pm := collab.NewPresenceManager()
	pm.Update("c1", &collab.PresencePayload{UserID: "u1", DisplayName: "One"})
	pm.Update("c2", &collab.PresencePayload{UserID: "u1", DisplayName: "One"})

	// The same user in two tabs shows two cursors.
	all := pm.GetAll()
	if len(all) != 2 {
		t.Fatalf("presences = %d, want one per client", len(all))
	}

	pm.Remove("c1")
	all = pm.GetAll()
	if len(all) != 1 || all["c2"] == nil {
		t.Errorf("after remove = %v, want only c2", all)
	}
}

func TestPresenceDraggingNode(t *testing.T) {
	pm := collab.NewPresenceManager()
	pm.Update("c1", &collab.PresencePayload{UserID: "u1"})

	pm.SetDraggingNode("c1", "a")
	if got := pm.GetAll()["c1"].DraggingNode; got != "a" {
		t.Errorf("draggingNode = %q, want a", got)
	}

	pm.SetDraggingNode("c1", "")
	if got := pm.GetAll()["c1"].DraggingNode; got != "" {
		t.Errorf("draggingNode = %q, want cleared", got)
	}

	// A client without presence yet is skipped.
	pm.SetDraggingNode("ghost", "a")
	if pm.GetAll()["ghost"] != nil {
		t.Error("ghost client gained a presence entry")
	}
}
