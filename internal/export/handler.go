// Package export serves diagram documents as downloadable JSON. A live
// room takes precedence over the persisted snapshot so an export taken
// mid-session reflects the state collaborators currently see.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowgrid/flowgrid/internal/auth"
	"github.com/flowgrid/flowgrid/internal/collab"
	"github.com/flowgrid/flowgrid/internal/diagram"
)

type Handler struct {
	hub      *collab.Hub
	diagrams *diagram.Service
}

func NewHandler(hub *collab.Hub, diagrams *diagram.Service) *Handler {
	return &Handler{hub: hub, diagrams: diagrams}
}

// ExportJSON writes the diagram's element list and viewport as a JSON
// attachment.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	diagramID := mux.Vars(r)["diagramId"]
	userID := auth.UserIDFromContext(r.Context())

	// Membership gate before touching any document state.
	if _, err := h.diagrams.Get(r.Context(), diagramID, userID); err != nil {
		switch {
		case errors.Is(err, diagram.ErrNotFound):
			http.Error(w, "diagram not found", http.StatusNotFound)
		case errors.Is(err, diagram.ErrForbidden), errors.Is(err, diagram.ErrNotMember):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("export access check", "diagram", diagramID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	doc, err := h.document(r, diagramID, userID)
	if err != nil {
		if errors.Is(err, diagram.ErrNotFound) {
			http.Error(w, "no document for diagram", http.StatusNotFound)
			return
		}
		slog.Error("export document", "diagram", diagramID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", diagramID+".json"))
	w.Write(doc)
}

func (h *Handler) document(r *http.Request, diagramID, userID string) (json.RawMessage, error) {
	if snap, ok := h.hub.Export(diagramID); ok {
		return json.Marshal(snap)
	}
	return h.diagrams.GetLatestSnapshot(r.Context(), diagramID, userID)
}
