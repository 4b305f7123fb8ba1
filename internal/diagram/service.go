package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flowgrid/flowgrid/internal/db"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/typeid"
)

var (
	ErrNotFound  = errors.New("diagram not found")
	ErrForbidden = errors.New("forbidden")
	ErrNotMember = errors.New("not a diagram member")
)

type Service struct {
	queries *db.Queries
}

func NewService(queries *db.Queries) *Service {
	return &Service{queries: queries}
}

type Diagram struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Diagram, error) {
	diagramID := typeid.NewDiagramID()

	dbDiagram, err := s.queries.CreateDiagram(ctx, diagramID, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create diagram: %w", err)
	}

	if err := s.queries.AddMember(ctx, diagramID, ownerID, db.RoleOwner); err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	// Seed an empty document snapshot so the first websocket client has
	// something to load.
	empty := store.Snapshot{
		Elements: []json.RawMessage{},
		Position: [2]float64{0, 0},
		Zoom:     1,
	}
	docJSON, err := json.Marshal(empty)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}
	if _, err := s.queries.CreateSnapshot(ctx, typeid.NewSnapshotID(), diagramID, 1, docJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbDiagramToDiagram(dbDiagram), nil
}

func (s *Service) Get(ctx context.Context, diagramID, userID string) (*Diagram, error) {
	if err := s.checkMembership(ctx, diagramID, userID); err != nil {
		return nil, err
	}

	dbDiagram, err := s.queries.GetDiagram(ctx, diagramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get diagram: %w", err)
	}

	return dbDiagramToDiagram(dbDiagram), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Diagram, error) {
	dbDiagrams, err := s.queries.ListDiagramsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}

	diagrams := make([]Diagram, len(dbDiagrams))
	for i, d := range dbDiagrams {
		diagrams[i] = *dbDiagramToDiagram(d)
	}
	return diagrams, nil
}

func (s *Service) Delete(ctx context.Context, diagramID, userID string) error {
	dbDiagram, err := s.queries.GetDiagram(ctx, diagramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get diagram: %w", err)
	}

	if dbDiagram.OwnerID != userID {
		return ErrForbidden
	}

	return s.queries.DeleteDiagram(ctx, diagramID)
}

func (s *Service) InviteByEmail(ctx context.Context, diagramID, ownerID, inviteeEmail string) error {
	dbDiagram, err := s.queries.GetDiagram(ctx, diagramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get diagram: %w", err)
	}

	if dbDiagram.OwnerID != ownerID {
		return ErrForbidden
	}

	invitee, err := s.queries.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("user not found")
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.queries.AddMember(ctx, diagramID, invitee.ID, db.RoleEditor)
}

func (s *Service) ListMembers(ctx context.Context, diagramID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, diagramID, userID); err != nil {
		return nil, err
	}

	dbMembers, err := s.queries.ListMembers(ctx, diagramID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        m.Role,
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, diagramID, ownerID, targetUserID string) error {
	dbDiagram, err := s.queries.GetDiagram(ctx, diagramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get diagram: %w", err)
	}

	if dbDiagram.OwnerID != ownerID {
		return ErrForbidden
	}
	if targetUserID == ownerID {
		return errors.New("cannot remove diagram owner")
	}

	return s.queries.RemoveMember(ctx, diagramID, targetUserID)
}

func (s *Service) GetLatestSnapshot(ctx context.Context, diagramID, userID string) (json.RawMessage, error) {
	if err := s.checkMembership(ctx, diagramID, userID); err != nil {
		return nil, err
	}

	snap, err := s.queries.GetLatestSnapshot(ctx, diagramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return snap.Document, nil
}

func (s *Service) checkMembership(ctx context.Context, diagramID, userID string) error {
	_, err := s.queries.GetMember(ctx, diagramID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func dbDiagramToDiagram(d db.Diagram) *Diagram {
	return &Diagram{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
