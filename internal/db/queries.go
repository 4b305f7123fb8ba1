package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Role of a diagram member.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Diagram struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	DiagramID   string
	UserID      string
	Role        string
	DisplayName string
	Email       string
}

type Snapshot struct {
	ID        string
	DiagramID string
	Version   int32
	Document  json.RawMessage
	CreatedAt time.Time
}

// Queries bundles the hand-written SQL the services run.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

func (q *Queries) CreateUser(ctx context.Context, id, email, password, displayName string) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password, display_name, created_at`,
		id, email, password, displayName,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) CreateDiagram(ctx context.Context, id, name, ownerID string) (Diagram, error) {
	var d Diagram
	err := q.pool.QueryRow(ctx,
		`INSERT INTO diagrams (id, name, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, owner_id, created_at, updated_at`,
		id, name, ownerID,
	).Scan(&d.ID, &d.Name, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (q *Queries) GetDiagram(ctx context.Context, id string) (Diagram, error) {
	var d Diagram
	err := q.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM diagrams WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (q *Queries) ListDiagramsForUser(ctx context.Context, userID string) ([]Diagram, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT d.id, d.name, d.owner_id, d.created_at, d.updated_at
		 FROM diagrams d
		 JOIN diagram_members m ON m.diagram_id = d.id
		 WHERE m.user_id = $1
		 ORDER BY d.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diagrams []Diagram
	for rows.Next() {
		var d Diagram
		if err := rows.Scan(&d.ID, &d.Name, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		diagrams = append(diagrams, d)
	}
	return diagrams, rows.Err()
}

func (q *Queries) DeleteDiagram(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM diagrams WHERE id = $1`, id)
	return err
}

func (q *Queries) AddMember(ctx context.Context, diagramID, userID, role string) error {
	_, err := q.pool.Exec(ctx,
		`INSERT INTO diagram_members (diagram_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (diagram_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		diagramID, userID, role,
	)
	return err
}

func (q *Queries) GetMember(ctx context.Context, diagramID, userID string) (Member, error) {
	var m Member
	err := q.pool.QueryRow(ctx,
		`SELECT m.diagram_id, m.user_id, m.role, u.display_name, u.email
		 FROM diagram_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.diagram_id = $1 AND m.user_id = $2`,
		diagramID, userID,
	).Scan(&m.DiagramID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
	return m, err
}

func (q *Queries) ListMembers(ctx context.Context, diagramID string) ([]Member, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT m.diagram_id, m.user_id, m.role, u.display_name, u.email
		 FROM diagram_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.diagram_id = $1
		 ORDER BY u.display_name`,
		diagramID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.DiagramID, &m.UserID, &m.Role, &m.DisplayName, &m.Email); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (q *Queries) RemoveMember(ctx context.Context, diagramID, userID string) error {
	_, err := q.pool.Exec(ctx,
		`DELETE FROM diagram_members WHERE diagram_id = $1 AND user_id = $2`,
		diagramID, userID,
	)
	return err
}

func (q *Queries) CreateSnapshot(ctx context.Context, id, diagramID string, version int32, document json.RawMessage) (Snapshot, error) {
	var s Snapshot
	err := q.pool.QueryRow(ctx,
		`INSERT INTO snapshots (id, diagram_id, version, document)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, diagram_id, version, document, created_at`,
		id, diagramID, version, document,
	).Scan(&s.ID, &s.DiagramID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, diagramID string) (Snapshot, error) {
	var s Snapshot
	err := q.pool.QueryRow(ctx,
		`SELECT id, diagram_id, version, document, created_at
		 FROM snapshots
		 WHERE diagram_id = $1
		 ORDER BY version DESC
		 LIMIT 1`,
		diagramID,
	).Scan(&s.ID, &s.DiagramID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}
