package point

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/db"
	"github.com/desperadoss/minecraft-map-sub000/internal/session"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Publisher receives newly published points for the live map feed.
type Publisher interface {
	Broadcast(payload []byte)
}

type Service struct {
	db        db.Querier
	publisher Publisher
}

// NewService builds the point lifecycle service. The publisher is
// optional; with nil, accepted points are simply not announced.
func NewService(q db.Querier, publisher Publisher) *Service {
	return &Service{db: q, publisher: publisher}
}

const pointColumns = `id, name, description, x, z, owner_session_code, status, resource_type, created_at, updated_at`

// Create inserts a new private point owned by the caller.
func (s *Service) Create(ctx context.Context, caller string, req CreateRequest) (Point, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return Point{}, err
	}
	if err := validateDescription(req.Description); err != nil {
		return Point{}, err
	}
	if req.X == nil || req.Z == nil {
		return Point{}, fmt.Errorf("%w: x and z coordinates required", apperr.ErrValidation)
	}

	p := Point{
		ID:               uuid.NewString(),
		Name:             name,
		Description:      req.Description,
		X:                *req.X,
		Z:                *req.Z,
		OwnerSessionCode: caller,
		Status:           StatusPrivate,
		ResourceType:     normalizeResourceType(req.ResourceType),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO points (id, name, description, x, z, owner_session_code, status, resource_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.X, p.Z, p.OwnerSessionCode, p.Status, p.ResourceType)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Point{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Point, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+pointColumns+`
		FROM points WHERE id = $1
	`, id)
	var p Point
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.X, &p.Z, &p.OwnerSessionCode, &p.Status, &p.ResourceType, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Point{}, fmt.Errorf("%w: unknown point", apperr.ErrNotFound)
	}
	if err != nil {
		return Point{}, err
	}
	return p, nil
}

func (s *Service) ListPublic(ctx context.Context) ([]Point, error) {
	return s.list(ctx, `
		SELECT `+pointColumns+`
		FROM points WHERE status = 'public'
		ORDER BY created_at DESC
	`)
}

// ListPrivateFor returns the caller's own private and pending points.
func (s *Service) ListPrivateFor(ctx context.Context, caller string) ([]Point, error) {
	return s.list(ctx, `
		SELECT `+pointColumns+`
		FROM points
		WHERE status IN ('private', 'pending') AND owner_session_code = $1
		ORDER BY created_at DESC
	`, caller)
}

// ListPending returns every pending point, regardless of owner. Callers
// must be admin-guarded.
func (s *Service) ListPending(ctx context.Context) ([]Point, error) {
	return s.list(ctx, `
		SELECT `+pointColumns+`
		FROM points WHERE status = 'pending'
		ORDER BY created_at DESC
	`)
}

// Edit patches a non-public point through the normal endpoint. Public
// points are rejected here; they go through AdminEdit.
func (s *Service) Edit(ctx context.Context, id, caller string, priv session.Privilege, req EditRequest) (Point, error) {
	return s.edit(ctx, id, caller, priv, TransitionEdit, req)
}

// AdminEdit patches a point through the admin endpoint.
func (s *Service) AdminEdit(ctx context.Context, id, caller string, priv session.Privilege, req EditRequest) (Point, error) {
	return s.edit(ctx, id, caller, priv, TransitionAdminEdit, req)
}

// edit is a read-modify-write over a single row; concurrent edits are
// last-writer-wins.
func (s *Service) edit(ctx context.Context, id, caller string, priv session.Privilege, tr Transition, req EditRequest) (Point, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Point{}, err
	}
	if err := checkTransition(p, caller, priv, tr); err != nil {
		return Point{}, err
	}

	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return Point{}, err
		}
		p.Name = name
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return Point{}, err
		}
		p.Description = *req.Description
	}
	if req.X != nil {
		p.X = *req.X
	}
	if req.Z != nil {
		p.Z = *req.Z
	}
	if req.ResourceType != nil {
		p.ResourceType = normalizeResourceType(*req.ResourceType)
	}

	row := s.db.QueryRow(ctx, `
		UPDATE points
		SET name=$2, description=$3, x=$4, z=$5, resource_type=$6, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, p.ID, p.Name, p.Description, p.X, p.Z, p.ResourceType)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Share moves the caller's private point into the moderation queue.
func (s *Service) Share(ctx context.Context, id, caller string) (Point, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Point{}, err
	}
	if err := checkTransition(p, caller, session.PrivilegeNone, TransitionShare); err != nil {
		return Point{}, err
	}
	return s.setStatus(ctx, p, StatusPending)
}

// Accept publishes a pending point and announces it on the live feed.
func (s *Service) Accept(ctx context.Context, id, caller string, priv session.Privilege) (Point, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Point{}, err
	}
	if err := checkTransition(p, caller, priv, TransitionAccept); err != nil {
		return Point{}, err
	}
	p, err = s.setStatus(ctx, p, StatusPublic)
	if err != nil {
		return Point{}, err
	}
	s.announce(p)
	return p, nil
}

// Reject removes a pending point. There is no path back to private once
// a point has been shared.
func (s *Service) Reject(ctx context.Context, id, caller string, priv session.Privilege) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(p, caller, priv, TransitionReject); err != nil {
		return err
	}
	return s.remove(ctx, p.ID)
}

// Delete removes a non-public point through the normal endpoint.
func (s *Service) Delete(ctx context.Context, id, caller string, priv session.Privilege) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(p, caller, priv, TransitionDelete); err != nil {
		return err
	}
	return s.remove(ctx, p.ID)
}

// AdminDelete removes any point through the admin endpoint.
func (s *Service) AdminDelete(ctx context.Context, id, caller string, priv session.Privilege) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(p, caller, priv, TransitionAdminDelete); err != nil {
		return err
	}
	return s.remove(ctx, p.ID)
}

func (s *Service) setStatus(ctx context.Context, p Point, status string) (Point, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE points SET status=$2, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, p.ID, status)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		return Point{}, err
	}
	p.Status = status
	return p, nil
}

func (s *Service) remove(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM points WHERE id=$1`, id)
	return err
}

func (s *Service) announce(p Point) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		log.Printf("point announce marshal error: %v", err)
		return
	}
	s.publisher.Broadcast(payload)
}

func (s *Service) list(ctx context.Context, query string, args ...any) ([]Point, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.X, &p.Z, &p.OwnerSessionCode, &p.Status, &p.ResourceType, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
