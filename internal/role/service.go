package role

import (
	"context"
	"fmt"
	"time"

	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/db"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// cacheTTL bounds how stale a cached privilege lookup may be. Promotion
// and moderator login invalidate the affected key eagerly.
const cacheTTL = 30 * time.Second

type Service struct {
	db        db.Querier
	cache     *redis.Client
	adminHash []byte
}

// NewService builds the role registry. The redis client is optional; with
// a nil client every lookup goes straight to the database. adminCode is
// the moderator login secret, held only as a bcrypt hash.
func NewService(q db.Querier, cache *redis.Client, adminCode string) *Service {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminCode), bcrypt.DefaultCost)
	if err != nil {
		hash = nil
	}
	return &Service{db: q, cache: cache, adminHash: hash}
}

// SeedOwners upserts the configured owner session codes. Owners are
// provisioned only this way; no endpoint can create or remove one.
func (s *Service) SeedOwners(ctx context.Context, codes []string) error {
	for _, code := range codes {
		_, err := s.db.Exec(ctx, `
			INSERT INTO owners (session_code) VALUES ($1)
			ON CONFLICT (session_code) DO NOTHING
		`, code)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) IsOwner(ctx context.Context, sessionCode string) (bool, error) {
	return s.member(ctx, "owners", sessionCode)
}

// IsAdmin reports admin privilege. Owners are admins even without an
// admin row.
func (s *Service) IsAdmin(ctx context.Context, sessionCode string) (bool, error) {
	owner, err := s.IsOwner(ctx, sessionCode)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}
	return s.member(ctx, "admins", sessionCode)
}

// Promote grants admin privilege to target. Only owners may promote;
// promoting an existing admin is a no-op success.
func (s *Service) Promote(ctx context.Context, actingSession, target string) error {
	if err := s.requireOwner(ctx, actingSession); err != nil {
		return err
	}
	if target == "" {
		return fmt.Errorf("%w: sessionCode required", apperr.ErrValidation)
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO admins (session_code) VALUES ($1)
		ON CONFLICT (session_code) DO NOTHING
	`, target)
	if err != nil {
		return err
	}
	s.invalidate(ctx, "admins", target)
	return nil
}

// AllowSession adds a session code to the participation allow-list.
// Duplicate inserts are no-op successes.
func (s *Service) AllowSession(ctx context.Context, actingSession, code string) error {
	if err := s.requireOwner(ctx, actingSession); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("%w: sessionCode required", apperr.ErrValidation)
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO allowed_sessions (id, session_code, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_code) DO NOTHING
	`, uuid.NewString(), code, actingSession)
	return err
}

// RemoveAllowedSession deletes an allow-list entry; removing a missing
// entry is a no-op success.
func (s *Service) RemoveAllowedSession(ctx context.Context, actingSession, code string) error {
	if err := s.requireOwner(ctx, actingSession); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM allowed_sessions WHERE session_code = $1`, code)
	return err
}

func (s *Service) AllowedSessions(ctx context.Context) ([]AllowedSession, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_code, added_by, created_at
		FROM allowed_sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AllowedSession
	for rows.Next() {
		var e AllowedSession
		if err := rows.Scan(&e.ID, &e.SessionCode, &e.AddedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Login compares the submitted moderator code against the configured
// secret and, on success, persists the caller's session as an admin.
func (s *Service) Login(ctx context.Context, sessionCode, adminCode string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(adminCode)); err != nil {
		return false, nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO admins (session_code) VALUES ($1)
		ON CONFLICT (session_code) DO NOTHING
	`, sessionCode)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, "admins", sessionCode)
	return true, nil
}

func (s *Service) requireOwner(ctx context.Context, sessionCode string) error {
	owner, err := s.IsOwner(ctx, sessionCode)
	if err != nil {
		return err
	}
	if !owner {
		return fmt.Errorf("%w: owner privilege required", apperr.ErrForbidden)
	}
	return nil
}

// member checks table membership with a best-effort redis cache in front.
func (s *Service) member(ctx context.Context, table, sessionCode string) (bool, error) {
	key := cacheKey(table, sessionCode)
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key).Result(); err == nil {
			return val == "1", nil
		}
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE session_code = $1)`
	if err := s.db.QueryRow(ctx, query, sessionCode).Scan(&exists); err != nil {
		return false, err
	}

	if s.cache != nil {
		val := "0"
		if exists {
			val = "1"
		}
		s.cache.Set(ctx, key, val, cacheTTL)
	}
	return exists, nil
}

func (s *Service) invalidate(ctx context.Context, table, sessionCode string) {
	if s.cache != nil {
		s.cache.Del(ctx, cacheKey(table, sessionCode))
	}
}

func cacheKey(table, sessionCode string) string {
	return "role:" + table + ":" + sessionCode
}
