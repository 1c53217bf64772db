package point

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desperadoss/minecraft-map-sub000/internal/apperr"
	"github.com/desperadoss/minecraft-map-sub000/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

type fakeRoles struct {
	owners map[string]bool
	admins map[string]bool
}

func (f fakeRoles) IsOwner(_ context.Context, code string) (bool, error) {
	return f.owners[code], nil
}

func (f fakeRoles) IsAdmin(_ context.Context, code string) (bool, error) {
	return f.admins[code] || f.owners[code], nil
}

func newPointApp(svc *Service, roles session.RoleChecker) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	sessionRequired := session.Require()
	RegisterRoutes(app.Group("/api/points"), svc, sessionRequired, session.Resolve(roles))
	RegisterAdminRoutes(app.Group("/api/admin"), svc, sessionRequired, session.AdminGuard(roles))
	return app
}

func doReq(t *testing.T, app *fiber.App, method, path, sessionCode string, body any) *http.Response {
	t.Helper()
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if sessionCode != "" {
		req.Header.Set(session.HeaderName, sessionCode)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	return resp
}

func modRoles() fakeRoles {
	return fakeRoles{admins: map[string]bool{"mod": true}}
}

func TestListPublicNoSession(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPublic)
	mock.ExpectQuery(`SELECT ` + pointCols + `\s+FROM points WHERE status = 'public'`).
		WillReturnRows(pointRow(p))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodGet, "/api/points/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var points []Point
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil || len(points) != 1 {
		t.Fatalf("expected one public point: %v", err)
	}
}

func TestCreateRequiresSession(t *testing.T) {
	mock := newMock(t)
	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPost, "/api/points/", "", fiber.Map{"name": "Base", "x": 1, "z": 2})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreatePointHandler(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO points`).
		WithArgs(pgxmock.AnyArg(), "Base", "", int64(100), int64(-200), "session-a", "private", "custom").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPost, "/api/points/", "session-a", fiber.Map{"name": "Base", "x": 100, "z": -200})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var p Point
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != StatusPrivate || p.OwnerSessionCode != "session-a" {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestCreatePointHandlerValidation(t *testing.T) {
	mock := newMock(t)
	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPost, "/api/points/", "session-a", fiber.Map{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPrivateListingScopedToCaller(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPending)
	mock.ExpectQuery(`SELECT `+pointCols+`\s+FROM points\s+WHERE status IN \('private', 'pending'\)`).
		WithArgs("session-a").
		WillReturnRows(pointRow(p))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodGet, "/api/points/private", "session-a", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doReq(t, app, http.MethodGet, "/api/points/private", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestShareHandler(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPrivate)
	expectGet(mock, p)
	mock.ExpectQuery(`UPDATE points SET status`).
		WithArgs(p.ID, StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPut, "/api/points/share/"+p.ID, "session-a", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var shared Point
	if err := json.NewDecoder(resp.Body).Decode(&shared); err != nil || shared.Status != StatusPending {
		t.Fatalf("expected pending point: %v", err)
	}
}

func TestShareHandlerConflict(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPending)
	expectGet(mock, p)

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPut, "/api/points/share/"+p.ID, "session-a", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestDeleteByStrangerHandler(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPrivate)
	expectGet(mock, p)

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodDelete, "/api/points/"+p.ID, "session-b", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestEditPendingByAdminViaNormalEndpoint(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPending)
	expectGet(mock, p)
	mock.ExpectQuery(`UPDATE points\s+SET name`).
		WithArgs(p.ID, "Renamed", p.Description, p.X, p.Z, p.ResourceType).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPut, "/api/points/"+p.ID, "mod", fiber.Map{"name": "Renamed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin edit of pending point, got %d", resp.StatusCode)
	}
}

func TestAdminPendingListGuarded(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPending)
	mock.ExpectQuery(`SELECT ` + pointCols + `\s+FROM points WHERE status = 'pending'`).
		WillReturnRows(pointRow(p))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodGet, "/api/admin/pending", "session-a", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for plain session, got %d", resp.StatusCode)
	}

	resp = doReq(t, app, http.MethodGet, "/api/admin/pending", "mod", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}
}

func TestAcceptRejectLifecycle(t *testing.T) {
	mock := newMock(t)

	// accept makes the point public
	p := samplePoint(StatusPending)
	expectGet(mock, p)
	mock.ExpectQuery(`UPDATE points SET status`).
		WithArgs(p.ID, StatusPublic).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	// reject removes a second pending point outright
	p2 := samplePoint(StatusPending)
	p2.ID = "pt-2"
	expectGet(mock, p2)
	mock.ExpectExec(`DELETE FROM points`).
		WithArgs(p2.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPut, "/api/admin/accept/"+p.ID, "mod", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", resp.StatusCode)
	}
	var accepted Point
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil || accepted.Status != StatusPublic {
		t.Fatalf("expected public point: %v", err)
	}

	resp = doReq(t, app, http.MethodPut, "/api/admin/reject/"+p2.ID, "mod", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRejectedPointNotFoundAfterwards(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT ` + pointCols).
		WithArgs("pt-2").
		WillReturnError(pgx.ErrNoRows)

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPut, "/api/points/share/pt-2", "session-a", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after rejection, got %d", resp.StatusCode)
	}
}

func TestAdminEditAndDeleteEndpoints(t *testing.T) {
	mock := newMock(t)

	p := samplePoint(StatusPublic)
	expectGet(mock, p)
	mock.ExpectQuery(`UPDATE points\s+SET name`).
		WithArgs(p.ID, "Fixed", p.Description, p.X, p.Z, p.ResourceType).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	expectGet(mock, p)
	mock.ExpectExec(`DELETE FROM points`).
		WithArgs(p.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := newPointApp(NewService(mock, nil), modRoles())

	resp := doReq(t, app, http.MethodPut, "/api/admin/edit/"+p.ID, "mod", fiber.Map{"name": "Fixed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin edit: expected 200, got %d", resp.StatusCode)
	}

	resp = doReq(t, app, http.MethodDelete, "/api/admin/delete/"+p.ID, "mod", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d", resp.StatusCode)
	}
}

func TestPromotedSessionPassesAdminGuard(t *testing.T) {
	mock := newMock(t)
	p := samplePoint(StatusPending)
	mock.ExpectQuery(`SELECT ` + pointCols + `\s+FROM points WHERE status = 'pending'`).
		WillReturnRows(pointRow(p))

	roles := fakeRoles{admins: map[string]bool{}}
	app := newPointApp(NewService(mock, nil), roles)

	if resp := doReq(t, app, http.MethodGet, "/api/admin/pending", "session-c", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 before promotion, got %d", resp.StatusCode)
	}

	roles.admins["session-c"] = true
	if resp := doReq(t, app, http.MethodGet, "/api/admin/pending", "session-c", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after promotion, got %d", resp.StatusCode)
	}
}

func TestEditParseError(t *testing.T) {
	mock := newMock(t)
	app := newPointApp(NewService(mock, nil), modRoles())

	req := httptest.NewRequest(http.MethodPut, "/api/points/pt-1", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(session.HeaderName, "session-a")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body")
	}
}
