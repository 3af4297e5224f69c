package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/api/middleware"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/internal/wizard"
	pkgerrors "campus-portal/backend/pkg/errors"
	"campus-portal/backend/pkg/jwt"
	"campus-portal/backend/pkg/response"
	"campus-portal/backend/pkg/storage"
	"campus-portal/backend/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Setup()
}

// ═══════════════════════════════════════════════════════════
// Mock services
// ═══════════════════════════════════════════════════════════

// ── auth ──

type mockAuthService struct {
	signInResult  *dto.TokenResponse
	signInErr     error
	signUpErr     error
	verifyErr     error
	refreshResult *dto.TokenResponse
	refreshErr    error
	gotRefresh    string
	signedOut     bool
}

func (m *mockAuthService) SignIn(_ context.Context, _ *dto.SignInRequest) (*dto.TokenResponse, error) {
	if m.signInResult == nil {
		return nil, m.signInErr
	}
	copied := *m.signInResult
	return &copied, m.signInErr
}
func (m *mockAuthService) SignUp(_ context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	if m.signUpErr != nil {
		return nil, m.signUpErr
	}
	return &dto.SignUpResponse{ID: "user-1", Email: req.Email, VerificationRequired: true}, nil
}
func (m *mockAuthService) VerifyEmail(_ context.Context, _ string) error { return m.verifyErr }
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.gotRefresh = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) SignOut(_ context.Context, _ *jwt.Claims, refresh string) error {
	m.signedOut = true
	m.gotRefresh = refresh
	return nil
}
func (m *mockAuthService) Me(_ context.Context, userID string) (*dto.MeResponse, error) {
	return &dto.MeResponse{User: dto.UserResponse{ID: userID}}, nil
}

type mockRoles struct {
	role      access.Role
	refreshed bool
}

func (m *mockRoles) Resolve(_ context.Context, _ string) access.Role { return m.role }
func (m *mockRoles) Refresh(_ context.Context, _ string) access.Role {
	m.refreshed = true
	return m.role
}
func (m *mockRoles) Invalidate(string) {}

// ── events ──

type mockEventService struct {
	createErr   error
	updateErr   error
	gotDraft    *wizard.EventDraft
	gotCaller   service.Caller
	gotImages   []wizard.File
	gotListReq  *dto.EventListRequest
	imageBodies []string
}

func (m *mockEventService) List(_ context.Context, req *dto.EventListRequest, caller service.Caller) ([]dto.EventResponse, int64, error) {
	m.gotListReq, m.gotCaller = req, caller
	return []dto.EventResponse{{Event: &model.Event{EventID: "event-1"}}}, 1, nil
}
func (m *mockEventService) Get(_ context.Context, id string, _ service.Caller) (*dto.EventResponse, error) {
	return &dto.EventResponse{Event: &model.Event{EventID: id}}, nil
}
func (m *mockEventService) Create(_ context.Context, draft *wizard.EventDraft, caller service.Caller) (*dto.EventResponse, error) {
	m.gotDraft, m.gotCaller = draft, caller
	for _, f := range draft.Images {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		m.imageBodies = append(m.imageBodies, string(b))
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.EventResponse{Event: &model.Event{EventID: "event-1", Title: draft.Title}}, nil
}
func (m *mockEventService) Update(_ context.Context, _ string, _ *dto.UpdateEventRequest, _ service.Caller) (*dto.EventResponse, error) {
	return nil, m.updateErr
}
func (m *mockEventService) UploadMedia(_ context.Context, _ string, images, _ []wizard.File, _ service.Caller) (*dto.EventMediaResponse, error) {
	m.gotImages = images
	return &dto.EventMediaResponse{}, nil
}
func (m *mockEventService) SoftDelete(context.Context, string, service.Caller) error { return nil }
func (m *mockEventService) Restore(context.Context, string, service.Caller) error    { return nil }
func (m *mockEventService) Purge(context.Context, string, service.Caller) error {
	return service.ErrPurgeNotAllowed
}
func (m *mockEventService) ListDeleted(context.Context, *dto.PaginationRequest) ([]model.Event, int64, error) {
	return nil, 0, nil
}

// ── research ──

type mockResearchService struct {
	gotDraft *wizard.ResearchDraft
}

func (m *mockResearchService) Submit(_ context.Context, draft *wizard.ResearchDraft, _ service.Caller) (*dto.SubmitResponse, error) {
	m.gotDraft = draft
	return &dto.SubmitResponse{ID: "research-1"}, nil
}
func (m *mockResearchService) List(context.Context, *dto.ResearchListRequest, service.Caller) ([]dto.ResearchResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockResearchService) Mine(context.Context, *dto.PaginationRequest, service.Caller) ([]dto.ResearchResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockResearchService) Get(context.Context, string, service.Caller) (*dto.ResearchResponse, error) {
	return nil, service.ErrResearchNotFound
}
func (m *mockResearchService) Review(context.Context, string, *dto.ReviewResearchRequest, service.Caller) (*dto.ResearchResponse, error) {
	return nil, nil
}
func (m *mockResearchService) SoftDelete(context.Context, string, service.Caller) error { return nil }
func (m *mockResearchService) Restore(context.Context, string, service.Caller) error    { return nil }
func (m *mockResearchService) Purge(context.Context, string, service.Caller) error {
	return service.ErrNotDeleted
}

// ── academics ──

type mockAttendanceService struct{}

func (mockAttendanceService) Record(context.Context, *dto.RecordAttendanceRequest, service.Caller) (*dto.RecordAttendanceResponse, error) {
	return &dto.RecordAttendanceResponse{Recorded: 1}, nil
}
func (mockAttendanceService) List(context.Context, *dto.AttendanceListRequest, service.Caller) ([]model.AttendanceRecord, int64, error) {
	return nil, 0, service.ErrNoRollNumber
}
func (mockAttendanceService) Summary(context.Context, *dto.AttendanceListRequest, service.Caller) ([]model.AttendanceSummary, error) {
	return nil, nil
}
func (mockAttendanceService) Export(context.Context, *dto.AttendanceListRequest) (*bytes.Buffer, string, error) {
	return bytes.NewBufferString("xlsx-bytes"), "attendance 2026.xlsx", nil
}

type mockTimetableService struct {
	gotReader io.Reader
	gotBody   string
	gotReq    *dto.ImportTimetableRequest
	err       error
}

func (m *mockTimetableService) ImportICS(_ context.Context, r io.Reader, req *dto.ImportTimetableRequest) (*dto.ImportTimetableResponse, error) {
	m.gotReader, m.gotReq = r, req
	if r != nil {
		b, _ := io.ReadAll(r)
		m.gotBody = string(b)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ImportTimetableResponse{ImportedCount: 1}, nil
}
func (m *mockTimetableService) List(context.Context, *dto.TimetableListRequest) ([]dto.TimetableEntryResponse, error) {
	return nil, nil
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

// setAuth mimics the auth middleware for a signed-in caller.
func setAuth(c *gin.Context, role access.Role) {
	c.Set(middleware.CtxUserID, "test-user-id")
	c.Set(middleware.CtxEmail, "tester@college.edu")
	c.Set(middleware.CtxRole, role)
}

func withAuth(role access.Role, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c, role)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

type envelope struct {
	response.Response
	Data json.RawMessage `json:"data"`
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func fieldsOf(t *testing.T, env envelope) map[string]string {
	t.Helper()
	var fe response.FieldErrors
	if err := json.Unmarshal(env.Data, &fe); err != nil {
		t.Fatalf("decode fields %s: %v", env.Data, err)
	}
	return fe.Fields
}

type part struct {
	field, filename, body string
}

func multipartBody(t *testing.T, values map[string]string, files ...part) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(f.body))
	}
	_ = mw.Close()
	return buf, mw.FormDataContentType()
}

func newAuthHandler(svc *mockAuthService, roles *mockRoles) *AuthHandler {
	return NewAuthHandler(svc, roles,
		&config.AuthConfig{RefreshTokenTTL: 7 * 24 * time.Hour, Cookie: config.CookieConfig{SameSite: "lax"}},
		&config.MailConfig{VerifyRedirect: "https://college.example/auth"})
}

// ═══════════════════════════════════════════════════════════
// AuthHandler
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_SignIn_Success(t *testing.T) {
	svc := &mockAuthService{signInResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}}
	h := newAuthHandler(svc, &mockRoles{})

	r := gin.New()
	r.POST("/auth/sign-in", h.SignIn)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", jsonBody(dto.SignInRequest{Email: "a@college.edu", Password: "pw"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tokens dto.TokenResponse
	_ = json.Unmarshal(parseResponse(t, w).Data, &tokens)
	if tokens.RefreshToken != "r" {
		t.Errorf("non-browser clients keep the refresh token in the body, got %q", tokens.RefreshToken)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			found = true
			if c.Value != "r" || !c.HttpOnly {
				t.Errorf("unexpected cookie %+v", c)
			}
		}
	}
	if !found {
		t.Error("expected refresh_token cookie to be set")
	}
}

func TestAuthHandler_SignIn_BrowserGetsCookieOnly(t *testing.T) {
	svc := &mockAuthService{signInResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r"}}
	h := newAuthHandler(svc, &mockRoles{})

	r := gin.New()
	r.POST("/auth/sign-in", h.SignIn)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", jsonBody(dto.SignInRequest{Email: "a@college.edu", Password: "pw"}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://college.example")
	r.ServeHTTP(w, req)

	var tokens dto.TokenResponse
	_ = json.Unmarshal(parseResponse(t, w).Data, &tokens)
	if tokens.RefreshToken != "" {
		t.Errorf("browser response must not expose the refresh token, got %q", tokens.RefreshToken)
	}
}

func TestAuthHandler_SignIn_Errors(t *testing.T) {
	cases := []struct {
		name     string
		body     io.Reader
		err      error
		wantHTTP int
		wantCode int
	}{
		{"bad json", strings.NewReader("{"), nil, http.StatusBadRequest, response.CodeInvalidParams},
		{"bad email", jsonBody(map[string]string{"email": "nope", "password": "x"}), nil, http.StatusBadRequest, response.CodeInvalidParams},
		{"wrong password", jsonBody(dto.SignInRequest{Email: "a@college.edu", Password: "x"}), service.ErrInvalidCredentials, http.StatusUnauthorized, 11001},
		{"unverified", jsonBody(dto.SignInRequest{Email: "a@college.edu", Password: "x"}), service.ErrEmailNotVerified, http.StatusForbidden, 11002},
		{"backend", jsonBody(dto.SignInRequest{Email: "a@college.edu", Password: "x"}), errors.New("db down"), http.StatusInternalServerError, response.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthHandler(&mockAuthService{signInErr: tc.err}, &mockRoles{})
			r := gin.New()
			r.POST("/auth/sign-in", h.SignIn)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", tc.body)
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tc.wantHTTP {
				t.Fatalf("expected %d, got %d", tc.wantHTTP, w.Code)
			}
			if env := parseResponse(t, w); env.Code != tc.wantCode {
				t.Errorf("expected code %d, got %d", tc.wantCode, env.Code)
			}
		})
	}
}

func TestAuthHandler_SignIn_FieldMessages(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockRoles{})
	r := gin.New()
	r.POST("/auth/sign-in", h.SignIn)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", jsonBody(map[string]string{"email": "a@college.edu"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if fields := fieldsOf(t, parseResponse(t, w)); fields["password"] == "" {
		t.Errorf("expected a password message, got %v", fields)
	}
}

func TestAuthHandler_SignUp_EmailTaken(t *testing.T) {
	h := newAuthHandler(&mockAuthService{signUpErr: service.ErrEmailTaken}, &mockRoles{})
	r := gin.New()
	r.POST("/auth/sign-up", h.SignUp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-up", jsonBody(dto.SignUpRequest{Email: "a@college.edu", Password: "longenough"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict || parseResponse(t, w).Code != 11003 {
		t.Errorf("expected 409/11003, got %d %s", w.Code, w.Body.String())
	}
}

func TestAuthHandler_VerifyEmail_Redirects(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"ok":      {nil, "https://college.example/auth?verified=1"},
		"expired": {service.ErrVerificationExpired, "https://college.example/auth?verify_error=expired"},
		"invalid": {service.ErrInvalidToken, "https://college.example/auth?verify_error=invalid"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newAuthHandler(&mockAuthService{verifyErr: tc.err}, &mockRoles{})
			r := gin.New()
			r.GET("/auth/verify", h.VerifyEmail)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/verify?token=abc", nil))

			if w.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", w.Code)
			}
			if loc := w.Header().Get("Location"); loc != tc.want {
				t.Errorf("expected %q, got %q", tc.want, loc)
			}
		})
	}
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	svc := &mockAuthService{refreshResult: &dto.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}}
	h := newAuthHandler(svc, &mockRoles{})
	r := gin.New()
	r.POST("/auth/refresh", h.Refresh)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-refresh"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.gotRefresh != "cookie-refresh" {
		t.Errorf("expected the cookie token, got %q", svc.gotRefresh)
	}
}

func TestAuthHandler_Refresh_Missing(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockRoles{})
	r := gin.New()
	r.POST("/auth/refresh", h.Refresh)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_SignOut_ClearsCookie(t *testing.T) {
	svc := &mockAuthService{}
	h := newAuthHandler(svc, &mockRoles{})
	r := gin.New()
	r.POST("/auth/sign-out", withAuth(access.RoleStudent, h.SignOut))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-out", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !svc.signedOut || svc.gotRefresh != "old" {
		t.Fatalf("sign-out not forwarded: %d %+v", w.Code, svc)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName && c.MaxAge >= 0 {
			t.Errorf("cookie must be expired, got %+v", c)
		}
	}
}

func TestAuthHandler_Role(t *testing.T) {
	roles := &mockRoles{role: access.RoleFaculty}
	h := newAuthHandler(&mockAuthService{}, roles)
	r := gin.New()
	r.GET("/auth/role", withAuth(access.RoleFaculty, h.Role))
	r.POST("/auth/role/refresh", withAuth(access.RoleUnresolved, h.RefreshRole))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/role", nil))
	var role dto.RoleResponse
	_ = json.Unmarshal(parseResponse(t, w).Data, &role)
	if role.Role != "faculty" || !role.IsFaculty || !role.IsAdminOrFaculty || role.IsAdmin {
		t.Errorf("unexpected role view %+v", role)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/role/refresh", nil))
	if !roles.refreshed || w.Code != http.StatusOK {
		t.Errorf("refresh must re-resolve, got %d", w.Code)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockRoles{})
	r := gin.New()
	r.GET("/auth/me", h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// EventHandler
// ═══════════════════════════════════════════════════════════

func TestEventHandler_Create_Multipart(t *testing.T) {
	svc := &mockEventService{}
	h := NewEventHandler(svc)
	r := gin.New()
	r.POST("/events", withAuth(access.RoleFaculty, h.CreateEvent))

	body, ct := multipartBody(t,
		map[string]string{payloadField: `{"title":"Robotics Expo","event_type":"workshop"}`},
		part{fieldImages, "a.png", "first"},
		part{fieldImages, "b.png", "second"},
		part{fieldBrochures, "c.pdf", "brochure"},
	)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotDraft.Title != "Robotics Expo" || len(svc.gotDraft.Brochures) != 1 {
		t.Errorf("unexpected draft %+v", svc.gotDraft)
	}
	if len(svc.imageBodies) != 2 || svc.imageBodies[0] != "first" || svc.imageBodies[1] != "second" {
		t.Errorf("images must keep selection order, got %v", svc.imageBodies)
	}
	if svc.gotCaller.Role != access.RoleFaculty || svc.gotCaller.UserID != "test-user-id" {
		t.Errorf("unexpected caller %+v", svc.gotCaller)
	}
}

func TestEventHandler_Create_Rejections(t *testing.T) {
	cases := []struct {
		name      string
		payload   string
		createErr error
		wantHTTP  int
		wantField string
	}{
		{"unknown field", `{"title":"x","speaker":"y"}`, nil, http.StatusBadRequest, "payload"},
		{"bad schedule", `{"title":"x","schedule":[{"time":"09:00","activity":" "}]}`, nil, http.StatusBadRequest, "schedule[0].activity"},
		{"server validation", `{"title":"x"}`, &service.ValidationError{Fields: map[string]string{"venue": "required"}}, http.StatusBadRequest, "venue"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewEventHandler(&mockEventService{createErr: tc.createErr})
			r := gin.New()
			r.POST("/events", withAuth(access.RoleAdmin, h.CreateEvent))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tc.payload))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tc.wantHTTP {
				t.Fatalf("expected %d, got %d: %s", tc.wantHTTP, w.Code, w.Body.String())
			}
			if fields := fieldsOf(t, parseResponse(t, w)); fields[tc.wantField] == "" {
				t.Errorf("expected message for %s, got %v", tc.wantField, fields)
			}
		})
	}
}

func TestEventHandler_Create_MissingPayload(t *testing.T) {
	h := NewEventHandler(&mockEventService{})
	r := gin.New()
	r.POST("/events", withAuth(access.RoleAdmin, h.CreateEvent))

	body, ct := multipartBody(t, nil, part{fieldImages, "a.png", "x"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if fields := fieldsOf(t, parseResponse(t, w)); fields[payloadField] == "" {
		t.Errorf("expected payload message, got %v", fields)
	}
}

func TestEventHandler_Create_UploadRejected(t *testing.T) {
	err := &wizard.SubmissionError{Stage: "images", Index: 1, File: "b.exe", Err: storage.ErrUnsupportedType}
	h := NewEventHandler(&mockEventService{createErr: err})
	r := gin.New()
	r.POST("/events", withAuth(access.RoleAdmin, h.CreateEvent))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	env := parseResponse(t, w)
	if env.Code != 19001 || !strings.Contains(env.Details, "b.exe") {
		t.Errorf("expected 19001 naming the file, got %d %q", env.Code, env.Details)
	}
}

func TestEventHandler_Update_Conflict(t *testing.T) {
	h := NewEventHandler(&mockEventService{updateErr: pkgerrors.ErrOptimisticLock})
	r := gin.New()
	r.PUT("/events/:id", withAuth(access.RoleAdmin, h.UpdateEvent))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/events/event-1", jsonBody(map[string]interface{}{"title": "New", "version": 1}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict || parseResponse(t, w).Code != 13006 {
		t.Errorf("expected 409/13006, got %d %s", w.Code, w.Body.String())
	}
}

func TestEventHandler_List_Anonymous(t *testing.T) {
	svc := &mockEventService{}
	h := NewEventHandler(svc)
	r := gin.New()
	r.GET("/events", h.ListEvents)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?type=seminar&page=2&page_size=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !svc.gotCaller.Anonymous() || svc.gotListReq.Type != "seminar" || svc.gotListReq.GetPage() != 2 {
		t.Errorf("unexpected request %+v caller %+v", svc.gotListReq, svc.gotCaller)
	}

	var page response.PageData
	_ = json.Unmarshal(parseResponse(t, w).Data, &page)
	if page.Pagination.Page != 2 || page.Pagination.PageSize != 5 || page.Pagination.Total != 1 {
		t.Errorf("unexpected pagination %+v", page.Pagination)
	}
}

func TestEventHandler_List_RejectsBadFilter(t *testing.T) {
	h := NewEventHandler(&mockEventService{})
	r := gin.New()
	r.GET("/events", h.ListEvents)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?type=party", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEventHandler_UploadMedia(t *testing.T) {
	svc := &mockEventService{}
	h := NewEventHandler(svc)
	r := gin.New()
	r.POST("/events/:id/media", withAuth(access.RoleAdmin, h.UploadMedia))

	body, ct := multipartBody(t, nil, part{fieldImages, "a.png", "x"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/event-1/media", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || len(svc.gotImages) != 1 || svc.gotImages[0].Name != "a.png" {
		t.Errorf("unexpected result %d %+v", w.Code, svc.gotImages)
	}
}

func TestEventHandler_Purge_NotSuperAdmin(t *testing.T) {
	h := NewEventHandler(&mockEventService{})
	r := gin.New()
	r.DELETE("/events/:id/purge", withAuth(access.RoleAdmin, h.PurgeEvent))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/events/event-1/purge", nil))
	if w.Code != http.StatusForbidden || parseResponse(t, w).Code != 13005 {
		t.Errorf("expected 403/13005, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ResearchHandler
// ═══════════════════════════════════════════════════════════

func TestResearchHandler_Submit(t *testing.T) {
	svc := &mockResearchService{}
	h := NewResearchHandler(svc)
	r := gin.New()
	r.POST("/research", withAuth(access.RoleStudent, h.Submit))

	body, ct := multipartBody(t,
		map[string]string{payloadField: `{"title":"Soil sensors","tools":["Go"]}`},
		part{fieldDocuments, "paper.pdf", "%PDF"},
		part{fieldImages, "fig.png", "png"},
	)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/research", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	d := svc.gotDraft
	if d.Title != "Soil sensors" || len(d.Documents) != 1 || len(d.Images) != 1 || d.Documents[0].Name != "paper.pdf" {
		t.Errorf("unexpected draft %+v", d)
	}
}

func TestResearchHandler_Errors(t *testing.T) {
	h := NewResearchHandler(&mockResearchService{})
	r := gin.New()
	r.GET("/research/:id", h.Get)
	r.DELETE("/research/:id/purge", withAuth(access.RoleAdmin, h.Purge))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/research/x", nil))
	if w.Code != http.StatusNotFound || parseResponse(t, w).Code != 14001 {
		t.Errorf("expected 404/14001, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/research/x/purge", nil))
	if w.Code != http.StatusConflict || parseResponse(t, w).Code != 14004 {
		t.Errorf("expected 409/14004, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AcademicsHandler
// ═══════════════════════════════════════════════════════════

func newAcademics(tt *mockTimetableService) *AcademicsHandler {
	return NewAcademicsHandler(nil, mockAttendanceService{}, tt)
}

func TestAcademicsHandler_ExportAttendance(t *testing.T) {
	h := newAcademics(&mockTimetableService{})
	r := gin.New()
	r.GET("/attendance/export", withAuth(access.RoleFaculty, h.ExportAttendance))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance/export?branch=CSE", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''attendance%202026.xlsx" {
		t.Errorf("unexpected disposition %q", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestAcademicsHandler_ListAttendance_NoRoll(t *testing.T) {
	h := newAcademics(&mockTimetableService{})
	r := gin.New()
	r.GET("/attendance", withAuth(access.RoleStudent, h.ListAttendance))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attendance", nil))
	if w.Code != http.StatusForbidden || parseResponse(t, w).Code != 16001 {
		t.Errorf("expected 403/16001, got %d", w.Code)
	}
}

func TestAcademicsHandler_ImportTimetable_File(t *testing.T) {
	tt := &mockTimetableService{}
	h := newAcademics(tt)
	r := gin.New()
	r.POST("/timetables/import", withAuth(access.RoleFaculty, h.ImportTimetable))

	body, ct := multipartBody(t, map[string]string{
		"branch": "CSE", "semester": "5", "section": "A",
		"term_start": "2026-09-07", "term_end": "2026-12-18",
	}, part{icsField, "cse5a.ics", "BEGIN:VCALENDAR"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/import", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if tt.gotBody != "BEGIN:VCALENDAR" || tt.gotReq.Semester != 5 || tt.gotReq.Branch != "CSE" {
		t.Errorf("unexpected import %q %+v", tt.gotBody, tt.gotReq)
	}
}

func TestAcademicsHandler_ImportTimetable_URL(t *testing.T) {
	tt := &mockTimetableService{err: service.ErrTimetableICSFetchFailed}
	h := newAcademics(tt)
	r := gin.New()
	r.POST("/timetables/import", withAuth(access.RoleFaculty, h.ImportTimetable))

	form := "branch=CSE&semester=5&section=A&term_start=2026-09-07&term_end=2026-12-18&url=https%3A%2F%2Fcal.example%2Fcse.ics"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/import", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if tt.gotReader != nil {
		t.Error("no file part means a nil reader")
	}
	if tt.gotReq.URL != "https://cal.example/cse.ics" {
		t.Errorf("unexpected url %q", tt.gotReq.URL)
	}
	if w.Code != http.StatusBadGateway || parseResponse(t, w).Code != 17003 {
		t.Errorf("expected 502/17003, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StorageHandler and health
// ═══════════════════════════════════════════════════════════

func TestStorageHandler_Serve(t *testing.T) {
	store := storage.NewStoreWithOptions(afero.NewMemMapFs(), "http://cdn.test/storage", storage.Options{})
	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52}
	obj, err := store.Events().Upload(context.Background(), storage.FolderImages, "poster.png", storage.KindImage, bytes.NewReader(png))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	h := NewStorageHandler(store)
	r := gin.New()
	r.GET("/storage/:bucket/*name", h.Serve)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/events/"+obj.Name, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), png) {
		t.Error("body must be the stored bytes")
	}

	for path, want := range map[string]int{
		"/storage/nope/images/x.png":   http.StatusNotFound,
		"/storage/events/images/x.png": http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, w.Code)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"db":    PingFunc(func(context.Context) error { return nil }),
		"redis": PingFunc(func(context.Context) error { return errors.New("refused") }),
		"mail":  nil,
	})
	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Status != "degraded" || body.Dependencies["db"] != "up" || body.Dependencies["redis"] != "down" || body.Dependencies["mail"] != "disabled" {
		t.Errorf("unexpected health %+v", body)
	}
}
