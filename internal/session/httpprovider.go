package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/dto"
)

const (
	defaultRefreshSkew = 30 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// HTTPProvider is a Provider backed by the portal server's /api/v1/auth endpoints. The session
// is kept in a JSON file so separate CLI invocations share it.
type HTTPProvider struct {
	client *resty.Client
	fs     afero.Fs
	path   string
	skew   time.Duration
	now    func() time.Time
	logger *zap.Logger

	// refreshMu serializes token refreshes; held without mu.
	refreshMu sync.Mutex

	mu      sync.Mutex
	loaded  bool
	session *Session
	subs    map[uint64]*subscriber
	nextSub uint64
}

// subscriber serializes the calls to one callback. started is set by the first delivery of
// any event, after which EventInitial is no longer sent.
type subscriber struct {
	fn func(Event, *Session)

	mu      sync.Mutex
	started bool
	removed bool
}

func (s *subscriber) send(evt Event, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	s.started = true
	s.fn(evt, sess)
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithSessionFile persists the session at path on fs. Without it the session lives in memory.
func WithSessionFile(fs afero.Fs, path string) HTTPOption {
	return func(p *HTTPProvider) { p.fs, p.path = fs, path }
}

// WithRefreshSkew refreshes the access token when it expires within d.
func WithRefreshSkew(d time.Duration) HTTPOption {
	return func(p *HTTPProvider) { p.skew = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) HTTPOption {
	return func(p *HTTPProvider) { p.now = now }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPProvider) { p.client.SetTimeout(d) }
}

// NewHTTPProvider talks to the server at baseURL, e.g. http://localhost:8080/api/v1.
func NewHTTPProvider(baseURL string, logger *zap.Logger, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(defaultHTTPTimeout).
			SetHeader("Accept", "application/json"),
		skew:   defaultRefreshSkew,
		now:    time.Now,
		logger: logger,
		subs:   make(map[uint64]*subscriber),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetSession returns the stored session, refreshing the access token when it is about to
// expire. A refresh the server rejects ends the session.
func (p *HTTPProvider) GetSession(ctx context.Context) (*Session, error) {
	s, err := p.current()
	if err != nil || s == nil {
		return nil, err
	}
	if p.fresh(s) {
		return s, nil
	}
	return p.refresh(ctx, s)
}

// OnAuthStateChange registers fn. EventInitial is delivered on a separate goroutine right away
// unless another event reached fn first. Calls to fn never overlap.
func (p *HTTPProvider) OnAuthStateChange(fn func(Event, *Session)) func() {
	sub := &subscriber{fn: fn}
	p.mu.Lock()
	p.nextSub++
	id := p.nextSub
	p.subs[id] = sub
	p.mu.Unlock()

	go p.sendInitial(sub)

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
		sub.mu.Lock()
		sub.removed = true
		sub.mu.Unlock()
	}
}

// sendInitial delivers EventInitial with the stored session. The session is read under sub.mu
// so a concurrent sign in is either seen here or delivered after.
func (p *HTTPProvider) sendInitial(sub *subscriber) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.started || sub.removed {
		return
	}
	s, err := p.current()
	if err != nil {
		p.logger.Debug("load stored session", zap.Error(err))
	}
	sub.started = true
	sub.fn(EventInitial, s)
}

// SignIn exchanges credentials for a token pair.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) error {
	var tokens dto.TokenResponse
	err := p.call(p.client.R().SetContext(ctx).
		SetBody(dto.SignInRequest{Email: email, Password: password}),
		http.MethodPost, "/auth/sign-in", &tokens)
	if err != nil {
		return toAuthError("sign in", err)
	}

	s := p.sessionFrom(&tokens, nil)
	if err := p.store(s); err != nil {
		return toAuthError("sign in", err)
	}
	p.emit(EventSignedIn, s)
	return nil
}

// SignUp registers an account. The server sends the verification mail; no session starts.
func (p *HTTPProvider) SignUp(ctx context.Context, sp SignUpParams) error {
	err := p.call(p.client.R().SetContext(ctx).SetBody(dto.SignUpRequest{
		Email:      sp.Email,
		Password:   sp.Password,
		FullName:   sp.FullName,
		Department: sp.Department,
		RollNumber: sp.RollNumber,
	}), http.MethodPost, "/auth/sign-up", nil)
	if err != nil {
		return toAuthError("sign up", err)
	}
	return nil
}

// SignOut revokes the tokens on the server and forgets the session. The local session is
// dropped even when the server cannot be reached.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	s, _ := p.current()
	if s == nil {
		return nil
	}

	err := p.call(p.client.R().SetContext(ctx).
		SetAuthToken(s.AccessToken).
		SetBody(dto.RefreshTokenRequest{RefreshToken: s.RefreshToken}),
		http.MethodPost, "/auth/sign-out", nil)

	if serr := p.store(nil); serr != nil && err == nil {
		err = serr
	}
	p.emit(EventSignedOut, nil)
	return err
}

// LookupRole asks the server for the caller's role. userID must be the signed-in user.
func (p *HTTPProvider) LookupRole(ctx context.Context, userID string) (access.Role, error) {
	req, err := p.R(ctx)
	if err != nil {
		return access.RoleUnresolved, err
	}
	if s, _ := p.current(); s == nil || s.User.ID != userID {
		return access.RoleUnresolved, fmt.Errorf("role lookup for %s: %w", userID, ErrNoSession)
	}

	var role dto.RoleResponse
	if err := p.call(req, http.MethodGet, "/auth/role", &role); err != nil {
		return access.RoleUnresolved, err
	}
	r, _ := access.ParseRole(role.Role)
	return r, nil
}

// RefreshRole drops the server side role cache and returns the fresh role.
func (p *HTTPProvider) RefreshRole(ctx context.Context) (access.Role, error) {
	req, err := p.R(ctx)
	if err != nil {
		return access.RoleUnresolved, err
	}
	var role dto.RoleResponse
	if err := p.call(req, http.MethodPost, "/auth/role/refresh", &role); err != nil {
		return access.RoleUnresolved, err
	}
	r, _ := access.ParseRole(role.Role)
	return r, nil
}

// R returns a request carrying a valid access token, or ErrNoSession.
func (p *HTTPProvider) R(ctx context.Context) (*resty.Request, error) {
	s, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	return p.client.R().SetContext(ctx).SetAuthToken(s.AccessToken), nil
}

// Public returns an unauthenticated request.
func (p *HTTPProvider) Public(ctx context.Context) *resty.Request {
	return p.client.R().SetContext(ctx)
}

// Do executes req and decodes the envelope's data into out.
func (p *HTTPProvider) Do(req *resty.Request, method, path string, out interface{}) error {
	return p.call(req, method, path, out)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

func (p *HTTPProvider) call(req *resty.Request, method, path string, out interface{}) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &env); err != nil && !resp.IsError() {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	if resp.IsError() || env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Code: env.Code, Message: msg, Details: env.Details}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

func (p *HTTPProvider) fresh(s *Session) bool {
	return s.ExpiresAt.IsZero() || p.now().Add(p.skew).Before(s.ExpiresAt)
}

func (p *HTTPProvider) refresh(ctx context.Context, old *Session) (*Session, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	if s, _ := p.current(); s == nil {
		return nil, nil
	} else if s.AccessToken != old.AccessToken && p.fresh(s) {
		return s, nil
	}

	var tokens dto.TokenResponse
	err := p.call(p.client.R().SetContext(ctx).
		SetBody(dto.RefreshTokenRequest{RefreshToken: old.RefreshToken}),
		http.MethodPost, "/auth/refresh", &tokens)
	if err != nil {
		var api *APIError
		if errors.As(err, &api) && api.Status == http.StatusUnauthorized {
			p.logger.Info("stored session is no longer valid", zap.Int("code", api.Code))
			if serr := p.store(nil); serr != nil {
				p.logger.Warn("clear session file", zap.Error(serr))
			}
			p.emit(EventSignedOut, nil)
			return nil, nil
		}
		return nil, err
	}

	s := p.sessionFrom(&tokens, old)
	if err := p.store(s); err != nil {
		return nil, err
	}
	p.emit(EventTokenRefreshed, s)
	return s, nil
}

func (p *HTTPProvider) sessionFrom(t *dto.TokenResponse, old *Session) *Session {
	s := &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         User{ID: t.User.ID, Email: t.User.Email},
	}
	if t.ExpiresIn > 0 {
		s.ExpiresAt = p.now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if old != nil {
		if s.RefreshToken == "" {
			s.RefreshToken = old.RefreshToken
		}
		if s.User.ID == "" {
			s.User = old.User
		}
	}
	return s
}

// current returns a copy of the session, loading the file on first use.
func (p *HTTPProvider) current() (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		s, err := p.readFile()
		if err != nil {
			return nil, err
		}
		p.session, p.loaded = s, true
	}
	if p.session == nil {
		return nil, nil
	}
	cp := *p.session
	return &cp, nil
}

func (p *HTTPProvider) readFile() (*Session, error) {
	if p.fs == nil || p.path == "" {
		return nil, nil
	}
	raw, err := afero.ReadFile(p.fs, p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

// store replaces the session; nil removes it.
func (p *HTTPProvider) store(s *Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loaded = true
	if s == nil {
		p.session = nil
	} else {
		cp := *s
		p.session = &cp
	}

	if p.fs == nil || p.path == "" {
		return nil
	}
	if s == nil {
		if err := p.fs.Remove(p.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := p.fs.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := afero.WriteFile(p.fs, p.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (p *HTTPProvider) emit(evt Event, s *Session) {
	p.mu.Lock()
	subs := make([]*subscriber, 0, len(p.subs))
	for _, sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	for _, sub := range subs {
		var cp *Session
		if s != nil {
			c := *s
			cp = &c
		}
		sub.send(evt, cp)
	}
}
