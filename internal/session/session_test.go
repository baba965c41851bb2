package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return &Manager{
		Secret:  "test-secret",
		TTL:     time.Hour,
		Revoker: store.SQLRevoker{DB: db.NewTestDB(t)},
	}
}

var ana = &model.User{ID: 7, Name: "Ana Novak", StudentID: "12345678901", Role: model.RoleStudent}

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestIssueThenLoad(t *testing.T) {
	m := newManager(t)

	w := httptest.NewRecorder()
	token, err := m.Issue(w, ana)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims := m.Load(requestWithCookies(cookies))
	require.NotNil(t, claims)
	id := claims.Identity()
	assert.Equal(t, "Ana Novak", id.Name)
	assert.Equal(t, model.RoleStudent, id.Role)
	assert.Equal(t, "12345678901", id.StudentID)
}

func TestLoadBearerToken(t *testing.T) {
	m := newManager(t)
	token, err := m.Issue(httptest.NewRecorder(), ana)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	assert.NotNil(t, m.Load(r))
}

func TestLoadSwallowsBadTokens(t *testing.T) {
	m := newManager(t)
	other := &Manager{Secret: "other-secret"}
	foreign, err := other.Issue(httptest.NewRecorder(), ana)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong signature", foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := requestWithCookies([]*http.Cookie{{Name: CookieName, Value: tt.value}})
			assert.Nil(t, m.Load(r))
		})
	}

	assert.Nil(t, m.Load(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestClearRevokesToken(t *testing.T) {
	m := newManager(t)
	w := httptest.NewRecorder()
	_, err := m.Issue(w, ana)
	require.NoError(t, err)
	cookies := w.Result().Cookies()

	cleared := httptest.NewRecorder()
	m.Clear(cleared, requestWithCookies(cookies))

	out := cleared.Result().Cookies()
	require.Len(t, out, 1)
	assert.Equal(t, -1, out[0].MaxAge)

	// The old cookie no longer loads.
	assert.Nil(t, m.Load(requestWithCookies(cookies)))
}

func TestClearWithoutSession(t *testing.T) {
	m := newManager(t)
	w := httptest.NewRecorder()
	m.Clear(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Len(t, w.Result().Cookies(), 1)
}

type failingRevoker struct{}

func (failingRevoker) Revoke(context.Context, string, time.Time) error { return errors.New("down") }
func (failingRevoker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func TestLoadFailsClosedOnRevokerError(t *testing.T) {
	m := &Manager{Secret: "s", Revoker: failingRevoker{}}
	w := httptest.NewRecorder()
	_, err := m.Issue(w, ana)
	require.NoError(t, err)

	assert.Nil(t, m.Load(requestWithCookies(w.Result().Cookies())))
}

type userTable map[int64]*model.User

func (u userTable) User(_ context.Context, id int64) (*model.User, error) {
	return u[id], nil
}

func TestLoadTakesRoleFromAccount(t *testing.T) {
	admin := &model.User{ID: 8, Name: "Site Admin", StudentID: "00000000001", Role: model.RoleAdmin}
	users := userTable{8: admin}
	m := &Manager{Secret: "s", Users: users}

	w := httptest.NewRecorder()
	_, err := m.Issue(w, admin)
	require.NoError(t, err)
	cookies := w.Result().Cookies()

	claims := m.Load(requestWithCookies(cookies))
	require.NotNil(t, claims)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	users[8] = &model.User{ID: 8, Name: "Site Admin", StudentID: "00000000001", Role: model.RoleStudent}
	claims = m.Load(requestWithCookies(cookies))
	require.NotNil(t, claims)
	assert.Equal(t, model.RoleStudent, claims.Role, "a demoted account keeps its session but not its role")

	deleted := time.Now()
	users[8].DeletedAt = &deleted
	assert.Nil(t, m.Load(requestWithCookies(cookies)))

	delete(users, 8)
	assert.Nil(t, m.Load(requestWithCookies(cookies)))
}

func TestMiddlewarePutsIdentityInContext(t *testing.T) {
	m := newManager(t)
	w := httptest.NewRecorder()
	_, err := m.Issue(w, ana)
	require.NoError(t, err)

	var got *model.Identity
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Identity(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), requestWithCookies(w.Result().Cookies()))
	require.NotNil(t, got)
	assert.Equal(t, "Ana Novak", got.Name)

	got = &model.Identity{}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, got)
}

func TestRedisRevokerUnreachable(t *testing.T) {
	r := NewRedisRevoker("127.0.0.1:1")
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := r.IsRevoked(ctx, "jti")
	assert.Error(t, err)
	assert.NoError(t, r.Revoke(ctx, "jti", time.Now().Add(-time.Minute)), "expired tokens need no revocation")
}
