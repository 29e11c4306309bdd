package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/habit-tracker/internal/config"
	"github.com/habit-tracker/internal/models"
	"github.com/habit-tracker/internal/repository"
	"github.com/habit-tracker/internal/router"
	"github.com/habit-tracker/internal/service"
	"github.com/habit-tracker/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeLimiter allows a fixed number of attempts per key
type fakeLimiter struct {
	max      int
	attempts map[string]int
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.attempts[key]++
	return f.attempts[key] <= f.max, nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	delete(f.attempts, key)
	return nil
}

func (f *fakeLimiter) Current(_ context.Context, key string) (int, error) {
	return f.attempts[key], nil
}

type testApp struct {
	engine *gin.Engine
	db     *gorm.DB
	logs   *test.Hook
}

func newTestApp(t *testing.T, limiter *fakeLimiter) *testApp {
	return newTestAppWithSession(t, limiter, config.SessionConfig{})
}

// newTestAppWithSession builds the app with overrides of the session settings
func newTestAppWithSession(t *testing.T, limiter *fakeLimiter, sessionCfg config.SessionConfig) *testApp {
	t.Helper()
	sessionCfg.Secret = "test-secret"
	sessionCfg.CookieName = "habit_session"
	sessionCfg.TTLHours = 1
	cfg := &config.Config{Session: sessionCfg}

	db, err := repository.Open(config.DatabaseConfig{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, logger.Discard)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	habitRepo := repository.NewHabitRepository(db)
	checkRepo := repository.NewCheckRepository(db)
	sessions := session.NewManager(session.NewMemoryStore(), cfg.Session.Secret, cfg.Session.SessionTTL())
	log, hook := test.NewNullLogger()

	deps := router.Deps{
		Config:          cfg,
		Logger:          log,
		AuthService:     service.NewAuthService(repository.NewUserRepository(db), sessions),
		HabitService:    service.NewHabitService(habitRepo, checkRepo, time.Local),
		ProgressService: service.NewProgressService(habitRepo, checkRepo, time.Local),
	}
	if limiter != nil {
		deps.LoginLimiter = limiter
	}
	return &testApp{engine: router.New(deps), db: db, logs: hook}
}

// client is a browser stand-in that keeps cookies between requests
type client struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.app.engine.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form)
}

// expectRedirect asserts a 303 to location and returns the page rendered there
func (c *client) expectRedirect(w *httptest.ResponseRecorder, location string) string {
	c.t.Helper()
	require.Equal(c.t, http.StatusSeeOther, w.Code, w.Body.String())
	require.Equal(c.t, location, w.Header().Get("Location"))
	next := c.get(location)
	require.Equal(c.t, http.StatusOK, next.Code)
	return next.Body.String()
}

func (c *client) register(username, password string) *httptest.ResponseRecorder {
	return c.post("/register", url.Values{"username": {username}, "password": {password}})
}

func (c *client) login(username, password string) *httptest.ResponseRecorder {
	return c.post("/login", url.Values{"username": {username}, "password": {password}})
}

func (c *client) signUp(username string) {
	c.t.Helper()
	c.expectRedirect(c.register(username, "pw-"+username), "/login")
	w := c.login(username, "pw-"+username)
	require.Equal(c.t, http.StatusSeeOther, w.Code)
	require.Equal(c.t, "/dashboard", w.Header().Get("Location"))
}

func (a *testApp) habitID(t *testing.T, name string) uint {
	t.Helper()
	var habit models.Habit
	require.NoError(t, a.db.Where("name = ?", name).First(&habit).Error)
	return habit.ID
}

func (a *testApp) checkCount(t *testing.T, habitID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, a.db.Model(&models.HabitCheck{}).Where("habit_id = ?", habitID).Count(&count).Error)
	return count
}

func TestLandingPage(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	w := c.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Build habits one day at a time")
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	page := c.expectRedirect(c.register("alice", "secret"), "/login")
	assert.Contains(t, page, "Registered! Please login.")

	page = c.expectRedirect(c.register("alice", "other"), "/register")
	assert.Contains(t, page, "Username already taken")

	page = c.expectRedirect(c.register("  ", "secret"), "/register")
	assert.Contains(t, page, "Please provide username and password")

	page = c.expectRedirect(c.login("alice", "wrong"), "/login")
	assert.Contains(t, page, "Invalid credentials")
	assert.NotContains(t, c.cookies, "habit_session")

	w := c.login("alice", "secret")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	require.Contains(t, c.cookies, "habit_session")
	assert.True(t, c.cookies["habit_session"].HttpOnly)
	assert.InDelta(t, 3600, c.cookies["habit_session"].MaxAge, 5, "cookie lives as long as the session")

	w = c.get("/")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/dashboard"},
		{http.MethodPost, "/dashboard"},
		{http.MethodGet, "/logout"},
		{http.MethodPost, "/habit/1/mark"},
		{http.MethodPost, "/habit/1/delete"},
		{http.MethodGet, "/habit/1/progress"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := c.do(tc.method, tc.path, nil)
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/login", w.Header().Get("Location"))
		})
	}
}

func TestHabitLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	c.signUp("alice")

	page := c.expectRedirect(c.post("/dashboard", url.Values{"name": {"Read"}, "goal": {"20 pages"}}), "/dashboard")
	assert.Contains(t, page, "Habit added")
	assert.Contains(t, page, "Read")
	assert.Contains(t, page, "20 pages")
	assert.Contains(t, page, "Streak: 0 day(s)")

	w := c.post("/dashboard", url.Values{"name": {"   "}})
	page = c.expectRedirect(w, "/dashboard")
	assert.NotContains(t, page, "Habit added")

	id := app.habitID(t, "Read")
	markPath := fmt.Sprintf("/habit/%d/mark", id)

	page = c.expectRedirect(c.post(markPath, nil), "/dashboard")
	assert.Contains(t, page, "Marked as done for today!")
	assert.Contains(t, page, "Streak: 1 day(s)")

	page = c.expectRedirect(c.post(markPath, nil), "/dashboard")
	assert.Contains(t, page, "Already marked today")
	assert.Equal(t, int64(1), app.checkCount(t, id))

	w = c.get(fmt.Sprintf("/habit/%d/progress", id))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))

	page = c.expectRedirect(c.post(fmt.Sprintf("/habit/%d/delete", id), nil), "/dashboard")
	assert.Contains(t, page, "Habit deleted")
	assert.Equal(t, int64(0), app.checkCount(t, id))
	assert.Contains(t, page, "No habits yet")
}

func TestOtherUsersCannotTouchHabit(t *testing.T) {
	app := newTestApp(t, nil)
	alice := app.client(t)
	alice.signUp("alice")
	alice.expectRedirect(alice.post("/dashboard", url.Values{"name": {"Read"}}), "/dashboard")
	id := app.habitID(t, "Read")
	alice.expectRedirect(alice.post(fmt.Sprintf("/habit/%d/mark", id), nil), "/dashboard")

	mallory := app.client(t)
	mallory.signUp("mallory")

	page := mallory.expectRedirect(mallory.post(fmt.Sprintf("/habit/%d/delete", id), nil), "/dashboard")
	assert.Contains(t, page, "Not allowed")

	page = mallory.expectRedirect(mallory.post(fmt.Sprintf("/habit/%d/mark", id), nil), "/dashboard")
	assert.Contains(t, page, "Not allowed")

	w := mallory.get(fmt.Sprintf("/habit/%d/progress", id))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	assert.Equal(t, id, app.habitID(t, "Read"))
	assert.Equal(t, int64(1), app.checkCount(t, id))
}

func TestUnknownHabit(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	c.signUp("alice")

	page := c.expectRedirect(c.post("/habit/999/mark", nil), "/dashboard")
	assert.Contains(t, page, "Habit not found")

	page = c.expectRedirect(c.post("/habit/abc/delete", nil), "/dashboard")
	assert.Contains(t, page, "Habit not found")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)
	c.signUp("alice")
	token := c.cookies["habit_session"]

	w := c.get("/logout")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotContains(t, c.cookies, "habit_session")

	// replaying the old cookie does not bring the session back
	c.cookies["habit_session"] = token
	w = c.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLoginThrottling(t *testing.T) {
	limiter := &fakeLimiter{max: 2, attempts: make(map[string]int)}
	app := newTestApp(t, limiter)
	c := app.client(t)
	c.expectRedirect(c.register("alice", "secret"), "/login")

	c.expectRedirect(c.login("alice", "wrong"), "/login")
	c.expectRedirect(c.login("alice", "wrong"), "/login")

	page := c.expectRedirect(c.login("alice", "secret"), "/login")
	assert.Contains(t, page, "Too many login attempts")
	assert.NotContains(t, c.cookies, "habit_session")

	var throttled *logrus.Entry
	for _, e := range app.logs.AllEntries() {
		if e.Message == "Login throttled" {
			throttled = e
		}
	}
	require.NotNil(t, throttled)
	assert.Equal(t, logrus.WarnLevel, throttled.Level)
	assert.Equal(t, 3, throttled.Data["attempts"])
	assert.Equal(t, "alice", throttled.Data["username"])
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	app := newTestApp(t, nil)
	c := app.client(t)

	page := c.expectRedirect(c.register("alice", strings.Repeat("p", 80)), "/register")
	assert.Contains(t, page, "Password is too long")

	var count int64
	require.NoError(t, app.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	c.expectRedirect(c.register("alice", strings.Repeat("p", 72)), "/login")
}

func TestSecureSessionSettingAppliesToAllCookies(t *testing.T) {
	app := newTestAppWithSession(t, nil, config.SessionConfig{Secure: true})
	c := app.client(t)

	w := c.register("alice", "secret")
	require.Equal(t, http.StatusSeeOther, w.Code)
	notice := findCookie(w, "notice")
	require.NotNil(t, notice)
	assert.True(t, notice.Secure)

	w = c.login("alice", "secret")
	sessionCookie := findCookie(w, "habit_session")
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.Secure)

	// a stale session cookie is cleared with the same attributes
	stale := c.cookies["habit_session"]
	c.get("/logout")
	c.cookies["habit_session"] = stale
	w = c.get("/")
	cleared := findCookie(w, "habit_session")
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
	assert.True(t, cleared.Secure)
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)
	w := app.client(t).get("/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"success"`)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
