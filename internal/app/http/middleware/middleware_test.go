package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"membership-app/config"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/rolestore"
	"membership-app/internal/infra/tokens"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, userID uint, accountRole string) (string, *tokens.Claims) {
	t.Helper()
	config.JWT_SECRET = "middleware-test-secret"
	s, claims, err := tokens.Issue([]byte(config.JWT_SECRET), userID, "u@example.com", accountRole, time.Now(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return s, claims
}

func do(r *gin.Engine, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	token, claims := issue(t, 5, users.AccountMember)
	revoked, revokedClaims := issue(t, 5, users.AccountMember)

	rev := tokens.NewMemoryRevocations()
	_ = rev.Revoke(context.Background(), revokedClaims.ID, time.Hour)

	r := gin.New()
	r.GET("/private", AuthMiddleware(rev), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(KeyUserID), "jti": c.GetString(KeyTokenID)})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token " + token, http.StatusUnauthorized},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && !strings.Contains(w.Body.String(), claims.ID) {
				t.Errorf("jti not exposed in context: %s", w.Body.String())
			}
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	config.JWT_SECRET = "middleware-test-secret"
	r := gin.New()
	r.GET("/open", OptionalAuth(nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(KeyUserID)})
	})

	if w := do(r, http.MethodGet, "/open", "", nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/open", "broken", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}
}

type fakeRoleStore struct {
	roles  map[string]roles.UserRole
	until  map[string]time.Time
	now    time.Time
	getErr error
	sets   int
}

func (f *fakeRoleStore) Get(_ context.Context, subject string) (roles.UserRole, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	r, ok := f.roles[subject]
	if !ok {
		return "", rolestore.ErrNoRole
	}
	if exp := f.until[subject]; !exp.IsZero() && !f.clock().Before(exp) {
		return "", rolestore.ErrNoRole
	}
	return r, nil
}

func (f *fakeRoleStore) SetUntil(_ context.Context, subject string, role roles.UserRole, until time.Time) error {
	f.sets++
	f.roles[subject] = role
	if f.until == nil {
		f.until = make(map[string]time.Time)
	}
	f.until[subject] = until
	return nil
}

func (f *fakeRoleStore) clock() time.Time {
	if f.now.IsZero() {
		return time.Now()
	}
	return f.now
}

func roleRouter(store RoleStore, load UserLoader, perm roles.Permission) *gin.Engine {
	r := gin.New()
	r.GET("/feature", OptionalAuth(nil), CurrentRole(store, load), RequirePermission(perm), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": RoleFrom(c)})
	})
	return r
}

func TestCurrentRoleFromStore(t *testing.T) {
	token, _ := issue(t, 9, users.AccountMember)
	store := &fakeRoleStore{roles: map[string]roles.UserRole{users.SubjectFor(9): roles.Annual}}
	load := func(context.Context, uint) (users.User, error) {
		t.Fatal("loader should not be called when the store has a role")
		return users.User{}, nil
	}

	r := roleRouter(store, load, roles.PermBookSessions)
	w := do(r, http.MethodGet, "/feature", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if store.sets != 0 {
		t.Errorf("unexpected writes: %d", store.sets)
	}
}

func TestCurrentRoleDerivesAndStores(t *testing.T) {
	token, _ := issue(t, 3, users.AccountMember)
	store := &fakeRoleStore{roles: map[string]roles.UserRole{}}
	trialEnd := time.Now().Add(48 * time.Hour)
	load := func(_ context.Context, id uint) (users.User, error) {
		return users.User{ID: id, Role: users.AccountMember, TrialEndAt: &trialEnd}, nil
	}

	r := roleRouter(store, load, roles.PermExpertSessions)
	w := do(r, http.MethodGet, "/feature", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := store.roles[users.SubjectFor(3)]; got != roles.Trial {
		t.Errorf("stored role = %q, want trial", got)
	}
	if got := store.until[users.SubjectFor(3)]; !got.Equal(trialEnd) {
		t.Errorf("stored until = %v, want trial end %v", got, trialEnd)
	}
}

func TestCurrentRoleRederivesAfterTrialEnds(t *testing.T) {
	token, _ := issue(t, 5, users.AccountMember)
	subject := users.SubjectFor(5)
	trialEnd := time.Now().Add(-time.Hour)
	store := &fakeRoleStore{
		roles: map[string]roles.UserRole{subject: roles.Trial},
		until: map[string]time.Time{subject: trialEnd},
	}
	load := func(_ context.Context, id uint) (users.User, error) {
		return users.User{ID: id, Role: users.AccountMember, TrialEndAt: &trialEnd}, nil
	}

	tests := []struct {
		name string
		perm roles.Permission
		want int
	}{
		{"start here stays open", roles.PermIntroVideos, http.StatusOK},
		{"trial perks are gone", roles.PermExpertSessions, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(roleRouter(store, load, tt.perm), http.MethodGet, "/feature", token, nil)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.want, w.Body.String())
			}
			if got := store.roles[subject]; got != roles.Free {
				t.Errorf("stored role = %q, want free", got)
			}
			if got := store.until[subject]; !got.IsZero() {
				t.Errorf("free role stored with expiry %v", got)
			}
		})
	}
}

func TestCurrentRoleUnknownUser(t *testing.T) {
	token, _ := issue(t, 4, users.AccountMember)
	store := &fakeRoleStore{roles: map[string]roles.UserRole{}, getErr: errors.New("redis down")}
	load := func(context.Context, uint) (users.User, error) {
		return users.User{}, errors.New("record not found")
	}

	w := do(roleRouter(store, load, roles.PermIntroVideos), http.MethodGet, "/feature", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequirePermissionDeniesGuestAndLowerRoles(t *testing.T) {
	store := &fakeRoleStore{roles: map[string]roles.UserRole{users.SubjectFor(2): roles.Monthly}}
	load := func(context.Context, uint) (users.User, error) { return users.User{}, nil }
	r := roleRouter(store, load, roles.PermBookSessions)

	if w := do(r, http.MethodGet, "/feature", "", nil); w.Code != http.StatusForbidden {
		t.Errorf("guest status = %d, want 403", w.Code)
	}

	token, _ := issue(t, 2, users.AccountMember)
	w := do(r, http.MethodGet, "/feature", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("monthly status = %d, want 403", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["permission"] != string(roles.PermBookSessions) || body["role"] != "monthly" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRequireRole(t *testing.T) {
	member, _ := issue(t, 1, users.AccountMember)
	admin, _ := issue(t, 1, users.AccountAdmin)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(nil), RequireRole(users.AccountAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	if w := do(r, http.MethodGet, "/admin", member, nil); w.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", w.Code)
	}
	if w := do(r, http.MethodGet, "/admin", admin, nil); w.Code != http.StatusNoContent {
		t.Errorf("admin status = %d, want 204", w.Code)
	}
}

type fakeAllower struct {
	allowed int
	err     error
	keys    []string
}

func (f *fakeAllower) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	if f.allowed > 0 {
		f.allowed--
		return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: f.allowed}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 30 * time.Second}, nil
}

func TestRateLimit(t *testing.T) {
	l := &fakeAllower{allowed: 1}
	r := gin.New()
	r.POST("/login", RateLimit(l, "login", redis_rate.PerMinute(1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if w := do(r, http.MethodPost, "/login", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w := do(r, http.MethodPost, "/login", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if !strings.HasPrefix(l.keys[0], "ratelimit:login:") {
		t.Errorf("key = %q", l.keys[0])
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	l := &fakeAllower{err: errors.New("redis down")}
	r := gin.New()
	r.POST("/login", RateLimit(l, "login", redis_rate.PerMinute(1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	if w := do(r, http.MethodPost, "/login", "", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestSanitizeStripsMarkupRecursively(t *testing.T) {
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", b)
	})

	body := `{"name":"<b>Ada</b>","tags":["<script>x</script>ok"],"meta":{"bio":"<i>hi</i>"},"n":3}`
	w := do(r, http.MethodPost, "/echo", "", strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var got struct {
		Name string            `json:"name"`
		Tags []string          `json:"tags"`
		Meta map[string]string `json:"meta"`
		N    int               `json:"n"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Ada" || got.Tags[0] != "ok" || got.Meta["bio"] != "hi" || got.N != 3 {
		t.Errorf("unexpected sanitized body %+v", got)
	}

	if w := do(r, http.MethodPost, "/echo", "", strings.NewReader("{oops")); w.Code != http.StatusBadRequest {
		t.Errorf("malformed status = %d, want 400", w.Code)
	}
}
