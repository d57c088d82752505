package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threatconsole/internal/metrics"
	"threatconsole/internal/session"
)

// fakeUpstream serves both APIs from one chi router, like the real backend.
type fakeUpstream struct {
	*httptest.Server
	router   chi.Router
	lastAuth atomic.Value
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{router: chi.NewRouter()}
	f.lastAuth.Store("")
	f.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.lastAuth.Store(r.Header.Get("Authorization"))
			next.ServeHTTP(w, r)
		})
	})
	f.Server = httptest.NewServer(f.router)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeUpstream) auth() string {
	return f.lastAuth.Load().(string)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestGateway(f *fakeUpstream, ttl time.Duration) *Gateway {
	return New(Options{
		UsersURL:   f.URL + "/api/users",
		AIURL:      f.URL + "/api/ai-analysis",
		Timeout:    2 * time.Second,
		AICacheTTL: ttl,
	}, zap.NewNop().Sugar())
}

func TestLogin(t *testing.T) {
	f := newFakeUpstream(t)
	f.router.Post("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok-" + body["email"]})
	})
	conn := newTestGateway(f, 0).Bind(session.NewMemory("stale"), "")

	tok, err := conn.Login(context.Background(), " ann@corp.io ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-ann@corp.io", tok)
	assert.Empty(t, f.auth(), "login must not send a credential")

	_, err = conn.Login(context.Background(), "ann@corp.io", "nope")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", MessageOf(err))
	// the bound holder is not consulted or cleared by a failed login
	_, ok := conn.holder.Get()
	assert.True(t, ok)

	_, err = conn.Login(context.Background(), "", "secret")
	assert.True(t, IsValidation(err))
}

func TestAttachCredential(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	attachCredential(req, nil)
	assert.Empty(t, req.Header.Get("Authorization"))

	attachCredential(req, session.NewMemory(""))
	assert.Empty(t, req.Header.Get("Authorization"))

	h := session.NewMemory("abc")
	attachCredential(req, h)
	attachCredential(req, h)
	assert.Equal(t, []string{"Bearer abc"}, req.Header.Values("Authorization"))
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := newFakeUpstream(t)
	f.router.Get("/api/users/all-users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	})
	h := session.NewMemory("tok")
	conn := newTestGateway(f, 0).Bind(h, "Admin")

	_, err := conn.AllUsers(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Bearer tok", f.auth())

	_, ok := h.Get()
	assert.False(t, ok)
}

func TestForbiddenKeepsSession(t *testing.T) {
	f := newFakeUpstream(t)
	f.router.Get("/api/users/all-logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Admins only"})
	})
	h := session.NewMemory("tok")
	conn := newTestGateway(f, 0).Bind(h, "Manager")

	_, err := conn.AllLogs(context.Background())
	require.Error(t, err)
	assert.True(t, IsForbidden(err))

	tok, ok := h.Get()
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
}

func TestErrorKinds(t *testing.T) {
	f := newFakeUpstream(t)
	f.router.Get("/api/users/flagged-users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	f.router.Get("/api/users/my-logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "db down"})
	})
	f.router.Get("/api/users/behavior-summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	})
	conn := newTestGateway(f, 0).Bind(session.NewMemory("tok"), "")
	ctx := context.Background()

	_, err := conn.FlaggedUsers(ctx)
	assert.True(t, IsNotFound(err))

	_, err = conn.MyLogs(ctx)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindServer, gerr.Kind)
	assert.Equal(t, http.StatusBadGateway, gerr.Status)
	assert.Equal(t, "db down", gerr.Message)
	assert.True(t, gerr.Retryable())

	_, err = conn.BehaviorSummary(ctx)
	assert.Equal(t, KindDecode, KindOf(err))

	_, err = conn.UserLogs(ctx, "   ")
	assert.True(t, IsValidation(err))
}

func TestNetworkError(t *testing.T) {
	f := newFakeUpstream(t)
	g := newTestGateway(f, 0)
	f.Close()

	before := testutil.ToFloat64(metrics.GatewayRequestsTotal.WithLabelValues(APIUsers, "profile", metrics.OutcomeNetwork))
	_, err := g.Bind(session.NewMemory("tok"), "").Profile(context.Background())
	assert.Equal(t, KindNetwork, KindOf(err))
	after := testutil.ToFloat64(metrics.GatewayRequestsTotal.WithLabelValues(APIUsers, "profile", metrics.OutcomeNetwork))
	assert.Equal(t, before+1, after)
}

func TestUserEndpoints(t *testing.T) {
	f := newFakeUpstream(t)
	var blocked, unblocked string
	f.router.Get("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]string{"_id": "u1", "name": "Ann", "email": "ann@corp.io", "role": "Manager"},
		})
	})
	f.router.Get("/api/users/all-users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"u2","name":"Bo","email":"bo@corp.io","role":"Intern","isBlocked":false,
			"riskNotes":["odd hours",{"reason":"bulk download","action":"flagged"}]}]`))
	})
	f.router.Post("/api/users/block/{id}", func(w http.ResponseWriter, r *http.Request) {
		blocked = chi.URLParam(r, "id")
		writeJSON(w, http.StatusOK, map[string]string{"message": "blocked"})
	})
	f.router.Post("/api/users/unblock/{id}", func(w http.ResponseWriter, r *http.Request) {
		unblocked = chi.URLParam(r, "id")
		w.WriteHeader(http.StatusNoContent)
	})
	f.router.Get("/api/users/logs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"l1","action":"LOGIN","ipAddress":"10.0.0.1","userId":"` + chi.URLParam(r, "id") + `"}]`))
	})
	f.router.Post("/api/users/send-weekly-summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"emailSent": true})
	})
	f.router.Get("/api/users/download-files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]float64{"riskScore": 0.42})
	})
	f.router.Post("/api/users/register", func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Role == "Admin" {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "cannot create admins"})
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	conn := newTestGateway(f, 0).Bind(session.NewMemory("tok"), "Manager")
	ctx := context.Background()

	p, err := conn.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Manager", p.Role)

	users, err := conn.AllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Len(t, users[0].RiskNotes, 2)
	assert.Equal(t, "bulk download (flagged)", users[0].RiskNotes[1].String())

	require.NoError(t, conn.Block(ctx, "u2"))
	require.NoError(t, conn.Unblock(ctx, "u 3"))
	assert.Equal(t, "u2", blocked)
	assert.Equal(t, "u 3", unblocked)

	logs, err := conn.UserLogs(ctx, " u9 ")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "u9", logs[0].Subject.ID)

	sent, err := conn.SendWeeklySummary(ctx)
	require.NoError(t, err)
	assert.True(t, sent)

	check, err := conn.CheckDownload(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, check.RiskScore, 1e-9)

	require.NoError(t, conn.Register(ctx, RegisterRequest{Name: "C", Email: "c@corp.io", Password: "secret1", Role: "Intern"}))
	assert.True(t, IsForbidden(conn.Register(ctx, RegisterRequest{Role: "Admin"})))
}

func TestTotalLogsCountShapes(t *testing.T) {
	for _, payload := range []string{`17`, `{"count":17}`, `{"total":17}`, `{"totalLogs":17}`} {
		f := newFakeUpstream(t)
		f.router.Get("/api/users/total-logs-count", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		})
		n, err := newTestGateway(f, 0).Bind(session.NewMemory("tok"), "").TotalLogsCount(context.Background())
		require.NoError(t, err, payload)
		assert.Equal(t, 17, n, payload)
	}
}

func TestStatusFallsBackToMock(t *testing.T) {
	f := newFakeUpstream(t)
	f.router.Get("/api/ai-analysis/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	f.router.Get("/api/ai-analysis/mock-status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"aiConfig":{"thresholds":{"highRisk":0.8},"patterns":["after-hours"]},"lastAnalysis":"2024-05-01T00:00:00Z"}}`))
	})
	conn := newTestGateway(f, time.Minute).Bind(session.NewMemory("tok"), "Admin")

	before := testutil.ToFloat64(metrics.GatewayFallbackTotal.WithLabelValues("status"))
	res, err := conn.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, res.FromFallback())
	assert.Equal(t, "fallback", res.Provenance.String())
	assert.InDelta(t, 0.8, res.Value.AIConfig.Thresholds.HighRisk, 1e-9)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GatewayFallbackTotal.WithLabelValues("status")))
}

func TestInsightsUnauthorizedNotMasked(t *testing.T) {
	f := newFakeUpstream(t)
	var mockHits int32
	f.router.Get("/api/ai-analysis/insights", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.router.Get("/api/ai-analysis/mock-insights", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mockHits, 1)
		w.Write([]byte(`{"success":true,"data":{"totalUsers":3}}`))
	})
	h := session.NewMemory("tok")
	conn := newTestGateway(f, 0).Bind(h, "Admin")

	_, err := conn.Insights(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Zero(t, atomic.LoadInt32(&mockHits))
	_, ok := h.Get()
	assert.False(t, ok)
}

func TestInsightsCachedUntilTrigger(t *testing.T) {
	f := newFakeUpstream(t)
	var hits int32
	f.router.Get("/api/ai-analysis/insights", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"totalUsers": n},
		})
	})
	f.router.Post("/api/ai-analysis/trigger-weekly", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Weekly analysis started"})
	})
	conn := newTestGateway(f, time.Minute).Bind(session.NewMemory("tok"), "Admin")
	ctx := context.Background()

	first, err := conn.Insights(ctx)
	require.NoError(t, err)
	second, err := conn.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Value.TotalUsers)
	assert.Equal(t, 1, second.Value.TotalUsers)

	msg, err := conn.TriggerWeekly(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Weekly analysis started", msg)

	third, err := conn.Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Value.TotalUsers)
}

func TestInsightsCacheNotSharedAcrossCredentials(t *testing.T) {
	f := newFakeUpstream(t)
	var hits int32
	f.router.Get("/api/ai-analysis/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"totalUsers": 3,
				"topRiskUsers": []map[string]interface{}{
					{"name": "Ann", "email": "ann@corp.io", "riskScore": 0.9},
				},
			},
		})
	})
	g := newTestGateway(f, time.Minute)
	ctx := context.Background()

	_, err := g.Bind(session.NewMemory("good"), "Admin").Insights(ctx)
	require.NoError(t, err)
	_, err = g.Bind(session.NewMemory("good"), "Admin").Insights(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	revoked := session.NewMemory("revoked")
	res, err := g.Bind(revoked, "Admin").Insights(ctx)
	assert.True(t, IsUnauthorized(err))
	assert.Zero(t, res.Value.TotalUsers)
	_, ok := revoked.Get()
	assert.False(t, ok)

	_, err = g.Bind(session.NewMemory(""), "Admin").Insights(ctx)
	assert.True(t, IsUnauthorized(err))
}

func TestAnalyzeUser(t *testing.T) {
	f := newFakeUpstream(t)
	var gotRange float64
	f.router.Post("/api/ai-analysis/analyze-user/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]float64
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRange = body["timeRange"]
		if chi.URLParam(r, "id") == "fail" {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "no activity"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"riskScore": 0.91, "analysis": "bulk exfil", "recommendations": []string{"block"}},
		})
	})
	conn := newTestGateway(f, 0).Bind(session.NewMemory("tok"), "Admin")
	ctx := context.Background()

	a, err := conn.AnalyzeUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, float64(7), gotRange)
	assert.InDelta(t, 0.91, a.RiskScore, 1e-9)
	assert.Equal(t, []string{"block"}, a.Recommendations)

	_, err = conn.AnalyzeUser(ctx, "fail")
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, "no activity", MessageOf(err))

	_, err = conn.AnalyzeUser(ctx, "")
	assert.True(t, IsValidation(err))
}
