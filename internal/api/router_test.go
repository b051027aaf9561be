package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/auth"
	"github.com/isdelr/teamkb-be/internal/database"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/search"
	"github.com/isdelr/teamkb-be/internal/services"
	"github.com/isdelr/teamkb-be/internal/store/sqlstore"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	st := sqlstore.New(db)
	t.Cleanup(func() { st.Close() })

	events := services.NewEventService(st)
	router := NewRouter(Deps{
		Users:       services.NewUserService(st),
		Teams:       services.NewTeamService(st, st, events),
		Articles:    services.NewArticleService(st, access.NewResolver(st), search.NewSubstringMatcher(st), events),
		Events:      events,
		Issuer:      auth.NewIssuer("test-secret", time.Hour),
		DB:          st,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

// do sends a JSON request and decodes a JSON response into out when given.
func (s *testServer) do(method, path, token string, body interface{}, out interface{}) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	var session sessionBody
	status := s.do(http.MethodPost, "/api/register", "", map[string]string{"username": username, "password": "password"}, &session)
	require.Equal(s.t, http.StatusCreated, status)
	require.NotEmpty(s.t, session.Token)
	return session.Token
}

type sessionBody struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type errorBody struct {
	Message string `json:"message"`
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")

	var body errorBody
	status := s.do(http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "password"}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body.Message)

	var session sessionBody
	status = s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "password"}, &session)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", session.User.Username)

	status = s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "nope-nope"}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)

	var me models.User
	status = s.do(http.MethodGet, "/api/user", token, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", me.Username)

	status = s.do(http.MethodGet, "/api/user", "", nil, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginSetsCookie(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	resp, err := s.srv.Client().Post(s.srv.URL+"/api/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"password"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/api/user", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	me, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)
}

func TestTeamMembershipScenario(t *testing.T) {
	s := newTestServer(t)
	a := s.register("A")
	b := s.register("B")

	var body errorBody
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/teams", a, map[string]string{"name": ""}, &body))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/teams", "", map[string]string{"name": "Eng"}, &body))

	var eng models.Team
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/teams", a, map[string]string{"name": "Eng"}, &eng))

	var teams []models.TeamWithRole
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/teams", a, nil, &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, models.RoleOwner, teams[0].Role)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/teams", "", nil, &body))

	var article models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/articles", a,
		map[string]interface{}{"title": "Runbook", "content": "steps", "teamId": eng.ID}, &article))
	teamID, ok := article.Team.TeamID()
	require.True(t, ok)
	assert.Equal(t, eng.ID, teamID)

	status := s.do(http.MethodGet, "/api/articles?teamId="+eng.ID, b, nil, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotEmpty(t, body.Message)

	members := "/api/teams/" + eng.ID + "/members"
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, members, b, map[string]string{"username": "B"}, &body))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, members, a, map[string]string{"username": "nobody"}, &body))

	var membership models.TeamMembership
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, members, a, map[string]string{"username": "B"}, &membership))
	assert.Equal(t, models.RoleMember, membership.Role)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, members, a, map[string]string{"username": "B"}, &body))

	var list []models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles?teamId="+eng.ID, b, nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, article.ID, list[0].ID)
}

func TestArticleRoutes(t *testing.T) {
	s := newTestServer(t)
	a := s.register("A")
	b := s.register("B")

	var body errorBody
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/articles", "", map[string]string{"title": "t", "content": "c"}, &body))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/articles", a, map[string]string{"title": "t"}, &body))
	assert.Equal(t, "Title and content are required", body.Message)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/articles", a,
		map[string]string{"title": "t", "content": "c", "teamId": "not-mine"}, &body))

	var created models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/articles", a,
		map[string]interface{}{"title": "Kafka", "content": "Tuning", "metadata": map[string]string{"category": "ops"}}, &created))
	assert.True(t, created.Team.IsPersonal())
	assert.Equal(t, "ops", created.Metadata.Category())

	var got models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles/"+created.ID, a, nil, &got))
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/articles/"+created.ID, b, nil, &body))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/articles/"+created.ID, "", nil, &body))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/articles/missing", a, nil, &body))

	var list []models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles", "", nil, &list))
	assert.Empty(t, list)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles?category=ops", a, nil, &list))
	assert.Len(t, list, 1)

	var updated models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/articles/"+created.ID, a,
		map[string]string{"title": "Kafka v2", "content": "Tuning"}, &updated))
	assert.Equal(t, "Kafka v2", updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/api/articles/missing", a,
		map[string]string{"title": "t", "content": "c"}, &body))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/articles/"+created.ID, a,
		map[string]string{"title": "t"}, &body))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPut, "/api/articles/"+created.ID, "",
		map[string]string{"title": "t", "content": "c"}, &body))

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodDelete, "/api/articles/"+created.ID, "", nil, &body))
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/articles/"+created.ID, a, nil, nil))
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/articles/"+created.ID, a, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/articles/"+created.ID, a, nil, &body))
}

func TestSearchRoute(t *testing.T) {
	s := newTestServer(t)
	a := s.register("A")

	for i := 0; i < 7; i++ {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/articles", a,
			map[string]string{"title": "Kafka note", "content": "body"}, nil))
	}

	var body errorBody
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/articles/search", a, nil, &body))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/articles/search?q=%20%20", "", nil, &body))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/articles/search?q=kafka&teamId=other", a, nil, &body))

	var results []models.Article
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles/search?q=KAFKA", a, nil, &results))
	assert.Len(t, results, search.MaxResults)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles/search?q=xyz-no-match", a, nil, &results))
	assert.NotNil(t, results)
	assert.Empty(t, results)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/articles/search?q=kafka", "", nil, &results))
	assert.Empty(t, results)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	a := s.register("A")

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/articles", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+a)
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid request body", body.Message)
}

func TestAnonymousWritesRejectedBeforeBodyDecode(t *testing.T) {
	s := newTestServer(t)
	a := s.register("A")
	var team models.Team
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/teams", a, map[string]string{"name": "Core"}, &team))
	var article models.Article
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/articles", a,
		map[string]string{"title": "T", "content": "C"}, &article))

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create article with malformed body", http.MethodPost, "/api/articles", "{not json"},
		{"update article with empty body", http.MethodPut, "/api/articles/" + article.ID, ""},
		{"create team with malformed body", http.MethodPost, "/api/teams", "{not json"},
		{"add member with malformed body", http.MethodPost, "/api/teams/" + team.ID + "/members", "{not json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, s.srv.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := s.srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "Authentication required", body.Message)
		})
	}
}

func TestEventsRoute(t *testing.T) {
	s := newTestServer(t)
	a := s.register("A")
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/articles", a,
		map[string]string{"title": "t", "content": "c"}, nil))

	var events []models.Event
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/events?limit=5", a, nil, &events))
	require.Len(t, events, 1)
	assert.Equal(t, models.EventArticleCreate, events[0].Type)

	var body errorBody
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/events", "", nil, &body))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := s.srv.Client().Get(s.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "kb_api_http_requests_total")
}
