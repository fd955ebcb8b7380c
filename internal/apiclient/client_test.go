package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quota_portal/internal/apitest"
	"github.com/Skotchmaster/quota_portal/internal/models"
)

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.Quota{QuotaLimit: 3, QuotaUsed: 1, Remaining: 2})
	}))
	defer srv.Close()

	ctx := context.Background()

	_, err := New(srv.URL, StaticToken("tok-1")).GetMyQuota(ctx)
	require.NoError(t, err)
	_, err = New(srv.URL, StaticToken("")).GetMyQuota(ctx)
	require.NoError(t, err)
	_, err = New(srv.URL, nil).GetMyQuota(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer tok-1", "", ""}, gotAuth)
}

func TestClient_TokenSourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer srv.Close()

	failing := tokenFunc(func(context.Context) (string, error) { return "", errors.New("storage down") })
	_, err := New(srv.URL, failing).GetMyRequests(context.Background())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Contains(t, err.Error(), "storage down")
}

func TestClient_ErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Quota exceeded"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).SubmitRequest(context.Background(), models.RequestInput{Title: "a", Description: "b"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Quota exceeded", Message(err, "fallback"))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_ErrorWithoutMessageUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).GetReports(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch", Message(err, "Failed to fetch"))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).GetAllUsers(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "Network error", Message(err, "Network error"))
}

func TestClient_EscapesPathIDs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL+"/api/", nil).DeleteMyRequest(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/api/requests/a%2Fb", gotPath)
}

func TestClient_RequestBodies(t *testing.T) {
	type seen struct {
		method, path string
		body         map[string]any
	}
	var got []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got = append(got, seen{r.Method, r.URL.Path, body})
		_, _ = w.Write([]byte(`{"message":"done"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	ctx := context.Background()

	res, err := c.UpdateUserQuota(ctx, "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Message)

	_, err = c.UpdateRequestStatus(ctx, "r1", models.StatusApproved)
	require.NoError(t, err)

	_, err = c.UpdateMyRequest(ctx, "r2", models.RequestInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, seen{http.MethodPut, "/admin/quota/u1", map[string]any{"quotaLimit": float64(7)}}, got[0])
	assert.Equal(t, seen{http.MethodPut, "/admin/requests/r1", map[string]any{"status": "APPROVED"}}, got[1])
	assert.Equal(t, seen{http.MethodPut, "/requests/r2", map[string]any{"title": "t", "description": "d"}}, got[2])
}

func TestClient_AgainstFakeAPI(t *testing.T) {
	api := apitest.NewServer()
	defer api.Close()

	ctx := context.Background()
	anon := New(api.URL(), nil)

	auth, err := anon.Register(ctx, models.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: models.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)
	assert.Equal(t, models.RoleUser, auth.User.Role)

	_, err = anon.Register(ctx, models.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: models.RoleUser})
	assert.Equal(t, "User already exists", Message(err, ""))

	_, err = anon.Login(ctx, models.LoginInput{Email: "ann@example.com", Password: "wrong"})
	assert.True(t, IsUnauthorized(err))

	login, err := anon.Login(ctx, models.LoginInput{Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	user := anon.WithTokens(StaticToken(login.Token))
	quota, err := user.GetMyQuota(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Quota{QuotaLimit: apitest.DefaultQuota, QuotaUsed: 0, Remaining: apitest.DefaultQuota}, *quota)

	_, err = user.SubmitRequest(ctx, models.RequestInput{Title: "GPU", Description: "one hour"})
	require.NoError(t, err)

	reqs, err := user.GetMyRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.StatusPending, reqs[0].Status)

	_, err = user.DeleteMyRequest(ctx, reqs[0].ID)
	require.NoError(t, err)
	quota, err = user.GetMyQuota(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, quota.QuotaUsed)

	_, err = user.GetAllUsers(ctx)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	_, err = anon.GetMyQuota(ctx)
	assert.True(t, IsUnauthorized(err))
}

type tokenFunc func(context.Context) (string, error)

func (f tokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

func TestClient_TimeoutDoesNotMutateSharedHTTPClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	a := New("http://a", nil, WithHTTPClient(shared), WithTimeout(2*time.Second))
	b := New("http://b", nil, WithTimeout(3*time.Second), WithHTTPClient(shared))

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 2*time.Second, a.httpClient.Timeout)
	assert.Equal(t, 3*time.Second, b.httpClient.Timeout)
	assert.NotSame(t, shared, a.httpClient)
	assert.NotSame(t, a.httpClient, b.httpClient)

	c := New("http://c", nil, WithHTTPClient(shared))
	assert.Same(t, shared, c.httpClient)
}

func TestClient_NilHTTPClientFallsBackToDefault(t *testing.T) {
	var c *Client
	require.NotPanics(t, func() {
		c = New("http://a", nil, WithHTTPClient(nil), WithTimeout(time.Second))
	})
	require.NotNil(t, c.httpClient)
	assert.Equal(t, time.Second, c.httpClient.Timeout)

	c = New("http://a", nil, WithHTTPClient(nil))
	require.NotNil(t, c.httpClient)
	assert.Equal(t, 15*time.Second, c.httpClient.Timeout)
}
