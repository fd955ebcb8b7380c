// Package apitest is an in-memory stand-in for the remote quota API. It
// follows the REST contract the portal consumes and is meant for tests and
// local development only.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/quota_portal/internal/hash"
	"github.com/Skotchmaster/quota_portal/internal/models"
)

const (
	DefaultQuota   = 5
	recentRequests = 5
	ctxUserID      = "user_id"
)

type account struct {
	user         models.User
	passwordHash string
}

type request struct {
	models.Request
	ownerID string
}

type Server struct {
	mu       sync.Mutex
	secret   []byte
	accounts map[string]*account
	byEmail  map[string]string
	requests map[string]*request
	revoked  map[string]bool
	calls    map[string]int
	failures map[string]int
	now      func() time.Time

	srv *httptest.Server
}

// NewServer starts the fake API. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		secret:   []byte("apitest-secret"),
		accounts: map[string]*account{},
		byEmail:  map[string]string{},
		requests: map[string]*request{},
		revoked:  map[string]bool{},
		calls:    map[string]int{},
		failures: map[string]int{},
		now:      time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

// URL is the API base URL, matching the "/api" prefix of the real backend.
func (s *Server) URL() string { return s.srv.URL + "/api" }

func (s *Server) Close() { s.srv.Close() }

// Calls reports how many times method+path was hit, e.g. "DELETE /api/requests/:id".
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+route]
}

// TotalCalls reports every request the server has seen.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.calls {
		n += v
	}
	return n
}

// Revoke makes token fail with 401 from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Fail makes method+route answer with status from now on.
func (s *Server) Fail(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+route] = status
}

// SeedUser creates an account directly and returns a valid token for it.
func (s *Server) SeedUser(name, email, password string, role models.Role, quotaLimit int) (string, models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.addAccountLocked(name, email, password, role, quotaLimit)
	if err != nil {
		panic(err)
	}
	token, err := createAccessToken(s.secret, role, acc.user.ID, s.now().Add(time.Hour))
	if err != nil {
		panic(err)
	}
	return token, acc.user
}

// User returns the current state of an account.
func (s *Server) User(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return acc.user, true
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(s.countCalls)

	api := e.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	user := api.Group("", s.requireAuth, s.requireRole(models.RoleUser))
	user.POST("/requests", s.submitRequest)
	user.GET("/requests/me", s.myRequests)
	user.GET("/quota/me", s.myQuota)
	user.PUT("/requests/:id", s.updateRequest)
	user.DELETE("/requests/:id", s.deleteRequest)

	admin := api.Group("/admin", s.requireAuth, s.requireRole(models.RoleAdmin))
	admin.GET("/users", s.listUsers)
	admin.PUT("/quota/:id", s.updateQuota)
	admin.GET("/requests", s.listRequests)
	admin.PUT("/requests/:id", s.updateStatus)
	admin.GET("/reports", s.reports)

	return e
}

func (s *Server) countCalls(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Path()
		s.mu.Lock()
		s.calls[key]++
		status := s.failures[key]
		s.mu.Unlock()
		if status != 0 {
			return echo.NewHTTPError(status, http.StatusText(status))
		}
		return next(c)
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
		}
		claims, err := accessClaimsFromToken(token, s.secret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
		}

		s.mu.Lock()
		revoked := s.revoked[token]
		_, exists := s.accounts[claims.Subject]
		s.mu.Unlock()
		if revoked || !exists {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set("role", claims.Role)
		return next(c)
	}
}

func (s *Server) requireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r, _ := c.Get("role").(models.Role); r != role {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}

func (s *Server) register(c echo.Context) error {
	var in models.RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || len(in.Password) < 6 || !in.Role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide name, email, a password of at least 6 characters and a valid role")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.addAccountLocked(in.Name, in.Email, in.Password, in.Role, DefaultQuota)
	if err != nil {
		return err
	}
	return s.authResponseLocked(c, http.StatusCreated, acc)
}

func (s *Server) login(c echo.Context) error {
	var in models.LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(in.Email))]
	if !ok || !hash.CheckPassword(s.accounts[id].passwordHash, in.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	return s.authResponseLocked(c, http.StatusOK, s.accounts[id])
}

func (s *Server) submitRequest(c echo.Context) error {
	var in models.RequestInput
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title and description are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[c.Get(ctxUserID).(string)]
	if acc.user.Remaining() <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Quota exceeded. You cannot submit more requests.")
	}
	acc.user.QuotaUsed++

	r := &request{
		Request: models.Request{
			ID:          newID(),
			Title:       in.Title,
			Description: in.Description,
			Status:      models.StatusPending,
			CreatedAt:   s.now().UTC(),
		},
		ownerID: acc.user.ID,
	}
	s.requests[r.ID] = r
	return c.JSON(http.StatusCreated, models.MessageResponse{Message: "Request submitted successfully"})
}

func (s *Server) myRequests(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := c.Get(ctxUserID).(string)
	out := []models.Request{}
	for _, r := range s.sortedRequestsLocked() {
		if r.ownerID == uid {
			out = append(out, r.Request)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) myQuota(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.accounts[c.Get(ctxUserID).(string)].user
	return c.JSON(http.StatusOK, models.Quota{QuotaLimit: u.QuotaLimit, QuotaUsed: u.QuotaUsed, Remaining: u.Remaining()})
}

func (s *Server) updateRequest(c echo.Context) error {
	var in models.RequestInput
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title and description are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.ownedRequestLocked(c)
	if err != nil {
		return err
	}
	if r.Status != models.StatusPending {
		return echo.NewHTTPError(http.StatusBadRequest, "Only pending requests can be edited")
	}
	r.Title = in.Title
	r.Description = in.Description
	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Request updated successfully"})
}

func (s *Server) deleteRequest(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.ownedRequestLocked(c)
	if err != nil {
		return err
	}
	delete(s.requests, r.ID)
	if acc := s.accounts[r.ownerID]; acc.user.QuotaUsed > 0 {
		acc.user.QuotaUsed--
	}
	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Request deleted successfully. Quota refunded."})
}

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.usersLocked())
}

func (s *Server) updateQuota(c echo.Context) error {
	var in struct {
		QuotaLimit *int `json:"quotaLimit"`
	}
	if err := c.Bind(&in); err != nil || in.QuotaLimit == nil || *in.QuotaLimit < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Quota limit must be a non-negative number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if *in.QuotaLimit < acc.user.QuotaUsed {
		return echo.NewHTTPError(http.StatusBadRequest, "Quota limit cannot be less than used quota")
	}
	acc.user.QuotaLimit = *in.QuotaLimit
	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Quota updated successfully"})
}

func (s *Server) listRequests(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Request{}
	for _, r := range s.sortedRequestsLocked() {
		out = append(out, s.populatedLocked(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) updateStatus(c echo.Context) error {
	var in struct {
		Status models.Status `json:"status"`
	}
	if err := c.Bind(&in); err != nil || !in.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Request not found")
	}
	if !slices.Contains(r.Status.Transitions(), in.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status transition")
	}
	r.Status = in.Status
	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Request " + strings.ToLower(string(in.Status)) + " successfully"})
}

func (s *Server) reports(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedRequestsLocked()
	out := []models.Report{}
	for _, u := range s.usersLocked() {
		rep := models.Report{
			UserID:         u.ID,
			Name:           u.Name,
			Email:          u.Email,
			QuotaLimit:     u.QuotaLimit,
			QuotaUsed:      u.QuotaUsed,
			Remaining:      u.Remaining(),
			RecentRequests: []models.Request{},
		}
		for _, r := range sorted {
			if r.ownerID != u.ID {
				continue
			}
			rep.TotalRequests++
			if len(rep.RecentRequests) < recentRequests {
				rep.RecentRequests = append(rep.RecentRequests, r.Request)
			}
		}
		out = append(out, rep)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) addAccountLocked(name, email, password string, role models.Role, quotaLimit int) (*account, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.byEmail[key]; exists {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	}
	pw, err := hash.HashPassword(password, hash.MinCost)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	acc := &account{
		user: models.User{
			ID:    newID(),
			Name:  name,
			Email: key,
			Role:  role,
		},
		passwordHash: pw,
	}
	if role == models.RoleUser {
		acc.user.QuotaLimit = quotaLimit
	}
	s.accounts[acc.user.ID] = acc
	s.byEmail[key] = acc.user.ID
	return acc, nil
}

func (s *Server) authResponseLocked(c echo.Context, status int, acc *account) error {
	token, err := createAccessToken(s.secret, acc.user.Role, acc.user.ID, s.now().Add(24*time.Hour))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	return c.JSON(status, models.AuthResponse{
		Token: token,
		User: models.User{
			ID:    acc.user.ID,
			Name:  acc.user.Name,
			Email: acc.user.Email,
			Role:  acc.user.Role,
		},
	})
}

func (s *Server) ownedRequestLocked(c echo.Context) (*request, error) {
	r, ok := s.requests[c.Param("id")]
	if !ok || r.ownerID != c.Get(ctxUserID).(string) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Request not found")
	}
	return r, nil
}

func (s *Server) populatedLocked(r *request) models.Request {
	out := r.Request
	if acc, ok := s.accounts[r.ownerID]; ok {
		out.User = &models.RequestOwner{ID: acc.user.ID, Name: acc.user.Name, Email: acc.user.Email}
	}
	return out
}

// sortedRequestsLocked returns requests newest first.
func (s *Server) sortedRequestsLocked() []*request {
	out := make([]*request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Server) usersLocked() []models.User {
	out := []models.User{}
	for _, acc := range s.accounts {
		if acc.user.Role == models.RoleUser {
			out = append(out, acc.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func newID() string { return uuid.NewString() }
