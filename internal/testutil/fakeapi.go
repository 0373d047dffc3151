package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// FakeAPI is an httptest server speaking the task REST API under /api.
// Users are stored with bcrypt hashes; tokens are HS256 JWTs whose subject is
// the user's email.
type FakeAPI struct {
	*httptest.Server

	mu     sync.Mutex
	users  map[string]apiUser   // email -> user
	tasks  map[string][]apiTask // email -> tasks
	nextID int
	secret []byte

	mongoIDs      bool
	tokenTTL      time.Duration
	failStatus    int
	failMessage   string
	taskRequests  int
	lastRequestID string
}

type apiUser struct {
	ID     int
	Name   string
	Email  string
	Hashed []byte
}

type apiTask struct {
	ID          string
	Title       string
	Description string
	Priority    string
	Status      string
}

// NewFakeAPI starts a FakeAPI and stops it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		users:    make(map[string]apiUser),
		tasks:    make(map[string][]apiTask),
		secret:   []byte("fake-api-secret"),
		tokenTTL: time.Hour,
	}

	r := mux.NewRouter()
	r.Use(f.recordRequestID)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", f.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", f.login).Methods(http.MethodPost)
	api.Handle("/tasks", f.requireAuth(f.listTasks)).Methods(http.MethodGet)
	api.Handle("/tasks", f.requireAuth(f.createTask)).Methods(http.MethodPost)
	api.Handle("/tasks/{id}", f.requireAuth(f.updateTask)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", f.requireAuth(f.deleteTask)).Methods(http.MethodDelete)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// BaseURL returns the API base URL ("<server>/api").
func (f *FakeAPI) BaseURL() string {
	return f.URL + "/api"
}

// AddUser registers a user directly.
func (f *FakeAPI) AddUser(t *testing.T, name, email, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.users[email] = apiUser{ID: f.nextID, Name: name, Email: email, Hashed: hashed}
}

// IssueToken returns a token for email that expires at exp.
func (f *FakeAPI) IssueToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	tok, err := f.sign(email, exp)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// TaskCount returns how many tasks the server holds for email.
func (f *FakeAPI) TaskCount(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks[email])
}

// UseMongoIDs makes the server name identifiers "_id" and use string ids.
func (f *FakeAPI) UseMongoIDs() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mongoIDs = true
}

// SetTokenTTL sets the lifetime of tokens issued by login.
func (f *FakeAPI) SetTokenTTL(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenTTL = d
}

// Fail makes every following /tasks request fail with status and message
// (omitted from the body when empty). Status 0 restores normal behavior.
func (f *FakeAPI) Fail(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus, f.failMessage = status, message
}

// TaskRequests counts authenticated requests that reached a /tasks handler.
func (f *FakeAPI) TaskRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taskRequests
}

// LastRequestID returns the X-Request-Id of the most recent request.
func (f *FakeAPI) LastRequestID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequestID
}

func (f *FakeAPI) sign(email string, exp time.Time) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString(f.secret)
}

func (f *FakeAPI) recordRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastRequestID = r.Header.Get("X-Request-Id")
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// requireAuth validates the bearer token and passes the owner's email on.
func (f *FakeAPI) requireAuth(h func(w http.ResponseWriter, r *http.Request, owner string)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided"})
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return f.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}

		f.mu.Lock()
		f.taskRequests++
		failStatus, failMessage := f.failStatus, f.failMessage
		f.mu.Unlock()
		if failStatus != 0 {
			body := map[string]string{}
			if failMessage != "" {
				body["message"] = failMessage
			}
			writeJSON(w, failStatus, body)
			return
		}
		h(w, r, claims.Subject)
	})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[in.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	f.nextID++
	u := apiUser{ID: f.nextID, Name: in.Name, Email: in.Email, Hashed: hashed}
	f.users[in.Email] = u
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    map[string]any{"id": u.ID, "name": u.Name, "email": u.Email},
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return
	}

	f.mu.Lock()
	u, ok := f.users[in.Email]
	ttl := f.tokenTTL
	f.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.Hashed, []byte(in.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	tok, err := f.sign(u.Email, time.Now().Add(ttl))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": tok,
		"user":  map[string]any{"id": u.ID, "name": u.Name, "email": u.Email},
	})
}

func (f *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.tasks[owner]))
	for _, t := range f.tasks[owner] {
		out = append(out, f.encodeTask(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (f *FakeAPI) createTask(w http.ResponseWriter, r *http.Request, owner string) {
	in, ok := decodeTask(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	in.ID = strconv.Itoa(f.nextID)
	if f.mongoIDs {
		in.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	}
	f.tasks[owner] = append(f.tasks[owner], in)
	writeJSON(w, http.StatusCreated, f.encodeTask(in))
}

func (f *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request, owner string) {
	in, ok := decodeTask(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks[owner] {
		if t.ID == id {
			in.ID = id
			f.tasks[owner][i] = in
			writeJSON(w, http.StatusOK, f.encodeTask(in))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func (f *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request, owner string) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[owner]
	for i, t := range tasks {
		if t.ID == id {
			f.tasks[owner] = append(tasks[:i], tasks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

// encodeTask renders t the way the server is configured to: numeric "id" or
// string "_id".
func (f *FakeAPI) encodeTask(t apiTask) map[string]any {
	m := map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"priority":    t.Priority,
		"status":      t.Status,
	}
	if f.mongoIDs {
		m["_id"] = t.ID
	} else if n, err := strconv.Atoi(t.ID); err == nil {
		m["id"] = n
	} else {
		m["id"] = t.ID
	}
	return m
}

func decodeTask(w http.ResponseWriter, r *http.Request) (apiTask, bool) {
	var in apiTask
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})
		return in, false
	}
	if strings.TrimSpace(body.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title is required"})
		return in, false
	}
	in.Title, in.Description, in.Priority, in.Status = body.Title, body.Description, body.Priority, body.Status
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
