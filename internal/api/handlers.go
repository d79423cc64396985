// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
)

const (
	missingUserOnLog = "No user found for the given id."
	missingUserOnAdd = "The userId was not found"
)

var errUnparsableBody = errors.New("unable to parse body")

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/exercise/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/exercise/log", h.getLog).Methods(http.MethodGet)
	r.HandleFunc("/api/exercise/new-user", h.createUser).Methods(http.MethodPost)
	r.HandleFunc("/api/exercise/add", h.addExercise).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)

	// Router.Use middleware never sees these, so they carry Metrics themselves.
	r.NotFoundHandler = Metrics(http.HandlerFunc(notFound))
	r.MethodNotAllowedHandler = Metrics(http.HandlerFunc(methodNotAllowed))
}

// RegisterStatic serves dir/index.html at the root. Files in dir/public are
// served under /public/ and from the root path, after every API route.
func RegisterStatic(r *mux.Router, dir string) {
	index := filepath.Join(dir, "index.html")
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, index)
	}).Methods(http.MethodGet)

	publicDir := filepath.Join(dir, "public")
	public := http.FileServer(http.Dir(publicDir))
	r.PathPrefix("/public/").Handler(http.StripPrefix("/public/", public)).Methods(http.MethodGet)
	r.MatcherFunc(publicFile(publicDir)).Handler(public).Methods(http.MethodGet).Name(staticRoute)
}

const staticRoute = "static"

// publicFile matches requests whose path names a regular file under dir.
// Anything else falls through to the NotFound and MethodNotAllowed handlers.
func publicFile(dir string) mux.MatcherFunc {
	return func(req *http.Request, _ *mux.RouteMatch) bool {
		name := path.Clean("/" + req.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		return err == nil && info.Mode().IsRegular()
	}
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, "not found, path: "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusMethodNotAllowed, "unsupported method")
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	resp := make([]UserView, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserView(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	exerciseLog, err := h.service.GetLog(r.Context(), domain.LogParams{
		UserID: query.Get("userId"),
		From:   query.Get("from"),
		To:     query.Get("to"),
		Limit:  query.Get("limit"),
	})
	if err != nil {
		writeError(w, r, err, missingUserOnLog)
		return
	}
	writeJSON(w, http.StatusOK, toLogView(*exerciseLog))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	user, err := h.service.CreateUser(r.Context(), form.Get("username"))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, CreatedUserView{UserName: user.UserName, ID: user.ID})
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	logged, err := h.service.AddExercise(r.Context(), domain.AddExerciseInput{
		UserID:      form.Get("userId"),
		Description: form.Get("description"),
		Duration:    form.Get("duration"),
		Date:        form.Get("date"),
	})
	if err != nil {
		writeError(w, r, err, missingUserOnAdd)
		return
	}
	writeJSON(w, http.StatusOK, toLoggedExerciseView(*logged))
}

// readForm returns the POST body as string values, accepting JSON objects or
// url-encoded forms.
func readForm(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", errUnparsableBody, err)
		}
		return r.PostForm, nil
	}

	var payload map[string]any
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparsableBody, err)
	}

	form := url.Values{}
	for key, value := range payload {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			form.Set(key, v)
		case json.Number:
			form.Set(key, v.String())
		default:
			form.Set(key, fmt.Sprint(v))
		}
	}
	return form, nil
}
