// Package apitest runs an in-process fake of the Prescripto backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/models"
)

const signingSecret = "apitest-secret"

type user struct {
	profile  models.UserProfile
	password string
}

type failure struct {
	status  int
	message string
}

// Server is a fake backend with in-memory doctors, users and appointments.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	doctors      []models.Doctor
	users        map[string]*user
	appointments []models.Appointment
	calls        map[string]int
	requestIDs   map[string]string
	failures     map[string]failure
	omitSlots    bool
	tokenTTL     time.Duration
	now          func() time.Time
}

// New starts a fake backend. Call Close when done.
func New() *Server {
	s := &Server{
		users:      make(map[string]*user),
		calls:      make(map[string]int),
		requestIDs: make(map[string]string),
		failures:   make(map[string]failure),
		tokenTTL:   time.Hour,
		now:        time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.track)

	r.Get("/api/doctor/list", s.listDoctors)
	r.Post("/api/user/login", s.login)
	r.Post("/api/user/register", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/user/get-profile", s.getProfile)
		r.Post("/api/user/update-profile", s.updateProfile)
		r.Post("/api/user/upload-profile-image", s.uploadImage)
		r.Post("/api/user/book-appointment", s.bookAppointment)
		r.Get("/api/user/appointments", s.listAppointments)
		r.Post("/api/user/cancel-appointment", s.cancelAppointment)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// AddDoctor registers a doctor. A nil booking map is stored as empty.
func (s *Server) AddDoctor(d models.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.SlotsBooked == nil {
		d.SlotsBooked = models.BookedSlots{}
	}
	s.doctors = append(s.doctors, d)
}

// Doctor returns the backend's current record for id.
func (s *Server) Doctor(id string) (models.Doctor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.doctorLocked(id)
	if d == nil {
		return models.Doctor{}, false
	}
	out := *d
	out.SlotsBooked = models.BookedSlots{}
	for k, v := range d.SlotsBooked {
		out.SlotsBooked[k] = append([]string(nil), v...)
	}
	return out, true
}

// BookSlot marks a slot taken as if another patient booked it.
func (s *Server) BookSlot(doctorID, dateKey, hhmm string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.doctorLocked(doctorID); d != nil {
		d.SlotsBooked[dateKey] = append(d.SlotsBooked[dateKey], hhmm)
	}
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password)
}

// TokenFor issues a session token for the account with the given email.
func (s *Server) TokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.profile.Email == email {
			tok, _ := s.issueToken(id)
			return tok
		}
	}
	return ""
}

// Profile returns the stored profile for a user id.
func (s *Server) Profile(id string) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.UserProfile{}, false
	}
	return u.profile, true
}

// Appointments returns every stored appointment in creation order.
func (s *Server) Appointments() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Appointment(nil), s.appointments...)
}

// FailNext makes the next request to path answer with status and message.
func (s *Server) FailNext(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message}
}

// OmitSlots drops slots_booked from doctor listings.
func (s *Server) OmitSlots(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitSlots = omit
}

// SetTokenTTL changes the expiry of tokens issued from now on.
// A non-positive ttl issues tokens that are already expired.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests across all paths.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// LastRequestID returns the X-Request-ID of the latest request to path.
func (s *Server) LastRequestID(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestIDs[path]
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.requestIDs[r.URL.Path] = r.Header.Get(constants.RequestIDHeader)
		f, fail := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		s.mu.Unlock()

		if fail {
			render.Status(r, f.status)
			render.JSON(w, r, errorBody(f.message))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(constants.TokenHeader)
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(signingSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		id, _ := claims["id"].(string)

		s.mu.Lock()
		_, known := s.users[id]
		s.mu.Unlock()

		if raw == "" || err != nil || !known {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, errorBody("Not Authorized Login Again"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, id)))
	})
}

func (s *Server) addUserLocked(name, email, password string) string {
	id := uuid.New().String()
	s.users[id] = &user{
		profile:  models.UserProfile{ID: id, Name: name, Email: email},
		password: password,
	}
	return id
}

func (s *Server) issueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": s.now().Unix(),
		"exp": s.now().Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
}

func (s *Server) doctorLocked(id string) *models.Doctor {
	for i := range s.doctors {
		if s.doctors[i].ID == id {
			return &s.doctors[i]
		}
	}
	return nil
}

func errorBody(message string) map[string]interface{} {
	return map[string]interface{}{"success": false, "message": message}
}

func okBody(kv ...interface{}) map[string]interface{} {
	body := map[string]interface{}{"success": true}
	for i := 0; i+1 < len(kv); i += 2 {
		body[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return body
}

// doctorJSON renders a doctor the way the backend does, with slots_booked
// always present unless omission is switched on.
func doctorJSON(d models.Doctor, omitSlots bool) map[string]interface{} {
	raw, _ := json.Marshal(d)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	if omitSlots {
		delete(out, "slots_booked")
	} else if _, ok := out["slots_booked"]; !ok {
		out["slots_booked"] = map[string]interface{}{}
	}
	return out
}
