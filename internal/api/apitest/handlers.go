package apitest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/models"
)

func withUser(r *http.Request, id string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, id)
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) listDoctors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]interface{}, 0, len(s.doctors))
	for _, d := range s.doctors {
		out = append(out, doctorJSON(d, s.omitSlots))
	}
	s.mu.Unlock()

	render.JSON(w, r, okBody("doctors", out))
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody("failed to decode request"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.profile.Email != req.Email {
			continue
		}
		if u.password != req.Password {
			render.JSON(w, r, errorBody("Invalid credentials"))
			return
		}
		tok, err := s.issueToken(id)
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, errorBody(err.Error()))
			return
		}
		render.JSON(w, r, okBody("token", tok))
		return
	}
	render.JSON(w, r, errorBody("User does not exist"))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody("failed to decode request"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		render.JSON(w, r, errorBody("Missing Details"))
		return
	}
	if len(req.Password) < 8 {
		render.JSON(w, r, errorBody("Please enter a strong password"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.profile.Email == req.Email {
			render.JSON(w, r, errorBody("User already exists"))
			return
		}
	}
	id := s.addUserLocked(req.Name, req.Email, req.Password)
	tok, err := s.issueToken(id)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorBody(err.Error()))
		return
	}
	render.JSON(w, r, okBody("token", tok))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.users[userID(r)].profile
	s.mu.Unlock()

	render.JSON(w, r, okBody("user", p))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UserProfile
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody("failed to decode request"))
		return
	}
	if req.Name == "" || req.Phone == "" || req.DOB == "" || req.Gender == "" {
		render.JSON(w, r, errorBody("Data Missing"))
		return
	}

	s.mu.Lock()
	u := s.users[userID(r)]
	u.profile.Name = req.Name
	u.profile.Phone = req.Phone
	u.profile.Address = req.Address
	u.profile.DOB = req.DOB
	u.profile.Gender = req.Gender
	s.mu.Unlock()

	render.JSON(w, r, okBody("message", "Profile Updated"))
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxProfileImageBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody("No image file provided"))
		return
	}
	file.Close()

	url := fmt.Sprintf("https://images.test/%s/%s", uuid.New().String(), header.Filename)

	s.mu.Lock()
	s.users[userID(r)].profile.Image = url
	s.mu.Unlock()

	render.JSON(w, r, okBody("imageUrl", url))
}

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody("failed to decode request"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.doctorLocked(req.DoctorID)
	if d == nil || !d.Available {
		render.JSON(w, r, errorBody("Doctor not available"))
		return
	}
	if d.SlotsBooked.Has(req.SlotDate, req.SlotTime) {
		render.JSON(w, r, errorBody("Slot not available"))
		return
	}
	d.SlotsBooked[req.SlotDate] = append(d.SlotsBooked[req.SlotDate], req.SlotTime)

	u := s.users[userID(r)]
	docData := *d
	docData.SlotsBooked = nil
	s.appointments = append(s.appointments, models.Appointment{
		ID:         uuid.New().String(),
		UserID:     u.profile.ID,
		DoctorID:   d.ID,
		SlotDate:   req.SlotDate,
		SlotTime:   req.SlotTime,
		UserData:   u.profile,
		DoctorData: docData,
		Amount:     d.Fees,
		Date:       s.now().UnixMilli(),
	})

	render.JSON(w, r, okBody("message", "Appointment Booked"))
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	s.mu.Lock()
	out := []models.Appointment{}
	for _, a := range s.appointments {
		if a.UserID == id {
			out = append(out, a)
		}
	}
	s.mu.Unlock()

	render.JSON(w, r, okBody("appointments", out))
}

type cancelRequest struct {
	AppointmentID string `json:"appointmentId"`
}

func (s *Server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody("failed to decode request"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		a := &s.appointments[i]
		if a.ID != req.AppointmentID {
			continue
		}
		if a.UserID != userID(r) {
			render.JSON(w, r, errorBody("Unauthorized action"))
			return
		}
		a.Cancelled = true
		if d := s.doctorLocked(a.DoctorID); d != nil {
			var kept []string
			for _, t := range d.SlotsBooked[a.SlotDate] {
				if t != a.SlotTime {
					kept = append(kept, t)
				}
			}
			d.SlotsBooked[a.SlotDate] = kept
		}
		render.JSON(w, r, okBody("message", "Appointment Cancelled"))
		return
	}
	render.JSON(w, r, errorBody("Appointment not found"))
}
