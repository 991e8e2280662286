package httpapi

import (
	"net/http"
	"time"

	"github.com/campuskit/guidancedesk/records"
)

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var p records.Patient
	if !decodeBody(w, r, &p) {
		return
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	created, err := s.records.CreatePatient(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.records.ListPatients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := s.records.GetPatient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var p records.Patient
	if !decodeBody(w, r, &p) {
		return
	}

	updated, err := s.records.UpdatePatient(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := s.records.DeletePatient(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "patient deleted"})
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var a records.Appointment
	if !decodeBody(w, r, &a) {
		return
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	created, err := s.records.CreateAppointment(r.Context(), a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := s.records.ListAppointments(r.Context(), r.URL.Query().Get("counselorId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := s.records.GetAppointment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := s.records.SetAppointmentStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := s.records.DeleteAppointment(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "appointment deleted"})
}
