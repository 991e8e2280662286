// Package httpapi exposes the guidance-office backend over JSON HTTP: the
// OTP endpoints, counselor authentication, and the guarded admin CRUD for
// patients and appointments.
package httpapi

import (
	"net/http"

	guidancedesk "github.com/campuskit/guidancedesk"
	"github.com/campuskit/guidancedesk/internal/logging"
	"github.com/campuskit/guidancedesk/middleware"
	"github.com/campuskit/guidancedesk/records"
)

// Admin-area routes. Everything under AdminPrefix is guarded except the
// three public paths.
const (
	AdminPrefix       = "/admin/counselors"
	LoginPath         = AdminPrefix + "/login"
	RegisterPath      = AdminPrefix + "/register"
	SetupPasswordPath = AdminPrefix + "/setup-password"
)

// Server holds the handler dependencies. It carries no per-request state.
type Server struct {
	engine  *guidancedesk.Engine
	records *records.Service
	log     logging.Logger
}

// NewServer wires the HTTP surface over the engine and records service.
func NewServer(engine *guidancedesk.Engine, recordsSvc *records.Service, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{engine: engine, records: recordsSvc, log: log}
}

// Handler builds the routed handler: public OTP endpoints at the root,
// and the admin area wrapped in the session guard.
func (s *Server) Handler() http.Handler {
	admin := http.NewServeMux()
	admin.HandleFunc("POST "+LoginPath, s.handleLogin)
	admin.HandleFunc("POST "+RegisterPath, s.handleRegister)
	admin.HandleFunc("POST "+SetupPasswordPath, s.handleSetupPassword)
	admin.HandleFunc("POST "+AdminPrefix+"/logout", s.handleLogout)
	admin.HandleFunc("GET "+AdminPrefix+"/profiles", s.handleListCounselors)

	admin.HandleFunc("POST "+AdminPrefix+"/patients", s.handleCreatePatient)
	admin.HandleFunc("GET "+AdminPrefix+"/patients", s.handleListPatients)
	admin.HandleFunc("GET "+AdminPrefix+"/patients/{id}", s.handleGetPatient)
	admin.HandleFunc("PUT "+AdminPrefix+"/patients/{id}", s.handleUpdatePatient)
	admin.HandleFunc("DELETE "+AdminPrefix+"/patients/{id}", s.handleDeletePatient)

	admin.HandleFunc("POST "+AdminPrefix+"/appointments", s.handleCreateAppointment)
	admin.HandleFunc("GET "+AdminPrefix+"/appointments", s.handleListAppointments)
	admin.HandleFunc("GET "+AdminPrefix+"/appointments/{id}", s.handleGetAppointment)
	admin.HandleFunc("PATCH "+AdminPrefix+"/appointments/{id}/status", s.handleAppointmentStatus)
	admin.HandleFunc("DELETE "+AdminPrefix+"/appointments/{id}", s.handleDeleteAppointment)

	guard := middleware.Guard(s.engine, middleware.GuardConfig{
		CookieName:  s.engine.Config().Session.CookieName,
		LoginPath:   LoginPath,
		PublicPaths: []string{LoginPath, RegisterPath, SetupPasswordPath},
		Metrics:     s.engine.Metrics(),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /otp/send", s.handleOTPSend)
	mux.HandleFunc("POST /otp/verify", s.handleOTPVerify)
	mux.HandleFunc("POST /otp/delete", s.handleOTPDelete)
	mux.Handle(AdminPrefix+"/", guard(admin))

	return mux
}
