// Package records implements the guidance office's domain CRUD, patient
// intake records and appointment scheduling, as typed services over the
// document store.
package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuskit/guidancedesk/docstore"
)

var (
	// ErrValidation is returned for records missing required fields or
	// carrying unknown enum values.
	ErrValidation = errors.New("invalid record")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Diagnosis is the structured counseling-assessment sub-record. It is
// stored as a nested document, not a serialized string.
type Diagnosis struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Patient is a student intake record.
type Patient struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Program   string     `json:"program,omitempty"`
	YearLevel string     `json:"yearLevel,omitempty"`
	Diagnosis *Diagnosis `json:"diagnosis,omitempty"`
	CreatedAt int64      `json:"createdAt"`
}

// Appointment statuses move pending → approved → completed, or to
// cancelled from either live state.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment links a patient to a counselor at a scheduled instant.
type Appointment struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	CounselorID string `json:"counselorId"`
	Purpose     string `json:"purpose,omitempty"`
	Status      string `json:"status"`
	ScheduledAt int64  `json:"scheduledAt"`
	CreatedAt   int64  `json:"createdAt"`
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Service exposes patient and appointment CRUD. All persistence goes
// through the injected store; the service carries no mutable state.
type Service struct {
	store        docstore.Store
	patients     string
	appointments string
}

// NewService wires a records service over store with the given collection
// names.
func NewService(store docstore.Store, patientCollection, appointmentCollection string) *Service {
	return &Service{
		store:        store,
		patients:     patientCollection,
		appointments: appointmentCollection,
	}
}

// CreatePatient validates and persists a new intake record.
func (s *Service) CreatePatient(ctx context.Context, p Patient) (Patient, error) {
	if p.FirstName == "" || p.LastName == "" {
		return Patient{}, fmt.Errorf("%w: patient name required", ErrValidation)
	}
	if p.Email == "" {
		return Patient{}, fmt.Errorf("%w: patient email required", ErrValidation)
	}

	doc, err := s.store.Create(ctx, s.patients, patientFields(p))
	if err != nil {
		return Patient{}, err
	}
	p.ID = doc.ID
	return p, nil
}

// GetPatient fetches one intake record.
func (s *Service) GetPatient(ctx context.Context, id string) (Patient, error) {
	doc, err := s.store.Get(ctx, s.patients, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Patient{}, fmt.Errorf("%w: patient %s", ErrNotFound, id)
		}
		return Patient{}, err
	}
	return patientFromDoc(doc), nil
}

// ListPatients returns all intake records, newest first.
func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	docs, err := s.store.List(ctx, s.patients, docstore.Query{OrderBy: "createdAt", Desc: true})
	if err != nil {
		return nil, err
	}
	out := make([]Patient, 0, len(docs))
	for _, doc := range docs {
		out = append(out, patientFromDoc(doc))
	}
	return out, nil
}

// UpdatePatient merges the non-identity fields of p into the stored
// record.
func (s *Service) UpdatePatient(ctx context.Context, id string, p Patient) (Patient, error) {
	fields := patientFields(p)
	delete(fields, "createdAt")

	doc, err := s.store.Update(ctx, s.patients, id, fields)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Patient{}, fmt.Errorf("%w: patient %s", ErrNotFound, id)
		}
		return Patient{}, err
	}
	return patientFromDoc(doc), nil
}

// DeletePatient removes an intake record; deleting an absent record is a
// no-op.
func (s *Service) DeletePatient(ctx context.Context, id string) error {
	return s.store.Delete(ctx, s.patients, id)
}

// CreateAppointment validates and persists a new appointment. Status
// defaults to pending.
func (s *Service) CreateAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	if a.PatientID == "" || a.CounselorID == "" {
		return Appointment{}, fmt.Errorf("%w: appointment requires patient and counselor", ErrValidation)
	}
	if a.ScheduledAt <= 0 {
		return Appointment{}, fmt.Errorf("%w: appointment requires a schedule", ErrValidation)
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !validStatus(a.Status) {
		return Appointment{}, fmt.Errorf("%w: unknown status %q", ErrValidation, a.Status)
	}

	doc, err := s.store.Create(ctx, s.appointments, appointmentFields(a))
	if err != nil {
		return Appointment{}, err
	}
	a.ID = doc.ID
	return a, nil
}

// GetAppointment fetches one appointment.
func (s *Service) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	doc, err := s.store.Get(ctx, s.appointments, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
		}
		return Appointment{}, err
	}
	return appointmentFromDoc(doc), nil
}

// ListAppointments returns appointments, optionally narrowed to one
// counselor, soonest first.
func (s *Service) ListAppointments(ctx context.Context, counselorID string) ([]Appointment, error) {
	q := docstore.Query{OrderBy: "scheduledAt"}
	if counselorID != "" {
		q.Filters = []docstore.Filter{docstore.Eq("counselorId", counselorID)}
	}

	docs, err := s.store.List(ctx, s.appointments, q)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(docs))
	for _, doc := range docs {
		out = append(out, appointmentFromDoc(doc))
	}
	return out, nil
}

// SetAppointmentStatus moves an appointment to a new status.
func (s *Service) SetAppointmentStatus(ctx context.Context, id, status string) (Appointment, error) {
	if !validStatus(status) {
		return Appointment{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	doc, err := s.store.Update(ctx, s.appointments, id, docstore.Fields{"status": status})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
		}
		return Appointment{}, err
	}
	return appointmentFromDoc(doc), nil
}

// DeleteAppointment removes an appointment; absent records are a no-op.
func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	return s.store.Delete(ctx, s.appointments, id)
}

func patientFields(p Patient) docstore.Fields {
	fields := docstore.Fields{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"email":     p.Email,
		"program":   p.Program,
		"yearLevel": p.YearLevel,
		"createdAt": p.CreatedAt,
	}
	if p.Diagnosis != nil {
		fields["diagnosis"] = map[string]any{
			"code":        p.Diagnosis.Code,
			"description": p.Diagnosis.Description,
			"notes":       p.Diagnosis.Notes,
		}
	}
	return fields
}

func patientFromDoc(doc docstore.Document) Patient {
	p := Patient{
		ID:        doc.ID,
		FirstName: doc.Fields.String("firstName"),
		LastName:  doc.Fields.String("lastName"),
		Email:     doc.Fields.String("email"),
		Program:   doc.Fields.String("program"),
		YearLevel: doc.Fields.String("yearLevel"),
		CreatedAt: doc.Fields.Int64("createdAt"),
	}
	if d, ok := doc.Fields["diagnosis"].(map[string]any); ok {
		sub := docstore.Fields(d)
		p.Diagnosis = &Diagnosis{
			Code:        sub.String("code"),
			Description: sub.String("description"),
			Notes:       sub.String("notes"),
		}
	}
	return p
}

func appointmentFields(a Appointment) docstore.Fields {
	return docstore.Fields{
		"patientId":   a.PatientID,
		"counselorId": a.CounselorID,
		"purpose":     a.Purpose,
		"status":      a.Status,
		"scheduledAt": a.ScheduledAt,
		"createdAt":   a.CreatedAt,
	}
}

func appointmentFromDoc(doc docstore.Document) Appointment {
	return Appointment{
		ID:          doc.ID,
		PatientID:   doc.Fields.String("patientId"),
		CounselorID: doc.Fields.String("counselorId"),
		Purpose:     doc.Fields.String("purpose"),
		Status:      doc.Fields.String("status"),
		ScheduledAt: doc.Fields.Int64("scheduledAt"),
		CreatedAt:   doc.Fields.Int64("createdAt"),
	}
}
