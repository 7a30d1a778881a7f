package scheduling

import (
	"errors"
	"fmt"

	"clinic-app-server/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Service is the scheduling facade: the only entry point the HTTP layer (or
// any other collaborator) uses to book, cancel and update appointments. It
// orchestrates the date resolver, template store, allocator and appointment
// store, and enforces who may do what.
type Service struct {
	DB           *gorm.DB
	Templates    *TemplateStore
	Allocator    *Allocator
	Appointments *AppointmentStore
	Log          zerolog.Logger
}

// NewService wires the scheduling engine together.
func NewService(db *gorm.DB, horizonMonths, retries int, log zerolog.Logger) *Service {
	templates := NewTemplateStore(db)
	resolver := NewDateResolver(horizonMonths)
	return &Service{
		DB:           db,
		Templates:    templates,
		Allocator:    NewAllocator(db, templates, resolver, retries, log),
		Appointments: NewAppointmentStore(db),
		Log:          log,
	}
}

// GetAvailableSlots returns the doctor's open windows on date.
func (s *Service) GetAvailableSlots(doctorID, date string) ([]models.SlotWindow, error) {
	if _, err := s.doctor(doctorID); err != nil {
		return nil, err
	}
	return s.Allocator.ListAvailable(doctorID, date)
}

// BookAppointment reserves the slot and creates the appointment record.
// If anything fails after the reservation succeeded, the reservation is
// released before the error is returned so no orphaned reservation blocks
// the slot.
func (s *Service) BookAppointment(patientID, doctorID, date string, window models.SlotWindow, symptoms string) (*models.Appointment, error) {
	if _, err := s.doctor(doctorID); err != nil {
		return nil, err
	}
	if err := s.patientExists(patientID); err != nil {
		return nil, err
	}

	if _, err := s.Allocator.Reserve(doctorID, date, window); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      date,
		StartTime: window.StartTime,
		EndTime:   window.EndTime,
		Symptoms:  symptoms,
	}
	if err := s.Appointments.Create(appt); err != nil {
		if relErr := s.Allocator.Release(doctorID, date, window); relErr != nil {
			s.Log.Error().Err(relErr).
				Str("doctorId", doctorID).Str("date", date).
				Msg("failed to release reservation after create failure")
		}
		return nil, err
	}

	s.Log.Info().
		Str("appointmentId", appt.ID).
		Str("doctorId", doctorID).
		Str("patientId", patientID).
		Str("date", date).
		Str("window", window.StartTime+"-"+window.EndTime).
		Msg("appointment booked")
	return appt, nil
}

// CancelAppointment releases the slot and marks the record cancelled.
// Patients may cancel their own appointments, doctors their assigned ones,
// admins any. The release happens before the status write: if the process
// dies in between, the slot is free again rather than leaked.
func (s *Service) CancelAppointment(appointmentID, actorID string, actorRole models.Role) error {
	appt, err := s.Appointments.Get(appointmentID)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(appt, actorID, actorRole, true); err != nil {
		return err
	}
	if appt.Status.IsTerminal() {
		return fmt.Errorf("%w: appointment is already %s", ErrInvalidTransition, appt.Status)
	}

	if err := s.Allocator.Release(appt.DoctorID, appt.Date, appt.Window()); err != nil {
		return err
	}
	if err := s.Appointments.MarkCancelled(appointmentID); err != nil {
		return err
	}

	s.Log.Info().
		Str("appointmentId", appointmentID).
		Str("actorId", actorID).
		Str("role", string(actorRole)).
		Msg("appointment cancelled")
	return nil
}

// UpdateAppointment applies a clinical update on behalf of the assigned
// doctor or an admin. Setting the status to cancelled goes through the same
// slot release as CancelAppointment so the reservation never outlives a
// cancellation, whichever door it came through.
func (s *Service) UpdateAppointment(appointmentID, actorID string, actorRole models.Role, upd ClinicalUpdate) (*models.Appointment, error) {
	appt, err := s.Appointments.Get(appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(appt, actorID, actorRole, false); err != nil {
		return nil, err
	}

	if upd.Status != nil && *upd.Status == models.StatusCancelled {
		if err := s.CancelAppointment(appointmentID, actorID, actorRole); err != nil {
			return nil, err
		}
		upd.Status = nil
	}

	return s.Appointments.UpdateClinicalFields(appointmentID, upd)
}

// GetAppointment fetches one appointment for an involved party or an admin.
func (s *Service) GetAppointment(appointmentID, actorID string, actorRole models.Role) (*models.Appointment, error) {
	appt, err := s.Appointments.Get(appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(appt, actorID, actorRole, true); err != nil {
		return nil, err
	}
	return appt, nil
}

// GetAppointmentsForDoctor lists a doctor's appointments.
func (s *Service) GetAppointmentsForDoctor(doctorID string) ([]models.Appointment, error) {
	if _, err := s.doctor(doctorID); err != nil {
		return nil, err
	}
	return s.Appointments.ListByDoctor(doctorID)
}

// GetAppointmentsForPatient lists a patient's appointments.
func (s *Service) GetAppointmentsForPatient(patientID string) ([]models.Appointment, error) {
	return s.Appointments.ListByPatient(patientID)
}

// GetAllAppointments lists every appointment. Admin surface only; the HTTP
// layer gates it by role.
func (s *Service) GetAllAppointments() ([]models.Appointment, error) {
	return s.Appointments.ListAll()
}

// DoctorOwnedBy reports whether the doctor profile belongs to the user.
func (s *Service) DoctorOwnedBy(doctorID, userID string) (bool, error) {
	doctor, err := s.doctor(doctorID)
	if err != nil {
		return false, err
	}
	return doctor.UserID == userID, nil
}

// authorizeMutation checks the actor against the appointment. Admins always
// pass; the assigned doctor passes; the owning patient passes only when
// allowPatient is set (patients cancel and read, they never edit clinical
// fields).
func (s *Service) authorizeMutation(appt *models.Appointment, actorID string, actorRole models.Role, allowPatient bool) error {
	switch actorRole {
	case models.RoleAdmin:
		return nil
	case models.RoleDoctor:
		owned, err := s.DoctorOwnedBy(appt.DoctorID, actorID)
		if err != nil {
			return err
		}
		if owned {
			return nil
		}
	case models.RolePatient:
		if allowPatient && appt.PatientID == actorID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s may not modify appointment %s", ErrNotAuthorized, actorRole, actorID, appt.ID)
}

// patientExists verifies patientID names a user with the patient role, so an
// admin booking on someone's behalf cannot create a record with a dangling
// patient reference.
func (s *Service) patientExists(patientID string) error {
	var user models.User
	err := s.DB.First(&user, "id = ? AND role = ?", patientID, models.RolePatient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: patient %s", ErrNotFound, patientID)
		}
		return fmt.Errorf("%w: loading patient: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Service) doctor(doctorID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.DB.First(&doctor, "id = ?", doctorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, doctorID)
		}
		return nil, fmt.Errorf("%w: loading doctor: %v", ErrStorageUnavailable, err)
	}
	return &doctor, nil
}
