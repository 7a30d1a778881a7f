package scheduling

import (
	"errors"
	"fmt"

	"clinic-app-server/internal/models"

	"gorm.io/gorm"
)

// AppointmentStore owns appointment records and their status lifecycle.
// Authorization is the facade's job; this store only enforces the state
// machine: scheduled may become completed, cancelled or no-show, and the
// three terminal states admit nothing further.
type AppointmentStore struct {
	DB *gorm.DB
}

// NewAppointmentStore creates a new AppointmentStore.
func NewAppointmentStore(db *gorm.DB) *AppointmentStore {
	return &AppointmentStore{DB: db}
}

// ClinicalUpdate carries the doctor-editable fields of an appointment.
// Nil pointers mean "leave unchanged".
type ClinicalUpdate struct {
	Status       *models.AppointmentStatus
	Diagnosis    *string
	Prescription *string
	Remarks      *string
}

// Create persists a new appointment. Status is forced to scheduled
// regardless of what the caller set.
func (s *AppointmentStore) Create(appt *models.Appointment) error {
	appt.Status = models.StatusScheduled
	if err := s.DB.Create(appt).Error; err != nil {
		return fmt.Errorf("%w: creating appointment: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Get fetches one appointment with its doctor and patient preloaded.
func (s *AppointmentStore) Get(id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.DB.Preload("Doctor").Preload("Patient").First(&appt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: loading appointment: %v", ErrStorageUnavailable, err)
	}
	return &appt, nil
}

// ListByDoctor returns the doctor's appointments, newest date first.
func (s *AppointmentStore) ListByDoctor(doctorID string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.DB.Preload("Patient").
		Where("doctor_id = ?", doctorID).
		Order("date desc, start_time desc").Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing doctor appointments: %v", ErrStorageUnavailable, err)
	}
	return appts, nil
}

// ListByPatient returns the patient's appointments, newest date first.
func (s *AppointmentStore) ListByPatient(patientID string) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.DB.Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("date desc, start_time desc").Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing patient appointments: %v", ErrStorageUnavailable, err)
	}
	return appts, nil
}

// ListAll returns every appointment, newest date first.
func (s *AppointmentStore) ListAll() ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.DB.Preload("Doctor").Preload("Patient").
		Order("date desc, start_time desc").Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing appointments: %v", ErrStorageUnavailable, err)
	}
	return appts, nil
}

// UpdateClinicalFields applies a clinical update, validating any status
// change against the state machine.
func (s *AppointmentStore) UpdateClinicalFields(id string, upd ClinicalUpdate) (*models.Appointment, error) {
	appt, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && *upd.Status != appt.Status {
		if err := checkTransition(appt.Status, *upd.Status); err != nil {
			return nil, err
		}
		appt.Status = *upd.Status
	}
	if upd.Diagnosis != nil {
		appt.Diagnosis = *upd.Diagnosis
	}
	if upd.Prescription != nil {
		appt.Prescription = *upd.Prescription
	}
	if upd.Remarks != nil {
		appt.Remarks = *upd.Remarks
	}

	if err := s.DB.Save(appt).Error; err != nil {
		return nil, fmt.Errorf("%w: updating appointment: %v", ErrStorageUnavailable, err)
	}
	return appt, nil
}

// MarkCancelled transitions the appointment to cancelled.
func (s *AppointmentStore) MarkCancelled(id string) error {
	appt, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := checkTransition(appt.Status, models.StatusCancelled); err != nil {
		return err
	}
	appt.Status = models.StatusCancelled
	if err := s.DB.Save(appt).Error; err != nil {
		return fmt.Errorf("%w: cancelling appointment: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func checkTransition(from, to models.AppointmentStatus) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: appointment is already %s", ErrInvalidTransition, from)
	}
	switch to {
	case models.StatusCompleted, models.StatusCancelled, models.StatusNoShow:
		return nil
	default:
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, to)
	}
}
