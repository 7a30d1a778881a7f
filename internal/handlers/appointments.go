package handlers

import (
	"errors"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/scheduling"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler handles appointment related requests. All booking,
// cancellation and update logic lives in the scheduling service; this layer
// only binds requests, resolves the acting user and maps error kinds to
// HTTP statuses.
type AppointmentHandler struct {
	Scheduler *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(scheduler *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{Scheduler: scheduler}
}

// schedulingError maps a scheduling failure to its HTTP response. SlotTaken
// is a 409 so the client can tell "pick another time" apart from the 400 of
// "doctor doesn't work then".
func schedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrNotAvailable),
		errors.Is(err, scheduling.ErrInvalidAvailability):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, scheduling.ErrSlotTaken),
		errors.Is(err, scheduling.ErrInvalidTransition):
		utils.Conflict(c, err.Error())
	case errors.Is(err, scheduling.ErrNotAuthorized):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, scheduling.ErrStorageUnavailable):
		utils.ServiceUnavailable(c, err.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// GetAvailableSlots handles GET /doctors/:id/slots?date=YYYY-MM-DD.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		utils.BadRequest(c, "Query parameter 'date' is required")
		return
	}

	slots, err := h.Scheduler.GetAvailableSlots(doctorID, date)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Available slots fetched successfully", slots)
}

// BookAppointmentRequest represents the request body for booking an appointment.
type BookAppointmentRequest struct {
	DoctorID  string `json:"doctorId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Symptoms  string `json:"symptoms"`
}

// BookAppointment handles creating a new appointment. Initiated by a patient
// for themselves; admins may book on a patient's behalf via patientId.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req struct {
		BookAppointmentRequest
		PatientID string `json:"patientId"`
	}
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	actorRole, _ := middleware.GetUserRoleFromContext(c)

	patientID := actorID
	if req.PatientID != "" && req.PatientID != actorID {
		if actorRole != models.RoleAdmin {
			utils.Forbidden(c, "Patients can only book appointments for themselves.")
			return
		}
		patientID = req.PatientID
	}

	window := models.SlotWindow{StartTime: req.StartTime, EndTime: req.EndTime}
	appt, err := h.Scheduler.BookAppointment(patientID, req.DoctorID, req.Date, window, req.Symptoms)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in user.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	var appts []models.Appointment
	var err error

	switch userRole {
	case models.RolePatient:
		appts, err = h.Scheduler.GetAppointmentsForPatient(userID)
	case models.RoleDoctor:
		var doctor models.Doctor
		if dbErr := h.Scheduler.DB.First(&doctor, "user_id = ?", userID).Error; dbErr != nil {
			utils.NotFound(c, "Doctor profile not found for this user")
			return
		}
		appts, err = h.Scheduler.GetAppointmentsForDoctor(doctor.ID)
	case models.RoleAdmin:
		appts, err = h.Scheduler.GetAllAppointments()
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetDoctorAppointments handles GET /doctors/:id/appointments.
// Accessible by the doctor who owns the profile or an admin.
func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	doctorID := c.Param("id")
	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if userRole != models.RoleAdmin {
		owned, err := h.Scheduler.DoctorOwnedBy(doctorID, userID)
		if err != nil {
			schedulingError(c, err)
			return
		}
		if !owned {
			utils.Forbidden(c, "Not authorized to view these appointments")
			return
		}
	}

	appts, err := h.Scheduler.GetAppointmentsForDoctor(doctorID)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetPatientAppointments handles GET /patients/:patientId/appointments.
// Accessible by the patient themselves or an admin.
func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	patientID := c.Param("patientId")
	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if userRole != models.RoleAdmin && patientID != userID {
		utils.Forbidden(c, "Not authorized to view these appointments")
		return
	}

	appts, err := h.Scheduler.GetAppointmentsForPatient(patientID)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

// GetAppointmentByID handles fetching a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	appt, err := h.Scheduler.GetAppointment(c.Param("id"), userID, userRole)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appt)
}

// UpdateAppointmentRequest represents the request body for updating an
// appointment's clinical fields or status.
type UpdateAppointmentRequest struct {
	Status       *models.AppointmentStatus `json:"status" binding:"omitempty,oneof=completed cancelled no-show"`
	Diagnosis    *string                   `json:"diagnosis"`
	Prescription *string                   `json:"prescription"`
	Remarks      *string                   `json:"remarks"`
}

// UpdateAppointment handles PATCH /appointments/:id. The assigned doctor or
// an admin records the outcome of a visit.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	appt, err := h.Scheduler.UpdateAppointment(c.Param("id"), userID, userRole, scheduling.ClinicalUpdate{
		Status:       req.Status,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Remarks:      req.Remarks,
	})
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment updated successfully", appt)
}

// CancelAppointment handles PATCH /appointments/:id/cancel.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if err := h.Scheduler.CancelAppointment(c.Param("id"), userID, userRole); err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", nil)
}
