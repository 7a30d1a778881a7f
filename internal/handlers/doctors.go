package handlers

import (
	"errors"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/scheduling"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DoctorHandler handles doctor profile requests, including the weekly
// availability template that feeds the scheduling engine.
type DoctorHandler struct {
	DB        *gorm.DB
	Scheduler *scheduling.Service
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB, scheduler *scheduling.Service) *DoctorHandler {
	return &DoctorHandler{DB: db, Scheduler: scheduler}
}

// GetDoctors handles fetching all doctor profiles.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	var doctors []models.Doctor
	query := h.DB.Preload("User").Preload("Department").Order("created_at desc")
	if departmentID := c.Query("departmentId"); departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID handles fetching a single doctor profile.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	var doctor models.Doctor
	err := h.DB.Preload("User").Preload("Department").First(&doctor, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor)
}

// CreateDoctorRequest represents the request body for creating a doctor profile.
type CreateDoctorRequest struct {
	UserID          string  `json:"userId" binding:"required,uuid"`
	DepartmentID    string  `json:"departmentId" binding:"required,uuid"`
	Specialization  string  `json:"specialization" binding:"required"`
	Experience      int     `json:"experience"`
	Qualifications  string  `json:"qualifications"`
	Bio             string  `json:"bio" binding:"required"`
	ConsultationFee float64 `json:"consultationFee" binding:"required"`
}

// CreateDoctor handles creating a doctor profile for an existing user (admin).
// The user is promoted to the doctor role if needed.
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existing models.Doctor
	if err := h.DB.Where("user_id = ?", req.UserID).First(&existing).Error; err == nil {
		utils.BadRequest(c, "Doctor profile already exists for this user")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if user.Role != models.RoleDoctor {
		user.Role = models.RoleDoctor
		if err := h.DB.Save(&user).Error; err != nil {
			utils.InternalServerError(c, "Failed to update user role: "+err.Error())
			return
		}
	}

	doctor := models.Doctor{
		UserID:          req.UserID,
		DepartmentID:    req.DepartmentID,
		Specialization:  req.Specialization,
		Experience:      req.Experience,
		Qualifications:  req.Qualifications,
		Bio:             req.Bio,
		ConsultationFee: req.ConsultationFee,
	}
	if err := h.DB.Create(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to create doctor profile: "+err.Error())
		return
	}
	utils.Created(c, "Doctor profile created successfully", doctor)
}

// UpdateDoctorRequest represents the request body for updating a doctor profile.
type UpdateDoctorRequest struct {
	DepartmentID    *string  `json:"departmentId"`
	Specialization  *string  `json:"specialization"`
	Experience      *int     `json:"experience"`
	Qualifications  *string  `json:"qualifications"`
	Bio             *string  `json:"bio"`
	ConsultationFee *float64 `json:"consultationFee"`
}

// UpdateDoctor handles updating a doctor profile (admin or the doctor themselves).
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	var req UpdateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor, ok := h.loadAuthorizedDoctor(c)
	if !ok {
		return
	}

	if req.DepartmentID != nil {
		doctor.DepartmentID = *req.DepartmentID
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.Qualifications != nil {
		doctor.Qualifications = *req.Qualifications
	}
	if req.Bio != nil {
		doctor.Bio = *req.Bio
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}

	if err := h.DB.Save(doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update doctor profile: "+err.Error())
		return
	}
	utils.Success(c, "Doctor profile updated successfully", doctor)
}

// GetAvailability handles GET /doctors/:id/availability.
func (h *DoctorHandler) GetAvailability(c *gin.Context) {
	schedule, err := h.Scheduler.Templates.GetWeekly(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Availability fetched successfully", schedule)
}

// UpdateAvailabilityRequest represents the request body for replacing a
// doctor's weekly availability template.
type UpdateAvailabilityRequest struct {
	Availability []models.DaySchedule `json:"availability" binding:"required"`
}

// UpdateAvailability handles PUT /doctors/:id/availability. The template is
// the doctor's recurring weekly offer; per-date bookings are tracked by the
// scheduling engine and are unaffected by template edits.
func (h *DoctorHandler) UpdateAvailability(c *gin.Context) {
	var req UpdateAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctor, ok := h.loadAuthorizedDoctor(c)
	if !ok {
		return
	}

	if err := h.Scheduler.Templates.SetWeekly(doctor.ID, req.Availability); err != nil {
		schedulingError(c, err)
		return
	}

	schedule, err := h.Scheduler.Templates.GetWeekly(doctor.ID)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Availability updated successfully", schedule)
}

// DeleteDoctor handles removing a doctor profile (admin).
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if err := h.DB.Delete(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete doctor profile: "+err.Error())
		return
	}
	utils.Success(c, "Doctor profile removed successfully", nil)
}

// loadAuthorizedDoctor fetches the doctor in :id and checks the caller is an
// admin or the owning user. Writes the error response itself on failure.
func (h *DoctorHandler) loadAuthorizedDoctor(c *gin.Context) (*models.Doctor, bool) {
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleAdmin && doctor.UserID != userID {
		utils.Forbidden(c, "Not authorized to update this doctor profile")
		return nil, false
	}
	return &doctor, true
}
