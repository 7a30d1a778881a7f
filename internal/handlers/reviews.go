package handlers

import (
	"errors"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReviewHandler handles doctor review requests.
type ReviewHandler struct {
	DB *gorm.DB
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{DB: db}
}

// CreateReviewRequest represents the request body for reviewing a doctor.
type CreateReviewRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required,uuid"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment"`
}

// CreateReview handles POST /reviews. A patient may review a doctor once per
// appointment, and only after the appointment was completed.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appt models.Appointment
	if err := h.DB.First(&appt, "id = ?", req.AppointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if appt.PatientID != userID {
		utils.Forbidden(c, "You can only review your own appointments")
		return
	}
	if appt.Status != models.StatusCompleted {
		utils.BadRequest(c, "Only completed appointments can be reviewed")
		return
	}

	review := models.Review{
		DoctorID:      appt.DoctorID,
		PatientID:     userID,
		AppointmentID: appt.ID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		// Fold the new rating into the doctor's aggregates.
		var doctor models.Doctor
		if err := tx.First(&doctor, "id = ?", appt.DoctorID).Error; err != nil {
			return err
		}
		total := doctor.AverageRating*float64(doctor.TotalRatings) + float64(req.Rating)
		doctor.TotalRatings++
		doctor.AverageRating = total / float64(doctor.TotalRatings)
		return tx.Save(&doctor).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Conflict(c, "This appointment has already been reviewed")
		} else {
			utils.InternalServerError(c, "Failed to create review: "+err.Error())
		}
		return
	}

	utils.Created(c, "Review created successfully", review)
}

// GetDoctorReviews handles GET /doctors/:id/reviews.
func (h *ReviewHandler) GetDoctorReviews(c *gin.Context) {
	var reviews []models.Review
	err := h.DB.Preload("Patient").
		Where("doctor_id = ?", c.Param("id")).
		Order("created_at desc").Find(&reviews).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch reviews: "+err.Error())
		return
	}
	utils.Success(c, "Reviews fetched successfully", reviews)
}
