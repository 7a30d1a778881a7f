package handlers

import (
	"errors"

	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DepartmentHandler handles clinic department requests.
type DepartmentHandler struct {
	DB *gorm.DB
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(db *gorm.DB) *DepartmentHandler {
	return &DepartmentHandler{DB: db}
}

// GetDepartments handles fetching all departments.
func (h *DepartmentHandler) GetDepartments(c *gin.Context) {
	var departments []models.Department
	if err := h.DB.Order("name asc").Find(&departments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch departments: "+err.Error())
		return
	}
	utils.Success(c, "Departments fetched successfully", departments)
}

// GetDepartmentByID handles fetching a single department.
func (h *DepartmentHandler) GetDepartmentByID(c *gin.Context) {
	var department models.Department
	if err := h.DB.First(&department, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Department not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Department fetched successfully", department)
}

// DepartmentRequest represents the request body for creating or updating a department.
type DepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateDepartment handles creating a department (admin).
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	department := models.Department{Name: req.Name, Description: req.Description}
	if err := h.DB.Create(&department).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.BadRequest(c, "Department with this name already exists")
		} else {
			utils.InternalServerError(c, "Failed to create department: "+err.Error())
		}
		return
	}
	utils.Created(c, "Department created successfully", department)
}

// UpdateDepartment handles updating a department (admin).
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var department models.Department
	if err := h.DB.First(&department, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Department not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	department.Name = req.Name
	department.Description = req.Description
	if err := h.DB.Save(&department).Error; err != nil {
		utils.InternalServerError(c, "Failed to update department: "+err.Error())
		return
	}
	utils.Success(c, "Department updated successfully", department)
}

// DeleteDepartment handles deleting a department (admin).
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	var department models.Department
	if err := h.DB.First(&department, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Department not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var doctorCount int64
	if err := h.DB.Model(&models.Doctor{}).Where("department_id = ?", department.ID).Count(&doctorCount).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if doctorCount > 0 {
		utils.BadRequest(c, "Cannot delete a department that still has doctors")
		return
	}

	if err := h.DB.Delete(&department).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete department: "+err.Error())
		return
	}
	utils.Success(c, "Department deleted successfully", nil)
}
