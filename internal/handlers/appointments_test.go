package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-app-server/internal/handlers"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/scheduling"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	router  *gin.Engine
	db      *gorm.DB
	svc     *scheduling.Service
	doctor  models.Doctor
	patient models.User
	// actAs is consulted by the stub auth middleware before each request
	actAs *models.User
}

// newFixture wires the appointment handler behind a stub auth middleware so
// requests run as f.actAs without real JWTs.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	// One connection keeps the pool on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := scheduling.NewService(db, 3, 2, zerolog.Nop())
	svc.Allocator.Resolver = scheduling.DateResolver{
		HorizonMonths: 3,
		Now:           func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}

	f := &fixture{db: db, svc: svc}

	h := handlers.NewAppointmentHandler(svc)
	router := gin.New()
	authed := router.Group("/api/v1")
	authed.Use(func(c *gin.Context) {
		if f.actAs != nil {
			c.Set("userID", f.actAs.ID)
			c.Set("userRole", f.actAs.Role)
		}
		c.Next()
	})
	authed.GET("/doctors/:id/slots", h.GetAvailableSlots)
	authed.POST("/appointments", h.BookAppointment)
	authed.GET("/appointments/:id", h.GetAppointmentByID)
	authed.PATCH("/appointments/:id", h.UpdateAppointment)
	authed.PATCH("/appointments/:id/cancel", h.CancelAppointment)
	f.router = router

	// Seed a doctor with a Monday template and a patient.
	doctorUser := models.User{Email: "doc@clinic.test", Role: models.RoleDoctor}
	require.NoError(t, doctorUser.SetPassword("password123"))
	require.NoError(t, db.Create(&doctorUser).Error)
	dept := models.Department{Name: "Cardiology"}
	require.NoError(t, db.Create(&dept).Error)
	f.doctor = models.Doctor{UserID: doctorUser.ID, DepartmentID: dept.ID, Specialization: "Cardiology", ConsultationFee: 50}
	require.NoError(t, db.Create(&f.doctor).Error)
	require.NoError(t, svc.Templates.SetWeekly(f.doctor.ID, []models.DaySchedule{
		{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "09:00", EndTime: "10:00"}}},
	}))

	f.patient = models.User{Email: "pat@clinic.test", Role: models.RolePatient}
	require.NoError(t, f.patient.SetPassword("password123"))
	require.NoError(t, db.Create(&f.patient).Error)
	f.actAs = &f.patient

	return f
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) book(date string) *httptest.ResponseRecorder {
	return f.do(http.MethodPost, "/api/v1/appointments", gin.H{
		"doctorId":  f.doctor.ID,
		"date":      date,
		"startTime": "09:00",
		"endTime":   "10:00",
		"symptoms":  "chest pain",
	})
}

func TestBookAppointmentEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.book("2025-03-03")
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusScheduled, resp.Data.Status)
	assert.Equal(t, f.patient.ID, resp.Data.PatientID)
}

func TestBookAppointmentEndpoint_Conflict(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusCreated, f.book("2025-03-03").Code)

	// The race loser gets a 409, not the 400 of "doctor doesn't work then".
	assert.Equal(t, http.StatusConflict, f.book("2025-03-03").Code)
}

func TestBookAppointmentEndpoint_BadDates(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.book("2025-02-01").Code)  // past
	assert.Equal(t, http.StatusBadRequest, f.book("2025-03-05").Code)  // no Wednesday template
	assert.Equal(t, http.StatusBadRequest, f.book("not-a-date").Code)
}

func TestGetAvailableSlotsEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, fmt.Sprintf("/api/v1/doctors/%s/slots?date=2025-03-03", f.doctor.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.SlotWindow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []models.SlotWindow{{StartTime: "09:00", EndTime: "10:00"}}, resp.Data)

	// Booked slots disappear from the listing.
	require.Equal(t, http.StatusCreated, f.book("2025-03-03").Code)
	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/doctors/%s/slots?date=2025-03-03", f.doctor.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestGetAvailableSlotsEndpoint_MissingDate(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, fmt.Sprintf("/api/v1/doctors/%s/slots", f.doctor.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.book("2025-03-03")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// A stranger may not cancel.
	stranger := models.User{Email: "other@clinic.test", Role: models.RolePatient}
	require.NoError(t, stranger.SetPassword("password123"))
	require.NoError(t, f.db.Create(&stranger).Error)
	f.actAs = &stranger
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPatch, "/api/v1/appointments/"+resp.Data.ID+"/cancel", nil).Code)

	// The owner may, once.
	f.actAs = &f.patient
	assert.Equal(t, http.StatusOK, f.do(http.MethodPatch, "/api/v1/appointments/"+resp.Data.ID+"/cancel", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPatch, "/api/v1/appointments/"+resp.Data.ID+"/cancel", nil).Code)

	// And the slot is bookable again.
	assert.Equal(t, http.StatusCreated, f.book("2025-03-03").Code)
}
