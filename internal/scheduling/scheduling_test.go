package scheduling

import (
	"testing"
	"time"

	"clinic-app-server/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testToday pins "today" so date-bound tests stay stable.
// 2025-03-03 is a Monday.
var testToday = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testToday }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	// A single connection keeps the shared in-memory database visible to
	// every goroutine in the concurrency tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc := NewService(db, 3, 2, zerolog.Nop())
	svc.Allocator.Resolver = DateResolver{HorizonMonths: 3, Now: fixedNow}
	return svc
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role) models.User {
	t.Helper()
	user := models.User{
		Email:     string(role) + "-" + uuid.NewString() + "@clinic.test",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedDoctor(t *testing.T, db *gorm.DB) models.Doctor {
	t.Helper()
	user := seedUser(t, db, models.RoleDoctor)
	dept := models.Department{Name: "Cardiology-" + user.ID}
	require.NoError(t, db.Create(&dept).Error)
	doctor := models.Doctor{
		UserID:          user.ID,
		DepartmentID:    dept.ID,
		Specialization:  "Cardiology",
		ConsultationFee: 50,
	}
	require.NoError(t, db.Create(&doctor).Error)
	return doctor
}

func mondayMorning() []models.DaySchedule {
	return []models.DaySchedule{
		{
			Weekday: "Monday",
			Windows: []models.SlotWindow{
				{StartTime: "09:00", EndTime: "10:00"},
				{StartTime: "10:00", EndTime: "11:00"},
			},
		},
	}
}
