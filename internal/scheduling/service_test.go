package scheduling

import (
	"sync"
	"testing"

	"clinic-app-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingFixture(t *testing.T) (*Service, models.Doctor, models.User) {
	t.Helper()
	db := newTestDB(t)
	svc := newTestService(t, db)
	doctor := seedDoctor(t, db)
	patient := seedUser(t, db, models.RolePatient)
	require.NoError(t, svc.Templates.SetWeekly(doctor.ID, mondayMorning()))
	return svc, doctor, patient
}

func TestBookAppointment(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)

	appt, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "chest pain")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.Equal(t, "chest pain", appt.Symptoms)
	assert.NotEmpty(t, appt.ID)
}

func TestBookAppointment_UnknownDoctor(t *testing.T) {
	svc, _, patient := newBookingFixture(t)

	_, err := svc.BookAppointment(patient.ID, "no-such-doctor", "2025-03-03", slot0900, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookAppointment_UnknownPatient(t *testing.T) {
	svc, doctor, _ := newBookingFixture(t)

	_, err := svc.BookAppointment("no-such-patient", doctor.ID, "2025-03-03", slot0900, "")
	require.ErrorIs(t, err, ErrNotFound)

	// A user without the patient role is no better than a missing one.
	other := seedUser(t, svc.DB, models.RoleDoctor)
	_, err = svc.BookAppointment(other.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.ErrorIs(t, err, ErrNotFound)

	// The rejected bookings must not have consumed the slot.
	open, err := svc.GetAvailableSlots(doctor.ID, "2025-03-03")
	require.NoError(t, err)
	assert.Contains(t, open, slot0900)
}

func TestGetAllAppointments(t *testing.T) {
	svc, doctor, p1 := newBookingFixture(t)
	p2 := seedUser(t, svc.DB, models.RolePatient)

	_, err := svc.BookAppointment(p1.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)
	_, err = svc.BookAppointment(p2.ID, doctor.ID, "2025-03-10", slot0900, "")
	require.NoError(t, err)

	appts, err := svc.GetAllAppointments()
	require.NoError(t, err)
	require.Len(t, appts, 2)
	// Newest date first.
	assert.Equal(t, "2025-03-10", appts[0].Date)
	assert.Equal(t, "2025-03-03", appts[1].Date)
}

func TestBookAppointment_ErrorKinds(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)

	// Past date.
	_, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-02-01", slot0900, "")
	assert.ErrorIs(t, err, ErrInvalidDate)

	// Weekday without template coverage.
	_, err = svc.BookAppointment(patient.ID, doctor.ID, "2025-03-06", slot0900, "")
	assert.ErrorIs(t, err, ErrNotAvailable)
}

// The scenario from the booking flow: P1 books, P2 collides, P1 cancels,
// P2 retries and gets the slot.
func TestBookCancelRebook(t *testing.T) {
	svc, doctor, p1 := newBookingFixture(t)
	p2 := seedUser(t, svc.DB, models.RolePatient)

	appt1, err := svc.BookAppointment(p1.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, appt1.Status)

	_, err = svc.BookAppointment(p2.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.ErrorIs(t, err, ErrSlotTaken)

	require.NoError(t, svc.CancelAppointment(appt1.ID, p1.ID, models.RolePatient))

	got, err := svc.Appointments.Get(appt1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	// The exact window is open again.
	open, err := svc.GetAvailableSlots(doctor.ID, "2025-03-03")
	require.NoError(t, err)
	assert.Contains(t, open, slot0900)

	appt2, err := svc.BookAppointment(p2.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)
	assert.Equal(t, p2.ID, appt2.PatientID)

	// The cancelled record is retained for history.
	history, err := svc.GetAppointmentsForPatient(p1.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusCancelled, history[0].Status)
}

func TestSameWeeklyWindowOnTwoDates(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)

	_, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)

	// Booking one Monday must not consume the weekly template: the next
	// Monday stays bookable.
	_, err = svc.BookAppointment(patient.ID, doctor.ID, "2025-03-10", slot0900, "")
	assert.NoError(t, err)
}

func TestCancelAppointment_Authorization(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)
	stranger := seedUser(t, svc.DB, models.RolePatient)

	appt, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)

	// Another patient may not cancel.
	err = svc.CancelAppointment(appt.ID, stranger.ID, models.RolePatient)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The assigned doctor may.
	require.NoError(t, svc.CancelAppointment(appt.ID, doctor.UserID, models.RoleDoctor))
}

func TestCancelAppointment_AlreadyTerminal(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)

	appt, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)

	admin := seedUser(t, svc.DB, models.RoleAdmin)
	_, err = svc.UpdateAppointment(appt.ID, admin.ID, models.RoleAdmin, ClinicalUpdate{
		Status: statusPtr(models.StatusCompleted),
	})
	require.NoError(t, err)

	err = svc.CancelAppointment(appt.ID, admin.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateAppointment_Authorization(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)
	otherDoctor := seedDoctor(t, svc.DB)

	appt, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)

	// Patients never edit clinical fields.
	_, err = svc.UpdateAppointment(appt.ID, patient.ID, models.RolePatient, ClinicalUpdate{
		Diagnosis: strPtr("self-diagnosis"),
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Neither does an unassigned doctor.
	_, err = svc.UpdateAppointment(appt.ID, otherDoctor.UserID, models.RoleDoctor, ClinicalUpdate{
		Diagnosis: strPtr("drive-by diagnosis"),
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The assigned doctor does.
	got, err := svc.UpdateAppointment(appt.ID, doctor.UserID, models.RoleDoctor, ClinicalUpdate{
		Status:    statusPtr(models.StatusCompleted),
		Diagnosis: strPtr("angina"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "angina", got.Diagnosis)
}

func TestUpdateAppointment_CancelReleasesSlot(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)

	appt, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)

	// Cancelling through the update door must free the slot too.
	got, err := svc.UpdateAppointment(appt.ID, doctor.UserID, models.RoleDoctor, ClinicalUpdate{
		Status:  statusPtr(models.StatusCancelled),
		Remarks: strPtr("patient called in"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, "patient called in", got.Remarks)

	open, err := svc.GetAvailableSlots(doctor.ID, "2025-03-03")
	require.NoError(t, err)
	assert.Contains(t, open, slot0900)
}

func TestGetAppointment_Authorization(t *testing.T) {
	svc, doctor, patient := newBookingFixture(t)
	stranger := seedUser(t, svc.DB, models.RolePatient)

	appt, err := svc.BookAppointment(patient.ID, doctor.ID, "2025-03-03", slot0900, "")
	require.NoError(t, err)

	_, err = svc.GetAppointment(appt.ID, patient.ID, models.RolePatient)
	assert.NoError(t, err)

	_, err = svc.GetAppointment(appt.ID, stranger.ID, models.RolePatient)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestBookAppointment_ConcurrentSingleWinner(t *testing.T) {
	svc, doctor, _ := newBookingFixture(t)

	const callers = 12
	patients := make([]models.User, callers)
	for i := range patients {
		patients[i] = seedUser(t, svc.DB, models.RolePatient)
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.BookAppointment(patients[i].ID, doctor.ID, "2025-03-03", slot0900, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent booking must win")

	// At most one non-cancelled appointment exists for the key.
	var count int64
	err := svc.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND start_time = ? AND status <> ?",
			doctor.ID, "2025-03-03", "09:00", models.StatusCancelled).
		Count(&count).Error
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
