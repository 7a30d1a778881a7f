package scheduling

import (
	"errors"
	"fmt"
	"time"

	"clinic-app-server/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// defaultRetryDelay spaces out retries of transient storage failures.
const defaultRetryDelay = 50 * time.Millisecond

// Allocator reserves and releases concrete date/time slots. The uniqueness
// invariant lives in the slot_reservations composite unique index, not here:
// Reserve is an insert-if-absent, so two concurrent bookings for the same key
// resolve at the storage layer to exactly one winner and one ErrSlotTaken.
// The allocator itself holds no locks and no state.
type Allocator struct {
	DB        *gorm.DB
	Templates *TemplateStore
	Resolver  DateResolver
	Retries   int
	Log       zerolog.Logger
}

// NewAllocator creates a slot allocator backed by db.
func NewAllocator(db *gorm.DB, templates *TemplateStore, resolver DateResolver, retries int, log zerolog.Logger) *Allocator {
	return &Allocator{DB: db, Templates: templates, Resolver: resolver, Retries: retries, Log: log}
}

// Reserve atomically claims window for the doctor on date.
//
// The window must exactly match one of the weekly template's windows for the
// resolved weekday (partial sub-intervals are rejected). Transient storage
// errors are retried a bounded number of times; a duplicate-key conflict is
// terminal and surfaces as ErrSlotTaken immediately.
func (a *Allocator) Reserve(doctorID, date string, window models.SlotWindow) (*models.SlotReservation, error) {
	weekday, err := a.Resolver.Resolve(date)
	if err != nil {
		return nil, err
	}

	windows, err := a.Templates.dayWindows(doctorID, weekday)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: doctor does not work on %s", ErrNotAvailable, weekday)
	}
	if !containsWindow(windows, window) {
		return nil, fmt.Errorf("%w: no %s-%s window on %s", ErrNotAvailable, window.StartTime, window.EndTime, weekday)
	}

	reservation := models.SlotReservation{
		DoctorID:  doctorID,
		Date:      date,
		StartTime: window.StartTime,
		EndTime:   window.EndTime,
	}

	var lastErr error
	for attempt := 0; attempt <= a.Retries; attempt++ {
		err := a.DB.Create(&reservation).Error
		if err == nil {
			return &reservation, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			a.Log.Debug().
				Str("doctorId", doctorID).
				Str("date", date).
				Str("window", window.StartTime+"-"+window.EndTime).
				Msg("reservation conflict, slot already taken")
			return nil, fmt.Errorf("%w: %s %s-%s", ErrSlotTaken, date, window.StartTime, window.EndTime)
		}
		lastErr = err
		if attempt < a.Retries {
			a.Log.Warn().Err(err).Int("attempt", attempt+1).Msg("transient reservation failure, retrying")
			time.Sleep(defaultRetryDelay)
		}
	}
	return nil, fmt.Errorf("%w: reserving slot: %v", ErrStorageUnavailable, lastErr)
}

// Release frees the reservation for the key if one exists. Idempotent:
// releasing an absent reservation is a no-op.
func (a *Allocator) Release(doctorID, date string, window models.SlotWindow) error {
	err := a.DB.Where(
		"doctor_id = ? AND date = ? AND start_time = ? AND end_time = ?",
		doctorID, date, window.StartTime, window.EndTime,
	).Delete(&models.SlotReservation{}).Error
	if err != nil {
		return fmt.Errorf("%w: releasing slot: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ListAvailable returns the doctor's open windows on date: the weekly
// template for the resolved weekday minus that date's active reservations.
// Computed fresh on every call; reservations change continuously, so the
// result is a snapshot that Reserve re-checks authoritatively.
func (a *Allocator) ListAvailable(doctorID, date string) ([]models.SlotWindow, error) {
	weekday, err := a.Resolver.Resolve(date)
	if err != nil {
		return nil, err
	}

	windows, err := a.Templates.dayWindows(doctorID, weekday)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []models.SlotWindow{}, nil
	}

	var reservations []models.SlotReservation
	if err := a.DB.Where("doctor_id = ? AND date = ?", doctorID, date).
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("%w: loading reservations: %v", ErrStorageUnavailable, err)
	}

	taken := make(map[models.SlotWindow]bool, len(reservations))
	for _, r := range reservations {
		taken[r.Window()] = true
	}

	available := make([]models.SlotWindow, 0, len(windows))
	for _, w := range windows {
		if !taken[w] {
			available = append(available, w)
		}
	}
	return available, nil
}

func containsWindow(windows []models.SlotWindow, want models.SlotWindow) bool {
	for _, w := range windows {
		if w == want {
			return true
		}
	}
	return false
}
