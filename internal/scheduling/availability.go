package scheduling

import (
	"fmt"
	"sort"
	"time"

	"clinic-app-server/internal/models"

	"gorm.io/gorm"
)

// weekdayOrder fixes the presentation order of a weekly template.
var weekdayOrder = map[string]int{
	time.Monday.String():    0,
	time.Tuesday.String():   1,
	time.Wednesday.String(): 2,
	time.Thursday.String():  3,
	time.Friday.String():    4,
	time.Saturday.String():  5,
	time.Sunday.String():    6,
}

// TemplateStore owns each doctor's recurring weekly schedule. It is a
// template only: whether a particular date's window is taken is the
// allocator's business, never recorded here.
type TemplateStore struct {
	DB *gorm.DB
}

// NewTemplateStore creates a new TemplateStore.
func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{DB: db}
}

// GetWeekly returns the doctor's weekly template grouped by weekday,
// ordered Monday through Sunday with windows sorted by start time.
func (s *TemplateStore) GetWeekly(doctorID string) ([]models.DaySchedule, error) {
	var rows []models.AvailabilityWindow
	if err := s.DB.Where("doctor_id = ?", doctorID).
		Order("weekday asc, start_time asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: loading weekly availability: %v", ErrStorageUnavailable, err)
	}

	byDay := make(map[string][]models.SlotWindow)
	for _, row := range rows {
		byDay[row.Weekday] = append(byDay[row.Weekday], row.Window())
	}

	schedule := make([]models.DaySchedule, 0, len(byDay))
	for day, windows := range byDay {
		sort.Slice(windows, func(i, j int) bool { return windows[i].StartTime < windows[j].StartTime })
		schedule = append(schedule, models.DaySchedule{Weekday: day, Windows: windows})
	}
	sort.Slice(schedule, func(i, j int) bool {
		return weekdayOrder[schedule[i].Weekday] < weekdayOrder[schedule[j].Weekday]
	})
	return schedule, nil
}

// SetWeekly validates and replaces the doctor's entire weekly template.
// Replacing the template never touches reservations, so a doctor editing
// their schedule cannot race with a patient booking a date.
func (s *TemplateStore) SetWeekly(doctorID string, schedule []models.DaySchedule) error {
	if err := validateSchedule(schedule); err != nil {
		return err
	}

	rows := make([]models.AvailabilityWindow, 0)
	for _, day := range schedule {
		for _, w := range day.Windows {
			rows = append(rows, models.AvailabilityWindow{
				DoctorID:  doctorID,
				Weekday:   day.Weekday,
				StartTime: w.StartTime,
				EndTime:   w.EndTime,
			})
		}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).
			Delete(&models.AvailabilityWindow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("%w: saving weekly availability: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// dayWindows returns the template windows for one weekday, sorted by start.
func (s *TemplateStore) dayWindows(doctorID, weekday string) ([]models.SlotWindow, error) {
	var rows []models.AvailabilityWindow
	if err := s.DB.Where("doctor_id = ? AND weekday = ?", doctorID, weekday).
		Order("start_time asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: loading weekday availability: %v", ErrStorageUnavailable, err)
	}
	windows := make([]models.SlotWindow, len(rows))
	for i, row := range rows {
		windows[i] = row.Window()
	}
	return windows, nil
}

func validateSchedule(schedule []models.DaySchedule) error {
	seenDay := make(map[string]bool)
	for _, day := range schedule {
		if _, ok := weekdayOrder[day.Weekday]; !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidAvailability, day.Weekday)
		}
		if seenDay[day.Weekday] {
			return fmt.Errorf("%w: duplicate weekday %q", ErrInvalidAvailability, day.Weekday)
		}
		seenDay[day.Weekday] = true

		windows := make([]models.SlotWindow, len(day.Windows))
		copy(windows, day.Windows)
		sort.Slice(windows, func(i, j int) bool { return windows[i].StartTime < windows[j].StartTime })

		for i, w := range windows {
			start, err := parseClock(w.StartTime)
			if err != nil {
				return fmt.Errorf("%w: bad start time %q", ErrInvalidAvailability, w.StartTime)
			}
			end, err := parseClock(w.EndTime)
			if err != nil {
				return fmt.Errorf("%w: bad end time %q", ErrInvalidAvailability, w.EndTime)
			}
			if !start.Before(end) {
				return fmt.Errorf("%w: window %s-%s must start before it ends", ErrInvalidAvailability, w.StartTime, w.EndTime)
			}
			if i > 0 && windows[i-1].EndTime > w.StartTime {
				return fmt.Errorf("%w: windows %s-%s and %s-%s overlap on %s",
					ErrInvalidAvailability,
					windows[i-1].StartTime, windows[i-1].EndTime,
					w.StartTime, w.EndTime, day.Weekday)
			}
		}
	}
	return nil
}
