package scheduling

import (
	"testing"

	"clinic-app-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetWeekly_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)
	doctor := seedDoctor(t, db)

	schedule := []models.DaySchedule{
		{Weekday: "Wednesday", Windows: []models.SlotWindow{{StartTime: "14:00", EndTime: "15:00"}}},
		{Weekday: "Monday", Windows: []models.SlotWindow{
			{StartTime: "10:00", EndTime: "11:00"},
			{StartTime: "09:00", EndTime: "10:00"},
		}},
	}
	require.NoError(t, store.SetWeekly(doctor.ID, schedule))

	got, err := store.GetWeekly(doctor.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Days come back Monday..Sunday, windows sorted by start time.
	assert.Equal(t, "Monday", got[0].Weekday)
	assert.Equal(t, []models.SlotWindow{
		{StartTime: "09:00", EndTime: "10:00"},
		{StartTime: "10:00", EndTime: "11:00"},
	}, got[0].Windows)
	assert.Equal(t, "Wednesday", got[1].Weekday)
}

func TestSetWeekly_ReplacesExistingTemplate(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)
	doctor := seedDoctor(t, db)

	require.NoError(t, store.SetWeekly(doctor.ID, mondayMorning()))
	require.NoError(t, store.SetWeekly(doctor.ID, []models.DaySchedule{
		{Weekday: "Friday", Windows: []models.SlotWindow{{StartTime: "08:00", EndTime: "09:00"}}},
	}))

	got, err := store.GetWeekly(doctor.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Friday", got[0].Weekday)
}

func TestSetWeekly_EmptyClearsTemplate(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)
	doctor := seedDoctor(t, db)

	require.NoError(t, store.SetWeekly(doctor.ID, mondayMorning()))
	require.NoError(t, store.SetWeekly(doctor.ID, nil))

	got, err := store.GetWeekly(doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetWeekly_Validation(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)
	doctor := seedDoctor(t, db)

	cases := []struct {
		name     string
		schedule []models.DaySchedule
	}{
		{
			name: "start after end",
			schedule: []models.DaySchedule{
				{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "11:00", EndTime: "10:00"}}},
			},
		},
		{
			name: "zero length window",
			schedule: []models.DaySchedule{
				{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "10:00", EndTime: "10:00"}}},
			},
		},
		{
			name: "overlapping windows",
			schedule: []models.DaySchedule{
				{Weekday: "Monday", Windows: []models.SlotWindow{
					{StartTime: "09:00", EndTime: "10:30"},
					{StartTime: "10:00", EndTime: "11:00"},
				}},
			},
		},
		{
			name: "unknown weekday",
			schedule: []models.DaySchedule{
				{Weekday: "Funday", Windows: []models.SlotWindow{{StartTime: "09:00", EndTime: "10:00"}}},
			},
		},
		{
			name: "duplicate weekday",
			schedule: []models.DaySchedule{
				{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "09:00", EndTime: "10:00"}}},
				{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "11:00", EndTime: "12:00"}}},
			},
		},
		{
			name: "malformed clock",
			schedule: []models.DaySchedule{
				{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "9am", EndTime: "10:00"}}},
			},
		},
		{
			name: "unpadded hour",
			schedule: []models.DaySchedule{
				{Weekday: "Monday", Windows: []models.SlotWindow{{StartTime: "9:00", EndTime: "10:00"}}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.SetWeekly(doctor.ID, tc.schedule)
			assert.ErrorIs(t, err, ErrInvalidAvailability)
		})
	}
}

func TestSetWeekly_UnpaddedHourCannotHideOverlap(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)
	doctor := seedDoctor(t, db)

	// "9:00" sorts after "10:00" as a string, which would slip an
	// overlapping window past the sorted adjacency check if non-canonical
	// clock forms were accepted.
	err := store.SetWeekly(doctor.ID, []models.DaySchedule{
		{Weekday: "Monday", Windows: []models.SlotWindow{
			{StartTime: "09:30", EndTime: "11:00"},
			{StartTime: "9:00", EndTime: "10:00"},
		}},
	})
	require.ErrorIs(t, err, ErrInvalidAvailability)

	got, err := store.GetWeekly(doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetWeekly_AdjacentWindowsAllowed(t *testing.T) {
	db := newTestDB(t)
	store := NewTemplateStore(db)
	doctor := seedDoctor(t, db)

	// Back-to-back windows share a boundary but do not overlap.
	err := store.SetWeekly(doctor.ID, []models.DaySchedule{
		{Weekday: "Tuesday", Windows: []models.SlotWindow{
			{StartTime: "09:00", EndTime: "10:00"},
			{StartTime: "10:00", EndTime: "11:00"},
		}},
	})
	assert.NoError(t, err)
}
