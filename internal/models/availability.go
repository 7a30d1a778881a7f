package models

// SlotWindow is a single bookable time interval within a day.
// Times use the 24h "HH:MM" format.
type SlotWindow struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// DaySchedule groups a weekday's template windows.
type DaySchedule struct {
	Weekday string       `json:"weekday"`
	Windows []SlotWindow `json:"windows"`
}

// AvailabilityWindow is one row of a doctor's recurring weekly template.
// It records that the doctor offers this window every week on this weekday;
// it never records whether a particular date is booked. Per-date bookings
// live in SlotReservation.
type AvailabilityWindow struct {
	BaseModel
	DoctorID  string `gorm:"size:36;index:idx_doctor_weekday;not null" json:"doctorId"`
	Weekday   string `gorm:"size:10;index:idx_doctor_weekday;not null" json:"weekday"`
	StartTime string `gorm:"size:5;not null" json:"startTime"`
	EndTime   string `gorm:"size:5;not null" json:"endTime"`

	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// Window returns the row's time interval.
func (w AvailabilityWindow) Window() SlotWindow {
	return SlotWindow{StartTime: w.StartTime, EndTime: w.EndTime}
}
