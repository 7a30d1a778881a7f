package models

// SlotReservation is the durable record that a doctor's window on one
// concrete date is taken. The composite unique index is the single arbiter
// for double-booking: concurrent inserts for the same key resolve to exactly
// one winner at the storage layer, so no application-level locking is needed.
type SlotReservation struct {
	BaseModel
	DoctorID  string `gorm:"size:36;uniqueIndex:idx_doctor_date_slot;not null" json:"doctorId"`
	Date      string `gorm:"size:10;uniqueIndex:idx_doctor_date_slot;not null" json:"date"`
	StartTime string `gorm:"size:5;uniqueIndex:idx_doctor_date_slot;not null" json:"startTime"`
	EndTime   string `gorm:"size:5;uniqueIndex:idx_doctor_date_slot;not null" json:"endTime"`

	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// Window returns the reserved time interval.
func (r SlotReservation) Window() SlotWindow {
	return SlotWindow{StartTime: r.StartTime, EndTime: r.EndTime}
}
