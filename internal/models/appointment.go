package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

// Appointment represents a scheduled medical appointment on a concrete date.
// Records are soft state: cancellation flips the status but the row is kept
// for the patient's and doctor's history.
type Appointment struct {
	BaseModel
	DoctorID     string            `gorm:"size:36;index" json:"doctorId"`
	PatientID    string            `gorm:"size:36;index" json:"patientId"`
	Date         string            `gorm:"size:10;not null" json:"date"`
	StartTime    string            `gorm:"size:5;not null" json:"startTime"`
	EndTime      string            `gorm:"size:5;not null" json:"endTime"`
	Status       AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Symptoms     string            `gorm:"type:text" json:"symptoms"`
	Diagnosis    string            `gorm:"type:text" json:"diagnosis"`
	Prescription string            `gorm:"type:text" json:"prescription"`
	Remarks      string            `gorm:"type:text" json:"remarks"`

	// Relations
	Doctor  Doctor `gorm:"foreignKey:DoctorID" json:"-"`
	Patient User   `gorm:"foreignKey:PatientID" json:"-"`
}

// Window returns the appointment's time interval.
func (a Appointment) Window() SlotWindow {
	return SlotWindow{StartTime: a.StartTime, EndTime: a.EndTime}
}

// IsTerminal reports whether the status admits no further transitions.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}
