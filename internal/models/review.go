package models

// Review is a patient's rating of a doctor after a completed appointment.
type Review struct {
	BaseModel
	DoctorID      string `gorm:"size:36;index" json:"doctorId"`
	PatientID     string `gorm:"size:36;index" json:"patientId"`
	AppointmentID string `gorm:"size:36;uniqueIndex" json:"appointmentId"`
	Rating        int    `gorm:"not null" json:"rating"`
	Comment       string `gorm:"type:text" json:"comment"`

	Doctor      Doctor      `gorm:"foreignKey:DoctorID" json:"-"`
	Patient     User        `gorm:"foreignKey:PatientID" json:"-"`
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
