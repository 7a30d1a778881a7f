package models

// Doctor represents a doctor profile attached to a user account
type Doctor struct {
	BaseModel
	UserID          string  `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	DepartmentID    string  `gorm:"size:36;index;not null" json:"departmentId"`
	Specialization  string  `gorm:"size:255;not null" json:"specialization"`
	Experience      int     `gorm:"default:0" json:"experience"`
	Qualifications  string  `gorm:"size:255" json:"qualifications"`
	Bio             string  `gorm:"type:text" json:"bio"`
	ConsultationFee float64 `gorm:"not null" json:"consultationFee"`
	AverageRating   float64 `gorm:"default:0" json:"averageRating"`
	TotalRatings    int     `gorm:"default:0" json:"totalRatings"`

	// Relations
	User         User                 `gorm:"foreignKey:UserID" json:"-"`
	Department   Department           `gorm:"foreignKey:DepartmentID" json:"-"`
	Availability []AvailabilityWindow `gorm:"foreignKey:DoctorID" json:"-"`
	Appointments []Appointment        `gorm:"foreignKey:DoctorID" json:"-"`
}
