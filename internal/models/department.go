package models

// Department represents a clinic department (e.g. Cardiology)
type Department struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Doctors []Doctor `gorm:"foreignKey:DepartmentID" json:"-"`
}
