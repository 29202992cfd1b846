package model

// Site is a construction site. Code prefixes uploaded file names.
type Site struct {
	BaseModel
	Code     string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code" validate:"required,max=20,alphanum"`
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Location string `gorm:"type:varchar(255)" json:"location"`
}
