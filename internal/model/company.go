package model

// CompanyProfile is the issuing company printed on every invoice. A single
// row is expected.
type CompanyProfile struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"type:varchar(100);not null"`
	Address string `gorm:"type:varchar(200)"`
	Phone   string `gorm:"type:varchar(30)"`
	Email   string `gorm:"type:varchar(120)"`
	LegalID string `gorm:"type:varchar(30)"`
}

func (CompanyProfile) TableName() string { return "company_profile" }
