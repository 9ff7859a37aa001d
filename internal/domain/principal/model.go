package principal

import "github.com/Anvoria/tokenly/internal/database"

// Principal is the read-only projection of the external user directory this
// engine consults at issuance: an opaque identifier plus a role claim.
type Principal struct {
	database.BaseModel
	Role     string `gorm:"column:role;not null"`
	IsActive bool   `gorm:"column:is_active;default:true"`
}

func (Principal) TableName() string {
	return "principals"
}
