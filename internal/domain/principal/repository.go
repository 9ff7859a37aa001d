package principal

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrPrincipalNotFound is returned when a principal is not found
	ErrPrincipalNotFound = errors.New("principal not found")
)

// Repository is the read-only directory contract. The token engine only ever
// looks principals up; their lifecycle is owned elsewhere.
type Repository interface {
	FindByID(id uuid.UUID) (*Principal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new principal repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// FindByID gets a principal by ID
func (r *repository) FindByID(id uuid.UUID) (*Principal, error) {
	var p Principal
	if err := r.db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return &p, nil
}
