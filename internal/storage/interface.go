package storage

import (
	"time"

	"github.com/prescripto/prescripto/internal/models"
)

// Provider is the local persistence layer: preferences and an offline copy
// of the doctor directory. Session tokens live in the OS keyring, not here.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Path() string

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Doctor directory cache
	SaveDoctors(doctors []models.Doctor, fetchedAt time.Time) error
	CachedDoctors() ([]models.Doctor, time.Time, error)
	CachedDoctorsBySpeciality(speciality string) ([]models.Doctor, error)
	ClearDoctorCache() error
}
