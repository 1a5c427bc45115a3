package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prescripto/prescripto/internal/models"
)

// SaveDoctors replaces the cached directory with the given listing.
func (s *Store) SaveDoctors(doctors []models.Doctor, fetchedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM doctor_cache"); err != nil {
		return fmt.Errorf("failed to clear doctor cache: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO doctor_cache (id, position, payload, fetched_at, speciality) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range doctors {
		payload, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode doctor %s: %w", d.ID, err)
		}
		if _, err := stmt.Exec(d.ID, i, string(payload), fetchedAt.UnixMilli(), d.Speciality); err != nil {
			return fmt.Errorf("failed to cache doctor %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// CachedDoctors returns the cached listing in its original order and the
// time it was fetched. An empty cache returns a nil slice and zero time.
func (s *Store) CachedDoctors() ([]models.Doctor, time.Time, error) {
	rows, err := s.db.Query("SELECT payload, fetched_at FROM doctor_cache ORDER BY position")
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var (
		doctors   []models.Doctor
		fetchedAt int64
	)
	for rows.Next() {
		d, ts, err := scanDoctor(rows)
		if err != nil {
			return nil, time.Time{}, err
		}
		doctors = append(doctors, d)
		fetchedAt = ts
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	if len(doctors) == 0 {
		return nil, time.Time{}, nil
	}
	return doctors, time.UnixMilli(fetchedAt), nil
}

// CachedDoctorsBySpeciality filters the cached listing by exact speciality.
func (s *Store) CachedDoctorsBySpeciality(speciality string) ([]models.Doctor, error) {
	rows, err := s.db.Query("SELECT payload, fetched_at FROM doctor_cache WHERE speciality = ? ORDER BY position", speciality)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		d, _, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (s *Store) ClearDoctorCache() error {
	_, err := s.db.Exec("DELETE FROM doctor_cache")
	return err
}

func scanDoctor(rows *sql.Rows) (models.Doctor, int64, error) {
	var (
		payload string
		ts      int64
	)
	if err := rows.Scan(&payload, &ts); err != nil {
		return models.Doctor{}, 0, err
	}
	var d models.Doctor
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return models.Doctor{}, 0, fmt.Errorf("failed to decode cached doctor: %w", err)
	}
	return d, ts, nil
}
