package scheduler

import "github.com/prescripto/prescripto/internal/models"

type fieldMerge struct {
	key   string
	apply func(dst *models.Doctor, src models.Doctor)
}

var doctorFields = []fieldMerge{
	{"_id", func(dst *models.Doctor, src models.Doctor) { dst.ID = src.ID }},
	{"name", func(dst *models.Doctor, src models.Doctor) { dst.Name = src.Name }},
	{"email", func(dst *models.Doctor, src models.Doctor) { dst.Email = src.Email }},
	{"image", func(dst *models.Doctor, src models.Doctor) { dst.Image = src.Image }},
	{"speciality", func(dst *models.Doctor, src models.Doctor) { dst.Speciality = src.Speciality }},
	{"degree", func(dst *models.Doctor, src models.Doctor) { dst.Degree = src.Degree }},
	{"experience", func(dst *models.Doctor, src models.Doctor) { dst.Experience = src.Experience }},
	{"about", func(dst *models.Doctor, src models.Doctor) { dst.About = src.About }},
	{"available", func(dst *models.Doctor, src models.Doctor) { dst.Available = src.Available }},
	{"fees", func(dst *models.Doctor, src models.Doctor) { dst.Fees = src.Fees }},
	{"address", func(dst *models.Doctor, src models.Doctor) { dst.Address = src.Address }},
}

// Reconcile merges a freshly fetched record onto the one currently held.
// Fields present in fresh always win. The booking map is taken from fresh when
// present (even if empty) and reset to an empty map when fresh omits it.
func Reconcile(current, fresh models.Doctor) models.Doctor {
	merged := current
	merged.SlotsBooked = nil

	for _, f := range doctorFields {
		if fresh.HasField(f.key) {
			f.apply(&merged, fresh)
		}
	}

	booked := models.BookedSlots{}
	if fresh.HasField("slots_booked") {
		for k, v := range fresh.SlotsBooked {
			booked[k] = append([]string(nil), v...)
		}
	}
	merged.SlotsBooked = booked
	merged.ClearFieldSet()

	return merged
}
