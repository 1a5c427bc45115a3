package scheduler

import (
	"fmt"
	"time"

	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/utils"
)

// Scheduler derives bookable slot grids from a doctor's booking map.
// It holds no state between calls; every method is a pure function of its inputs.
type Scheduler struct {
	days      int
	openHour  int
	closeHour int
	step      time.Duration
	lead      time.Duration
}

func New() *Scheduler {
	return &Scheduler{
		days:      constants.WindowDays,
		openHour:  constants.DayOpenHour,
		closeHour: constants.DayCloseHour,
		step:      constants.SlotStep,
		lead:      constants.SameDayLeadTime,
	}
}

// GenerateWeek returns one DaySlots per day starting at now's calendar date.
// A missing booking map is treated as empty.
func (s *Scheduler) GenerateWeek(doctor models.Doctor, now time.Time) []models.DaySlots {
	booked := doctor.SlotsBooked
	loc := now.Location()
	week := make([]models.DaySlots, 0, s.days)

	for i := 0; i < s.days; i++ {
		date := time.Date(now.Year(), now.Month(), now.Day()+i,
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), loc)
		y, m, d := date.Date()

		day := models.DaySlots{
			Date:    time.Date(y, m, d, 0, 0, 0, 0, loc),
			DateKey: utils.DateKey(date),
		}

		end := time.Date(y, m, d, s.closeHour, 0, 0, 0, loc)
		start := time.Date(y, m, d, s.openHour, 0, 0, 0, loc)
		if i == 0 {
			start = s.DayZeroStart(now)
		}

		for t := start; t.Before(end); t = t.Add(s.step) {
			hhmm := utils.ClockTime(t)
			day.Slots = append(day.Slots, models.Slot{
				DateKey:  day.DateKey,
				Start:    t,
				Time:     hhmm,
				IsBooked: booked.HasAt(day.DateKey, t.Hour(), t.Minute()),
			})
		}

		week = append(week, day)
	}

	return week
}

// DayZeroStart returns the first candidate slot for today: one hour from now,
// with the minute snapped to :00 when now's minute is at most 30 and to :30 otherwise.
// Seconds are dropped so slot times stay on the half-hour grid.
func (s *Scheduler) DayZeroStart(now time.Time) time.Time {
	t := now.Add(s.lead)
	minute := 0
	if t.Minute() > 30 {
		minute = 30
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// SelectSlot validates a choice against the current grid. Only an existing,
// unbooked slot can be selected.
func (s *Scheduler) SelectSlot(week []models.DaySlots, dayIndex int, hhmm string) (models.Selection, error) {
	if dayIndex < 0 || dayIndex >= len(week) {
		return models.Selection{}, fmt.Errorf("%w: day %d is outside the booking window", apperr.ErrSlotUnavailable, dayIndex)
	}

	for _, slot := range week[dayIndex].Slots {
		if slot.Time != hhmm {
			continue
		}
		if slot.IsBooked {
			return models.Selection{}, fmt.Errorf("%w: %s on %s is already booked", apperr.ErrSlotUnavailable, hhmm, slot.DateKey)
		}
		return models.Selection{DayIndex: dayIndex, Time: hhmm}, nil
	}

	return models.Selection{}, fmt.Errorf("%w: %s is not offered on %s", apperr.ErrSlotUnavailable, hhmm, week[dayIndex].DateKey)
}

// BookingRequestFor builds the request for a selection made against week.
func (s *Scheduler) BookingRequestFor(doctorID string, week []models.DaySlots, sel models.Selection) (models.BookingRequest, error) {
	if sel.Empty() {
		return models.BookingRequest{}, apperr.ErrNoSlotSelected
	}
	if sel.DayIndex < 0 || sel.DayIndex >= len(week) {
		return models.BookingRequest{}, fmt.Errorf("%w: day %d is outside the booking window", apperr.ErrSlotUnavailable, sel.DayIndex)
	}
	return models.BookingRequest{
		DoctorID: doctorID,
		SlotDate: week[sel.DayIndex].DateKey,
		SlotTime: sel.Time,
	}, nil
}

// FindDoctor returns the doctor with the given id from a directory listing.
func FindDoctor(doctors []models.Doctor, id string) (models.Doctor, error) {
	for _, d := range doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Doctor{}, fmt.Errorf("%w: doctor %s", apperr.ErrNotFound, id)
}
