package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NormalizeTimeRange нормализует рабочий интервал врача:
//   - меняет местами границы, если они перепутаны;
//   - переводит в заданный часовой пояс loc;
//   - при превышении maxDuration обрезает интервал до start+maxDuration.
//
// Если maxDuration <= 0, ограничение по длительности не применяется.
func NormalizeTimeRange(
	start, end time.Time,
	loc *time.Location,
	maxDuration time.Duration,
) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}

	if end.Before(start) {
		start, end = end, start
	}

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	if maxDuration > 0 && end.Sub(start) > maxDuration {
		end = start.Add(maxDuration)
	}

	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}

	return TimeRange{Start: start, End: end}, nil
}

// SplitToTimeSlots разбивает рабочий интервал на приёмные слоты
// фиксированной длительности. alignMinutes > 0 — выравнивание начала
// по ближайшей отметке, кратной alignMinutes. "Хвост" короче
// slotDuration отбрасывается.
func SplitToTimeSlots(
	tr TimeRange,
	slotDuration time.Duration,
	alignMinutes int,
) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	start := tr.Start

	if alignMinutes > 0 {
		if rem := start.Minute() % alignMinutes; rem != 0 {
			delta := alignMinutes - rem
			start = time.Date(
				start.Year(), start.Month(), start.Day(),
				start.Hour(), start.Minute(), 0, 0, start.Location(),
			).Add(time.Duration(delta) * time.Minute)
		} else if start.Second() != 0 || start.Nanosecond() != 0 {
			start = time.Date(
				start.Year(), start.Month(), start.Day(),
				start.Hour(), start.Minute(), 0, 0, start.Location(),
			).Add(time.Duration(alignMinutes) * time.Minute)
		}
	}

	var slots []TimeRange
	for cur := start; !cur.Add(slotDuration).After(tr.End); cur = cur.Add(slotDuration) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(slotDuration)})
	}
	if slots == nil {
		slots = []TimeRange{}
	}
	return slots, nil
}

// SlotStarts возвращает начала слотов в формате layout — в таком виде
// они хранятся в профиле врача.
func SlotStarts(slots []TimeRange, layout string) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.UTC().Format(layout))
	}
	return out
}
