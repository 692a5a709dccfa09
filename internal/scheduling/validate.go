package scheduling

import (
	"fmt"
	"time"
)

// BusinessRules — рабочие часы клиники и выходной день.
type BusinessRules struct {
	OpenHour  int // включительно
	CloseHour int // исключительно
	ClosedDay time.Weekday
}

// DefaultBusinessRules: приём 09:00–18:00, выходной — пятница.
func DefaultBusinessRules() BusinessRules {
	return BusinessRules{
		OpenHour:  9,
		CloseHour: 18,
		ClosedDay: time.Friday,
	}
}

// ValidateInstant проверяет ограничения момента записи на этапе создания:
// строго в будущем, внутри рабочих часов, не в выходной день.
// Схемный слой делает те же проверки, но здесь они повторяются —
// инвариант данных держит именно эта граница.
func ValidateInstant(now, requested time.Time, rules BusinessRules) error {
	if !requested.After(now) {
		return fmt.Errorf("%w: appointment time must be in the future", ErrValidation)
	}
	if requested.Weekday() == rules.ClosedDay {
		return fmt.Errorf("%w: clinic is closed on %s", ErrValidation, rules.ClosedDay)
	}
	if h := requested.Hour(); h < rules.OpenHour || h >= rules.CloseHour {
		return fmt.Errorf(
			"%w: appointment time must be between %02d:00 and %02d:00",
			ErrValidation, rules.OpenHour, rules.CloseHour,
		)
	}
	return nil
}
