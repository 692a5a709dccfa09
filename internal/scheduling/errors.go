package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

// Виды доменных ошибок. Обработчики транспорта сопоставляют их
// с HTTP-кодами через errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnavailable       = errors.New("doctor is not available")
	ErrConflict          = errors.New("time slot is already booked")
	ErrForbidden         = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// UnavailableError несёт список слотов врача, чтобы вызывающая
// сторона могла показать, какое время вообще доступно.
type UnavailableError struct {
	Requested time.Time
	Slots     []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf(
		"doctor is not available at %s, available slots: [%s]",
		e.Requested.UTC().Format(SlotLayout),
		strings.Join(e.Slots, ", "),
	)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// TransitionError фиксирует недопустимый переход статуса.
type TransitionError struct {
	From model.AppointmentStatus
	To   model.AppointmentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
