package scheduling

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/healthcare-booking/internal/model"
)

// Actor — действующий принципал, которому доверяет ядро.
// Пара (ID, Role) приходит из слоя аутентификации.
type Actor struct {
	ID   uuid.UUID
	Role model.UserRole
}

// Машина статусов записи. cancelled и completed — терминальные.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusCancelled: {},
	model.AppointmentStatusCompleted: {},
}

// CanTransition отвечает, допустим ли переход from → to сам по себе,
// без учёта роли инициатора.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus разбирает статус из внешнего представления.
func ParseStatus(s string) (model.AppointmentStatus, error) {
	switch st := model.AppointmentStatus(s); st {
	case model.AppointmentStatusPending,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// gate описывает, что роль может делать со статусом записи.
// Нулевые поля означают отсутствие соответствующего ограничения.
type gate struct {
	// Целевые статусы, которые роль вправе выставлять.
	targets map[model.AppointmentStatus]bool
	// Проверка владения записью.
	owns func(Actor, *model.Appointment) bool
	// Текущие статусы, из которых роль вправе инициировать переход.
	fromOnly map[model.AppointmentStatus]bool
}

var gates = map[model.UserRole]gate{
	// Админ меняет любую запись в рамках машины статусов.
	model.UserRoleAdmin: {},

	model.UserRoleDoctor: {
		targets: map[model.AppointmentStatus]bool{
			model.AppointmentStatusConfirmed: true,
			model.AppointmentStatusCompleted: true,
			model.AppointmentStatusCancelled: true,
		},
		owns: func(a Actor, appt *model.Appointment) bool {
			return appt.DoctorID == a.ID
		},
	},

	model.UserRolePatient: {
		targets: map[model.AppointmentStatus]bool{
			model.AppointmentStatusCancelled: true,
		},
		owns: func(a Actor, appt *model.Appointment) bool {
			return appt.PatientID == a.ID
		},
		fromOnly: map[model.AppointmentStatus]bool{
			model.AppointmentStatusPending: true,
		},
	},
}

// Authorize применяет ролевые ограничения к запрошенному переходу.
// Отказ по роли/владению отличим от недопустимого перехода:
// здесь всегда ErrForbidden.
func Authorize(actor Actor, appt *model.Appointment, to model.AppointmentStatus) error {
	g, ok := gates[actor.Role]
	if !ok {
		return fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}
	if g.owns != nil && !g.owns(actor, appt) {
		return fmt.Errorf("%w: appointment belongs to another user", ErrForbidden)
	}
	if g.targets != nil && !g.targets[to] {
		return fmt.Errorf("%w: role %s cannot set status %s", ErrForbidden, actor.Role, to)
	}
	if g.fromOnly != nil && !g.fromOnly[appt.Status] {
		return fmt.Errorf("%w: role %s cannot modify a %s appointment", ErrForbidden, actor.Role, appt.Status)
	}
	return nil
}

// Transition авторизует инициатора и применяет смену статуса на месте.
// Побочных эффектов, кроме самого статуса, нет.
func Transition(actor Actor, appt *model.Appointment, to model.AppointmentStatus) error {
	if err := Authorize(actor, appt, to); err != nil {
		return err
	}
	if !CanTransition(appt.Status, to) {
		return &TransitionError{From: appt.Status, To: to}
	}
	appt.Status = to
	return nil
}
