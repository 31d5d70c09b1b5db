package workflow

import (
	"fmt"

	"estatehub/internal/model"
)

// appointmentEdges lists the forward moves of an appointment. There are no
// reverse edges.
var appointmentEdges = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentPending:   {model.AppointmentConfirmed, model.AppointmentCancelled},
	model.AppointmentConfirmed: {model.AppointmentCompleted, model.AppointmentNoShow},
}

// CanMoveAppointment reports whether from -> to is allowed.
func CanMoveAppointment(from, to model.AppointmentStatus) bool {
	for _, next := range appointmentEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

func MoveAppointment(from, to model.AppointmentStatus) error {
	if !CanMoveAppointment(from, to) {
		return fmt.Errorf("%w: appointment %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
