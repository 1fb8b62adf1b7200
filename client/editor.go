package client

import "fmt"

// EditPhase is the lifecycle position of one review's in-progress edit.
type EditPhase int

const (
	PhaseViewing EditPhase = iota
	PhaseEditing
	PhaseSaving
	PhaseDeleting
	PhaseRemoved
)

func (p EditPhase) String() string {
	switch p {
	case PhaseViewing:
		return "viewing"
	case PhaseEditing:
		return "editing"
	case PhaseSaving:
		return "saving"
	case PhaseDeleting:
		return "deleting"
	case PhaseRemoved:
		return "removed"
	default:
		return fmt.Sprintf("EditPhase(%d)", int(p))
	}
}

// Editor tracks one review's edit state in a single view. Entering an
// edit captures the current values as the rollback target, so a cancel
// or a failed save restores exactly what the user started from.
// Editors are driven from a view's event loop and are not safe for
// concurrent use.
type Editor struct {
	phase EditPhase

	rating int
	text   string

	rollbackRating int
	rollbackText   string
}

// NewEditor creates an editor in the viewing phase over the review's
// current values. Use zero values for a book the user has not reviewed.
func NewEditor(rating int, text string) *Editor {
	return &Editor{phase: PhaseViewing, rating: rating, text: text}
}

// Phase returns the current lifecycle phase.
func (e *Editor) Phase() EditPhase { return e.phase }

// Draft returns the working rating and text.
func (e *Editor) Draft() (int, string) { return e.rating, e.text }

// BeginEdit moves viewing to editing, capturing the rollback values.
func (e *Editor) BeginEdit() error {
	if e.phase != PhaseViewing {
		return fmt.Errorf("cannot begin edit from %s", e.phase)
	}
	e.rollbackRating = e.rating
	e.rollbackText = e.text
	e.phase = PhaseEditing
	return nil
}

// SetDraft updates the working values while editing.
func (e *Editor) SetDraft(rating int, text string) error {
	if e.phase != PhaseEditing {
		return fmt.Errorf("cannot change draft from %s", e.phase)
	}
	e.rating = rating
	e.text = text
	return nil
}

// Cancel abandons the edit and restores the rollback values.
func (e *Editor) Cancel() error {
	if e.phase != PhaseEditing {
		return fmt.Errorf("cannot cancel from %s", e.phase)
	}
	e.rating = e.rollbackRating
	e.text = e.rollbackText
	e.phase = PhaseViewing
	return nil
}

// BeginSave marks the draft as submitted to the server.
func (e *Editor) BeginSave() error {
	if e.phase != PhaseEditing {
		return fmt.Errorf("cannot save from %s", e.phase)
	}
	e.phase = PhaseSaving
	return nil
}

// SaveSucceeded adopts the persisted values and returns to viewing.
// The server may have normalized the text, so the response values win.
func (e *Editor) SaveSucceeded(rating int, text string) error {
	if e.phase != PhaseSaving {
		return fmt.Errorf("cannot complete save from %s", e.phase)
	}
	e.rating = rating
	e.text = text
	e.phase = PhaseViewing
	return nil
}

// SaveRejected returns to editing with the draft intact, for validation
// errors the user can correct in place.
func (e *Editor) SaveRejected() error {
	if e.phase != PhaseSaving {
		return fmt.Errorf("cannot reject save from %s", e.phase)
	}
	e.phase = PhaseEditing
	return nil
}

// SaveFailed rolls the draft back to the pre-edit values and returns to
// viewing, for network failures where the write never landed.
func (e *Editor) SaveFailed() error {
	if e.phase != PhaseSaving {
		return fmt.Errorf("cannot fail save from %s", e.phase)
	}
	e.rating = e.rollbackRating
	e.text = e.rollbackText
	e.phase = PhaseViewing
	return nil
}

// BeginDelete marks the review as being removed.
func (e *Editor) BeginDelete() error {
	if e.phase != PhaseViewing {
		return fmt.Errorf("cannot delete from %s", e.phase)
	}
	e.phase = PhaseDeleting
	return nil
}

// DeleteSucceeded moves to the terminal removed phase.
func (e *Editor) DeleteSucceeded() error {
	if e.phase != PhaseDeleting {
		return fmt.Errorf("cannot complete delete from %s", e.phase)
	}
	e.phase = PhaseRemoved
	return nil
}

// DeleteFailed returns to viewing with values untouched.
func (e *Editor) DeleteFailed() error {
	if e.phase != PhaseDeleting {
		return fmt.Errorf("cannot fail delete from %s", e.phase)
	}
	e.phase = PhaseViewing
	return nil
}
