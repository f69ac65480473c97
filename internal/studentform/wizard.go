package studentform

// Wizard walks the display groups in order. Moving between steps never
// validates; only the final submit does.
type Wizard struct {
	steps   []Step
	current int
}

func NewWizard() *Wizard {
	return &Wizard{steps: Steps}
}

// WizardAt starts at a 1-based step number, clamped to the valid range.
func WizardAt(number int) *Wizard {
	w := NewWizard()
	w.Goto(number)
	return w
}

func (w *Wizard) Steps() []Step {
	return w.steps
}

func (w *Wizard) Current() Step {
	return w.steps[w.current]
}

func (w *Wizard) IsFirst() bool {
	return w.current == 0
}

func (w *Wizard) IsLast() bool {
	return w.current == len(w.steps)-1
}

// Next advances one step and reports whether it moved.
func (w *Wizard) Next() bool {
	if w.IsLast() {
		return false
	}
	w.current++
	return true
}

func (w *Wizard) Back() bool {
	if w.IsFirst() {
		return false
	}
	w.current--
	return true
}

func (w *Wizard) Goto(number int) {
	switch {
	case number < 1:
		w.current = 0
	case number > len(w.steps):
		w.current = len(w.steps) - 1
	default:
		w.current = number - 1
	}
}

// StepFor returns the step number holding a field, or 0.
func StepFor(field string) int {
	for _, step := range Steps {
		for _, f := range step.Fields {
			if f.Name == field {
				return step.Number
			}
		}
	}
	return 0
}

// FirstErrorStep is the earliest step containing a validation error, so a
// failed submit can send the user back to it.
func (c *Controller) FirstErrorStep() int {
	first := 0
	for name := range c.errors {
		if n := StepFor(name); n > 0 && (first == 0 || n < first) {
			first = n
		}
	}
	return first
}
