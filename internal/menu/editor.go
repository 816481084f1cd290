package menu

import "fmt"

// Editor steps through a list of options. In browse mode B moves to the
// next option and Y enters change mode; in change mode B and Y step the
// value and X returns to browsing. A toggles the help overlay, which
// swallows B and Y while shown.
type Editor struct {
	title   string
	options []Option
	current int
	change  bool
	help    bool
}

// NewEditor creates an editor over options. options must not be empty.
func NewEditor(title string, options []Option) *Editor {
	return &Editor{title: title, options: options}
}

// Name returns the editor title.
func (e *Editor) Name() string { return e.title }

// Current returns the selected option.
func (e *Editor) Current() Option { return e.options[e.current] }

// Options returns every option in menu order.
func (e *Editor) Options() []Option { return e.options }

// ChangeMode reports whether B and Y adjust the current value.
func (e *Editor) ChangeMode() bool { return e.change }

// HelpMode reports whether the help text is shown.
func (e *Editor) HelpMode() bool { return e.help }

// Line returns the "title : value" text of the selected option.
func (e *Editor) Line() string {
	o := e.Current()
	return fmt.Sprintf("%s : %s", o.Title, o.Text())
}

// Labels returns the B and Y button captions for the current mode.
func (e *Editor) Labels() (b, y string) {
	if !e.change {
		return "Next", "Change"
	}
	if e.Current().Mode == ModeBool {
		return "No", "Yes"
	}
	return "--", "++"
}

// ButtonA toggles help.
func (e *Editor) ButtonA() bool {
	e.help = !e.help
	return true
}

// ButtonB moves to the next option, or decrements in change mode.
func (e *Editor) ButtonB() bool {
	if e.help {
		return true
	}
	if e.change {
		e.Current().Decrement()
		return true
	}
	e.current = (e.current + 1) % len(e.options)
	return true
}

// ButtonX leaves change mode. It is not consumed otherwise.
func (e *Editor) ButtonX() bool {
	if e.change {
		e.change = false
		return true
	}
	return false
}

// ButtonY enters change mode, or increments in change mode.
func (e *Editor) ButtonY() bool {
	if e.help {
		return true
	}
	if e.change {
		e.Current().Increment()
		return true
	}
	e.change = true
	return true
}
