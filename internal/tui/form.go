package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/validate"
)

// formAction is what the popup should do after the form handled a key.
type formAction int

const (
	formContinue formAction = iota
	formSave
	formCancel
)

var clockFields = [3]string{"hours", "minutes", "seconds"}

// PresetForm edits a preset's name and clock list. Row 0 is the name; rows
// 1..n are clocks, each with hours, minutes and seconds columns. Clock
// fields hold raw digits so a half-typed value survives until save.
type PresetForm struct {
	Source *model.Preset
	Name   string
	Clocks [][3]string
	Err    error

	row int
	col int
}

// NewPresetForm opens the form on p, or on a blank preset with one clock
// when p is nil.
func NewPresetForm(p *model.Preset) *PresetForm {
	f := &PresetForm{Source: p}
	if p == nil {
		f.Clocks = [][3]string{{"0", "0", "0"}}
		return f
	}
	f.Name = p.Name
	for _, c := range p.Clocks {
		f.Clocks = append(f.Clocks, [3]string{
			fmt.Sprint(c.Hours), fmt.Sprint(c.Minutes), fmt.Sprint(c.Seconds),
		})
	}
	if len(f.Clocks) == 0 {
		f.Clocks = [][3]string{{"0", "0", "0"}}
	}
	return f
}

// Focus returns the focused row and column.
func (f *PresetForm) Focus() (row, col int) {
	return f.row, f.col
}

// AddClock inserts a blank clock after the focused row and focuses it.
func (f *PresetForm) AddClock() {
	if len(f.Clocks) >= validate.MaxClocks {
		return
	}
	// Row k shows clock k-1, so index k is just below it.
	at := f.row
	f.Clocks = append(f.Clocks, [3]string{})
	copy(f.Clocks[at+1:], f.Clocks[at:])
	f.Clocks[at] = [3]string{"0", "0", "0"}
	f.row = at + 1
	f.col = 0
}

// RemoveClock deletes the focused clock. The last clock cannot be removed.
func (f *PresetForm) RemoveClock() {
	if f.row == 0 || len(f.Clocks) <= 1 {
		return
	}
	i := f.row - 1
	f.Clocks = append(f.Clocks[:i], f.Clocks[i+1:]...)
	if f.row > len(f.Clocks) {
		f.row = len(f.Clocks)
	}
}

// MoveClock swaps the focused clock with its neighbour; delta is -1 or 1.
func (f *PresetForm) MoveClock(delta int) {
	if f.row == 0 {
		return
	}
	i, j := f.row-1, f.row-1+delta
	if j < 0 || j >= len(f.Clocks) {
		return
	}
	f.Clocks[i], f.Clocks[j] = f.Clocks[j], f.Clocks[i]
	f.row += delta
}

// Build validates the form and returns the preset to save. Editing yields a
// new preset with a fresh id; the caller removes the source.
func (f *PresetForm) Build() (*model.Preset, error) {
	name := validate.SanitizePresetName(f.Name)
	if err := validate.PresetName(name); err != nil {
		return nil, err
	}

	clocks := make([]model.ClockSegment, 0, len(f.Clocks))
	for _, raw := range f.Clocks {
		var values [3]int
		for c, field := range clockFields {
			v, err := validate.ClockValue(field, raw[c])
			if err != nil {
				return nil, err
			}
			values[c] = v
		}
		clocks = append(clocks, model.NewClock(values[0], values[1], values[2]))
	}
	if err := validate.Clocks(clocks); err != nil {
		return nil, err
	}

	if f.Source != nil {
		return f.Source.Clone(name, clocks), nil
	}
	return model.NewPreset(name, clocks), nil
}

// Update handles one key.
func (f *PresetForm) Update(msg tea.KeyMsg) formAction {
	switch msg.String() {
	case "esc":
		return formCancel
	case "enter":
		if _, err := f.Build(); err != nil {
			f.Err = err
			return formContinue
		}
		return formSave
	case "tab", "right":
		f.next()
	case "shift+tab", "left":
		f.prev()
	case "up":
		if f.row > 0 {
			f.row--
		}
	case "down":
		if f.row < len(f.Clocks) {
			f.row++
		}
	case "ctrl+n":
		f.AddClock()
	case "ctrl+d":
		f.RemoveClock()
	case "ctrl+up":
		f.MoveClock(-1)
	case "ctrl+down":
		f.MoveClock(1)
	case "backspace":
		f.backspace()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			f.input(string(msg.Runes))
		}
	}
	f.Err = nil
	return formContinue
}

func (f *PresetForm) next() {
	if f.row == 0 {
		f.row, f.col = 1, 0
		return
	}
	if f.col < 2 {
		f.col++
		return
	}
	if f.row < len(f.Clocks) {
		f.row, f.col = f.row+1, 0
	}
}

func (f *PresetForm) prev() {
	if f.row == 0 {
		return
	}
	if f.col > 0 {
		f.col--
		return
	}
	if f.row == 1 {
		f.row = 0
		return
	}
	f.row, f.col = f.row-1, 2
}

func (f *PresetForm) backspace() {
	if f.row == 0 {
		if n := len(f.Name); n > 0 {
			_, size := utf8.DecodeLastRuneInString(f.Name)
			f.Name = f.Name[:n-size]
		}
		return
	}
	field := &f.Clocks[f.row-1][f.col]
	if n := len(*field); n > 0 {
		*field = (*field)[:n-1]
	}
}

func (f *PresetForm) input(s string) {
	if f.row == 0 {
		if utf8.RuneCountInString(f.Name+s) <= validate.MaxPresetNameLength {
			f.Name += validate.StripControlChars(s)
		}
		return
	}
	field := &f.Clocks[f.row-1][f.col]
	if *field == "0" {
		*field = ""
	}
	*field = validate.LimitInput(*field + s)
}

// View renders the form.
func (f *PresetForm) View(width int) string {
	var b strings.Builder

	title := "New preset"
	if f.Source != nil {
		title = "Edit preset"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	name := f.Name
	if f.row == 0 {
		name = StyleCursor.Render(name + " ")
	}
	b.WriteString("Name:  " + name)
	b.WriteString("\n\n")

	n := len(f.Clocks)
	for i, raw := range f.Clocks {
		label := StyleClock.Render(fmt.Sprintf("%-8s", model.Label(i+1, n)))
		fields := make([]string, 3)
		for c := range raw {
			text := fmt.Sprintf("%2s", raw[c])
			if f.row == i+1 && f.col == c {
				text = StyleCursor.Render(text)
			}
			fields[c] = text
		}
		b.WriteString(label + "  " + strings.Join(fields, ":"))
		b.WriteString("\n")
	}

	if f.Err != nil {
		b.WriteString("\n")
		b.WriteString(StyleError.Render(f.Err.Error()))
		b.WriteString("\n")
	}

	box := StyleListBox.Width(width - 4)
	return joinSections(box.Render(b.String()), HelpBar(formHelp))
}
