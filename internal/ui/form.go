package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var styleLabel = lipgloss.NewStyle().Foreground(colorCoffee).Width(9)

type formField struct {
	key   string
	label string
	input textinput.Model
}

// contactForm is the structured input shown while the loop awaits fallback input
type contactForm struct {
	fields []formField
	focus  int
}

func newContactForm() contactForm {
	specs := []struct {
		key, label, placeholder string
		limit                   int
	}{
		{"name", "Name", "Ada Lovelace", 80},
		{"email", "Email", "ada@example.com", 120},
		{"request", "Request", "What were you looking for?", 280},
	}

	f := contactForm{}
	for _, s := range specs {
		ti := textinput.New()
		ti.Placeholder = s.placeholder
		ti.CharLimit = s.limit
		ti.Prompt = ""
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorSubtext)
		ti.TextStyle = lipgloss.NewStyle().Foreground(colorCream)
		f.fields = append(f.fields, formField{key: s.key, label: s.label, input: ti})
	}
	f.fields[0].input.Focus()
	return f
}

func (f *contactForm) setWidth(w int) {
	for i := range f.fields {
		f.fields[i].input.Width = w - styleLabel.GetWidth() - 2
	}
}

func (f *contactForm) cycle(forward bool) {
	f.fields[f.focus].input.Blur()
	if forward {
		f.focus = (f.focus + 1) % len(f.fields)
	} else {
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
	}
	f.fields[f.focus].input.Focus()
}

func (f contactForm) onLast() bool {
	return f.focus == len(f.fields)-1
}

func (f *contactForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f contactForm) payload() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.key] = strings.TrimSpace(field.input.Value())
	}
	return out
}

func (f contactForm) height() int {
	return len(f.fields)
}

func (f contactForm) view() string {
	rows := make([]string, 0, len(f.fields))
	for _, field := range f.fields {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, styleLabel.Render(field.label), field.input.View()))
	}
	return strings.Join(rows, "\n")
}
