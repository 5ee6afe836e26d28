package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 256

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// field is one labelled text input in a form.
type field struct {
	label  string
	value  string
	secret bool
}

// renderField renders a form row. Secret values are masked.
func renderField(f field, focused bool, frame int) string {
	label := dimStyle.Render(f.label + ":")
	value := f.value
	if f.secret {
		value = strings.Repeat("•", utf8.RuneCountInString(value))
	}
	if !focused {
		if value == "" {
			return "   " + label + " " + inputPlaceholderStyle.Render("-")
		}
		return "   " + label + " " + normalStyle.Render(value)
	}
	cursor := " "
	if (frame/4)%2 == 0 {
		cursor = accentStyle.Render("█")
	}
	return " " + inputPromptStyle.Render(">") + " " + label + " " + selectedStyle.Render(value) + cursor
}

// form is an ordered set of fields with one focused.
type form struct {
	fields []field
	focus  int
}

func (f *form) next() { f.focus = (f.focus + 1) % len(f.fields) }

func (f *form) prev() { f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields) }

func (f *form) edit(key string) {
	f.fields[f.focus].value = editRune(f.fields[f.focus].value, key)
}

func (f form) value(i int) string { return strings.TrimSpace(f.fields[i].value) }

func (f form) last() bool { return f.focus == len(f.fields)-1 }

// view renders every field; the focused one shows a cursor while active.
func (f form) view(frame int, active bool) string {
	var b strings.Builder
	for i, fl := range f.fields {
		b.WriteString(renderField(fl, active && i == f.focus, frame))
		b.WriteString("\n")
	}
	return b.String()
}
