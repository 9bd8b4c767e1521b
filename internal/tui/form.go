package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/codeinput"
	"github.com/kingrea/chequedesk/internal/entry"
)

// formFocus is the element of the cheques tab that receives keys.
type formFocus int

const (
	focusCode formFocus = iota
	focusName
	focusPhone
	focusAmount
	focusStatus
	focusSave
	focusTable
	focusCount
)

var formFields = map[formFocus]entry.Field{
	focusName:   entry.FieldName,
	focusPhone:  entry.FieldPhone,
	focusAmount: entry.FieldAmount,
}

func newFormInputs() []textinput.Model {
	inputs := make([]textinput.Model, 3)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "Account holder"
	inputs[0].CharLimit = 64

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "Phone number"
	inputs[1].CharLimit = 20

	inputs[2] = textinput.New()
	inputs[2].Placeholder = "Amount"
	inputs[2].CharLimit = 15

	for i := range inputs {
		inputs[i].Prompt = ""
	}
	return inputs
}

func inputIndex(f formFocus) (int, bool) {
	switch f {
	case focusName:
		return 0, true
	case focusPhone:
		return 1, true
	case focusAmount:
		return 2, true
	}
	return 0, false
}

func (a *App) setFocus(f formFocus) tea.Cmd {
	a.focus = f
	var cmd tea.Cmd
	for i := range a.inputs {
		a.inputs[i].Blur()
	}
	if idx, ok := inputIndex(f); ok {
		cmd = a.inputs[idx].Focus()
	}
	if f == focusTable {
		a.chequeTable.Focus()
	} else {
		a.chequeTable.Blur()
	}
	return cmd
}

// syncInputs copies the session form back into the text inputs after the
// session changed it, for example on reset.
func (a *App) syncInputs() {
	form := a.session.Form()
	values := []string{form.Name, form.Phone, form.Amount}
	for i, v := range values {
		if a.inputs[i].Value() != v {
			a.inputs[i].SetValue(v)
		}
	}
}

func (a *App) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "tab":
		return a.setFocus((a.focus + 1) % focusCount)
	case "shift+tab":
		return a.setFocus((a.focus + focusCount - 1) % focusCount)
	case "ctrl+s":
		return a.save()
	case "esc":
		a.clearForm()
		return nil
	}

	switch a.focus {
	case focusCode:
		return a.handleCodeKey(msg)
	case focusName, focusPhone, focusAmount:
		return a.handleTextKey(msg)
	case focusStatus:
		a.handleStatusKey(key)
	case focusSave:
		if key == "enter" || key == " " {
			return a.save()
		}
	case focusTable:
		return a.handleTableKey(msg)
	}
	return nil
}

func (a *App) handleCodeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.String() {
	case "backspace":
		_, cmd = a.session.Backspace()
	case "left":
		a.session.Code().MoveLeft()
	case "right":
		a.session.Code().MoveRight()
	case "home":
		a.session.Code().SetFocus(0)
	case "end":
		a.session.Code().SetFocus(cheque.SlotCount - 1)
	case "enter":
		return a.setFocus(focusName)
	default:
		if msg.Type != tea.KeyRunes {
			return nil
		}
		// Pasted digits fill consecutive slots.
		for _, r := range msg.Runes {
			if _, next := a.session.Type(string(r)); next != nil {
				cmd = next
			}
		}
	}
	return cmd
}

func (a *App) handleTextKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "enter" {
		return a.setFocus(a.focus + 1)
	}
	if a.session.Locked() {
		a.statusMsg = "Fields are locked while the cheque number is a duplicate"
		return nil
	}
	if a.session.Saving() {
		a.statusMsg = "Saving…"
		return nil
	}
	idx, _ := inputIndex(a.focus)
	var cmd tea.Cmd
	a.inputs[idx], cmd = a.inputs[idx].Update(msg)
	if err := a.session.SetField(formFields[a.focus], a.inputs[idx].Value()); err != nil {
		a.syncInputs()
		a.statusMsg = err.Error()
		return nil
	}
	a.statusMsg = ""
	return cmd
}

func (a *App) handleStatusKey(key string) {
	current := a.session.Form().Status
	var next cheque.Status
	switch key {
	case "left", "h":
		next = current.Prev()
	case "right", "l", " ", "enter":
		next = current.Next()
	default:
		return
	}
	if err := a.session.SetStatus(next); err != nil {
		a.statusMsg = err.Error()
	}
}

func (a *App) save() tea.Cmd {
	cmd, err := a.session.Save()
	if err != nil {
		if !errors.Is(err, entry.ErrSaveInProgress) {
			a.logInfo("Save rejected · %s: %v", a.session.FormattedCode(), err)
		}
		return nil
	}
	a.logInfo("Saving cheque %s", a.session.FormattedCode())
	return cmd
}

func (a *App) clearForm() {
	if err := a.session.Clear(); err != nil {
		a.statusMsg = err.Error()
		return
	}
	a.syncInputs()
	a.statusMsg = ""
	a.setFocus(focusCode)
}

func (a *App) renderForm() string {
	title := lipgloss.NewStyle().Bold(true).Render("New cheque")
	rows := []string{
		title,
		a.renderCodeRow(),
		"",
		a.renderField(focusName, "Name"),
		a.renderField(focusPhone, "Phone"),
		a.renderField(focusAmount, "Amount"),
		a.renderStatusField(),
		"",
		a.renderButtons(),
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func (a *App) renderCodeRow() string {
	in := a.session.Code()
	fields := in.Fields()
	locked := a.session.Locked()
	alert := a.session.Alert()
	parts := []string{lipgloss.NewStyle().Bold(true).PaddingTop(1).Render(in.Prefix() + " ")}
	for g := 0; g < cheque.GroupCount; g++ {
		if g > 0 {
			parts = append(parts, lipgloss.NewStyle().PaddingTop(1).Render(" - "))
		}
		for i := 0; i < cheque.GroupLengths[g]; i++ {
			flat, _ := cheque.FlatIndex(g, i)
			text := " "
			if d, ok := fields.Digit(flat); ok {
				text = string(d)
			}
			parts = append(parts, a.slotStyle(flat, in, locked, alert).Render(text))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	switch {
	case locked:
		row += "\n" + noticeStyle("error").Render("Duplicate cheque number")
	case a.session.Checker().Pending():
		row += "\n" + mutedStyle.Render("checking…")
	default:
		row += "\n" + mutedStyle.Render(a.session.FormattedCode())
	}
	return row
}

func (a *App) slotStyle(flat int, in *codeinput.Input, locked, alert bool) lipgloss.Style {
	switch {
	case alert:
		return digitAlertStyle
	case locked:
		return digitLockedStyle
	case a.focus == focusCode && in.Focus() == flat:
		return digitFocusStyle
	default:
		return digitStyle
	}
}

func (a *App) renderField(f formFocus, label string) string {
	idx, _ := inputIndex(f)
	style := labelStyle
	if a.focus == f {
		style = focusLabel
	}
	value := a.inputs[idx].View()
	if a.session.Locked() {
		value = mutedStyle.Render(a.inputs[idx].Value() + " (locked)")
	}
	return style.Render(label) + value
}

func (a *App) renderStatusField() string {
	style := labelStyle
	if a.focus == focusStatus {
		style = focusLabel
	}
	status := a.session.Form().Status
	choices := make([]string, 0, len(cheque.Statuses))
	for _, s := range cheque.Statuses {
		text := s.Label()
		if s == status {
			text = statusStyle(string(s)).Bold(true).Render("[" + text + "]")
		} else {
			text = mutedStyle.Render(" " + text + " ")
		}
		choices = append(choices, text)
	}
	return style.Render("Status") + strings.Join(choices, " ")
}

func (a *App) renderButtons() string {
	label := "Save"
	style := buttonStyle
	switch {
	case a.session.Saving():
		label = "Saving…"
		style = buttonDisabledStyle
	case a.session.Locked():
		style = buttonDisabledStyle
	case a.focus == focusSave:
		style = buttonFocusStyle
	}
	clearStyle := buttonStyle
	if a.session.Saving() {
		clearStyle = buttonDisabledStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), " ", clearStyle.Render("Clear [esc]"))
}
