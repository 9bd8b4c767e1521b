package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/chequedesk/internal/cheque"
)

const timeLayout = "2006-01-02 15:04"

type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogDelete
	dialogClearLogs
	dialogEdit
)

// dialog is the modal shown over the current tab.
type dialog struct {
	kind   dialogKind
	record cheque.Record
	inputs []textinput.Model
	status cheque.Status
	focus  int
}

func (d dialog) active() bool { return d.kind != dialogNone }

func chequeColumns() []table.Column {
	return []table.Column{
		{Title: "Cheque ID", Width: 20},
		{Title: "Name", Width: 18},
		{Title: "Phone", Width: 14},
		{Title: "Amount", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Updated", Width: 16},
		{Title: "Created By", Width: 18},
	}
}

func chequeRows(items []cheque.Record) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, rec := range items {
		rows = append(rows, table.Row{
			rec.ChequeID,
			rec.Name,
			rec.Phone,
			rec.Amount,
			rec.Status.Label(),
			rec.UpdatedAt.Local().Format(timeLayout),
			rec.CreatedBy,
		})
	}
	return rows
}

func logColumns() []table.Column {
	return []table.Column{
		{Title: "Cheque ID", Width: 20},
		{Title: "Name", Width: 18},
		{Title: "Verified By", Width: 18},
		{Title: "Status", Width: 10},
		{Title: "Date/Time", Width: 16},
	}
}

func logRows(items []cheque.Verification) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, v := range items {
		name := v.Name
		if name == "" {
			name = "-"
		}
		rows = append(rows, table.Row{
			v.ChequeID,
			name,
			v.VerifiedBy,
			v.Status.Label(),
			v.VerifiedAt.Local().Format(timeLayout),
		})
	}
	return rows
}

func (a *App) selectedCheque() (cheque.Record, bool) {
	idx := a.chequeTable.Cursor()
	if idx < 0 || idx >= len(a.cheques) {
		return cheque.Record{}, false
	}
	return a.cheques[idx], true
}

func (a *App) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	rec, ok := a.selectedCheque()
	switch msg.String() {
	case "v", "n", "p":
		if !ok {
			return nil
		}
		status := map[string]cheque.Status{"v": cheque.StatusValid, "n": cheque.StatusNotValid, "p": cheque.StatusPaid}[msg.String()]
		return a.setRecordStatus(rec, status)
	case "e":
		if ok {
			a.openEdit(rec)
		}
		return nil
	case "d":
		if ok {
			a.dialog = dialog{kind: dialogDelete, record: rec}
		}
		return nil
	}
	var cmd tea.Cmd
	a.chequeTable, cmd = a.chequeTable.Update(msg)
	return cmd
}

func (a *App) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "c" {
		if a.clearing {
			a.statusMsg = "Already clearing verification logs"
			return nil
		}
		if len(a.logs) == 0 {
			a.notices.Info("No verification logs to clear")
			return nil
		}
		a.dialog = dialog{kind: dialogClearLogs}
		return nil
	}
	var cmd tea.Cmd
	a.logTable, cmd = a.logTable.Update(msg)
	return cmd
}

func (a *App) openEdit(rec cheque.Record) {
	inputs := newFormInputs()
	inputs[0].SetValue(rec.Name)
	inputs[1].SetValue(rec.Phone)
	inputs[2].SetValue(rec.Amount)
	inputs[0].Focus()
	a.dialog = dialog{kind: dialogEdit, record: rec, inputs: inputs, status: rec.Status}
}

func (a *App) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "esc" {
		a.dialog = dialog{}
		return nil
	}
	switch a.dialog.kind {
	case dialogDelete:
		switch key {
		case "y", "enter":
			rec := a.dialog.record
			a.dialog = dialog{}
			return a.deleteRecord(rec)
		case "n":
			a.dialog = dialog{}
		}
	case dialogClearLogs:
		switch key {
		case "y", "enter":
			a.dialog = dialog{}
			return a.clearLogs()
		case "n":
			a.dialog = dialog{}
		}
	case dialogEdit:
		return a.handleEditKey(msg)
	}
	return nil
}

// The edit dialog has three text inputs followed by the status picker.
const editStatusFocus = 3

func (a *App) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	d := &a.dialog
	switch msg.String() {
	case "tab", "down":
		d.focus = (d.focus + 1) % (editStatusFocus + 1)
	case "shift+tab", "up":
		d.focus = (d.focus + editStatusFocus) % (editStatusFocus + 1)
	case "enter":
		return a.submitEdit()
	default:
		if d.focus == editStatusFocus {
			switch msg.String() {
			case "left", "h":
				d.status = d.status.Prev()
			case "right", "l", " ":
				d.status = d.status.Next()
			}
			return nil
		}
		var cmd tea.Cmd
		d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
		return cmd
	}
	for i := range d.inputs {
		d.inputs[i].Blur()
	}
	if d.focus < editStatusFocus {
		return d.inputs[d.focus].Focus()
	}
	return nil
}

func (a *App) submitEdit() tea.Cmd {
	d := a.dialog
	edit := cheque.Edit{
		Name:   strings.TrimSpace(d.inputs[0].Value()),
		Phone:  strings.TrimSpace(d.inputs[1].Value()),
		Amount: strings.TrimSpace(d.inputs[2].Value()),
		Status: d.status,
	}
	if err := a.saver.CheckEdit(edit); err != nil {
		a.notices.Info("%s", err)
		return nil
	}
	a.dialog = dialog{}
	st := a.store
	id, code := d.record.ID, d.record.ChequeID
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		_, err := st.Update(ctx, id, edit)
		return actionDoneMsg{done: fmt.Sprintf("Cheque %s updated", code), err: err}
	}
}

func (a *App) setRecordStatus(rec cheque.Record, status cheque.Status) tea.Cmd {
	if rec.Status == status {
		return nil
	}
	st := a.store
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		_, err := st.SetStatus(ctx, rec.ID, status)
		return actionDoneMsg{done: fmt.Sprintf("Cheque %s marked %s", rec.ChequeID, status.Label()), err: err}
	}
}

func (a *App) deleteRecord(rec cheque.Record) tea.Cmd {
	st := a.store
	a.logInfo("Deleting cheque %s", rec.ChequeID)
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		err := st.Delete(ctx, rec.ID)
		return actionDoneMsg{done: fmt.Sprintf("Cheque %s deleted", rec.ChequeID), err: err}
	}
}

func (a *App) clearLogs() tea.Cmd {
	a.clearing = true
	st := a.store
	a.logInfo("Clearing %d verification logs", len(a.logs))
	return func() tea.Msg {
		ctx, cancel := a.storeContext()
		defer cancel()
		removed, err := st.ClearVerifications(ctx)
		return clearDoneMsg{removed: removed, err: err}
	}
}

func (a *App) renderChequeTable() string {
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Cheques (%d)", len(a.cheques)))
	if len(a.cheques) == 0 {
		return panelStyle.Render(title + "\n" + mutedStyle.Render("No cheques yet"))
	}
	return panelStyle.Render(title + "\n" + a.chequeTable.View())
}

func (a *App) renderLogTable() string {
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Verification logs (%d)", len(a.logs)))
	if a.clearing {
		title += mutedStyle.Render("  clearing…")
	}
	if len(a.logs) == 0 {
		return panelStyle.Render(title + "\n" + mutedStyle.Render("No verifications logged"))
	}
	return panelStyle.Render(title + "\n" + a.logTable.View())
}

func (a *App) renderDialog() string {
	d := a.dialog
	switch d.kind {
	case dialogDelete:
		return dialogStyle.Render(fmt.Sprintf("Delete cheque %s (%s)?\n\n[y] delete   [n] keep", d.record.ChequeID, d.record.Name))
	case dialogClearLogs:
		return dialogStyle.Render(fmt.Sprintf("Delete all %d verification logs?\nThis cannot be undone.\n\n[y] clear   [n] keep", len(a.logs)))
	case dialogEdit:
		labels := []string{"Name", "Phone", "Amount"}
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Edit cheque "+d.record.ChequeID) + "\n\n")
		for i, input := range d.inputs {
			style := labelStyle
			if d.focus == i {
				style = focusLabel
			}
			b.WriteString(style.Render(labels[i]) + input.View() + "\n")
		}
		style := labelStyle
		if d.focus == editStatusFocus {
			style = focusLabel
		}
		b.WriteString(style.Render("Status") + statusStyle(string(d.status)).Bold(true).Render("‹ "+d.status.Label()+" ›") + "\n\n")
		b.WriteString(mutedStyle.Render("enter save · esc cancel"))
		return dialogStyle.Render(b.String())
	}
	return ""
}
