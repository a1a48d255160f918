package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// FooterModel renders key hints and the last status message.
type FooterModel struct {
	help    help.Model
	keys    KeyMap
	message string
	isError bool
	width   int
}

// NewFooterModel creates a footer for keys.
func NewFooterModel(keys KeyMap) FooterModel {
	h := help.New()
	h.Styles.ShortKey = footerKeyStyle
	h.Styles.ShortDesc = footerDescStyle
	h.Styles.ShortSeparator = footerDescStyle
	return FooterModel{help: h, keys: keys}
}

// SetMessage shows an informational message.
func (f *FooterModel) SetMessage(msg string) {
	f.message = msg
	f.isError = false
}

// SetError shows an error message.
func (f *FooterModel) SetError(msg string) {
	f.message = msg
	f.isError = true
}

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) {
	f.width = w
	f.help.Width = w
}

// View renders the footer.
func (f FooterModel) View() string {
	left := " " + f.help.View(f.keys)
	if f.message == "" {
		return left
	}
	status := accentStyle.Render(f.message)
	if f.isError {
		status = errorStyle.Render(f.message)
	}
	gap := f.width - lipgloss.Width(left) - lipgloss.Width(status) - 1
	if gap < 1 {
		return left + "\n " + status
	}
	return left + strings.Repeat(" ", gap) + status
}
