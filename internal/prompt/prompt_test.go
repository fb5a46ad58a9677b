package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestYesQuits(t *testing.T) {
	m, cmd := press(New("Remove?", nil), runes("y"))
	yes, answered := m.Answer()
	assert.True(t, yes)
	assert.True(t, answered)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestNoAndCancel(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("n"), {Type: tea.KeyEnter}, {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, cmd := press(New("Remove?", nil), msg)
		yes, answered := m.Answer()
		assert.False(t, yes, msg.String())
		assert.True(t, answered, msg.String())
		assert.NotNil(t, cmd, msg.String())
	}
}

func TestOtherKeysIgnored(t *testing.T) {
	m, cmd := press(New("Remove?", nil), runes("x"))
	_, answered := m.Answer()
	assert.False(t, answered)
	assert.Nil(t, cmd)

	next, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.Equal(t, m, next)
}

func TestViewListsItems(t *testing.T) {
	items := make([]string, maxItems+3)
	for i := range items {
		items[i] = "FFlagMissing"
	}
	view := New("Remove 23 flags?", items).View()
	assert.Contains(t, view, "Remove 23 flags?")
	assert.Contains(t, view, "FFlagMissing")
	assert.Contains(t, view, "and 3 more")
	assert.Contains(t, view, "[y/n]")
}
