package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
)

type fakeSearch struct {
	calls    []string
	topN     int
	category string
	err      error
}

func (f *fakeSearch) SearchSparse(q string, topN int, category string) ([]domain.SearchResult, error) {
	return f.record("sparse:"+q, topN, category)
}

func (f *fakeSearch) SearchDense(q string, topN int, category string) ([]domain.SearchResult, error) {
	return f.record("dense:"+q, topN, category)
}

func (f *fakeSearch) record(call string, topN int, category string) ([]domain.SearchResult, error) {
	f.calls = append(f.calls, call)
	f.topN, f.category = topN, category
	if f.err != nil {
		return nil, f.err
	}
	return []domain.SearchResult{{Name: "a.txt", Score: 0.9}, {Name: "b.txt", Score: 0.4}}, nil
}

func typeQuery(t *testing.T, m Model, q string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(key)
	return next.(Model)
}

func TestModel_EnterRunsSparseSearch(t *testing.T) {
	svc := &fakeSearch{}
	m := New(svc, nil, nil, Options{TopN: 7, Category: "news"})

	m = typeQuery(t, m, "cat")

	assert.Equal(t, []string{"sparse:cat"}, svc.calls)
	assert.Equal(t, 7, svc.topN)
	assert.Equal(t, "news", svc.category)
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a.txt", sel.Name)
}

func TestModel_TabSwitchesMethodAndReruns(t *testing.T) {
	svc := &fakeSearch{}
	m := typeQuery(t, New(svc, nil, nil, Options{}), "cat")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, MethodDense, m.Method())
	assert.Equal(t, []string{"sparse:cat", "dense:cat"}, svc.calls)
}

func TestModel_CursorWraps(t *testing.T) {
	m := typeQuery(t, New(&fakeSearch{}, nil, nil, Options{}), "cat")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	sel, _ := m.Selected()
	assert.Equal(t, "b.txt", sel.Name)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	sel, _ = m.Selected()
	assert.Equal(t, "a.txt", sel.Name)
}

func TestModel_CtrlOOpensSelected(t *testing.T) {
	var opened string
	open := func(name string) error { opened = name; return nil }
	m := typeQuery(t, New(&fakeSearch{}, nil, open, Options{}), "cat")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})

	assert.Equal(t, "a.txt", opened)
	assert.Contains(t, m.status, "Opened a.txt")
}

func TestModel_SearchErrorShownInStatus(t *testing.T) {
	svc := &fakeSearch{err: domain.ErrCategoryUnavailable}
	m := typeQuery(t, New(svc, nil, nil, Options{}), "cat")

	assert.Contains(t, m.status, "category filter unavailable")
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestModel_RendersPreview(t *testing.T) {
	preview := func(name, query string) (string, error) {
		if name == "b.txt" {
			return "", errors.New("gone")
		}
		return "Dogs bark. The cat sleeps.", nil
	}
	m := typeQuery(t, New(&fakeSearch{}, preview, nil, Options{}), "cat")

	out := m.renderCurrentResult()
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "cat sleeps")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, m.renderCurrentResult(), "Preview unavailable")
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(&fakeSearch{}, nil, nil, Options{})
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, next.View(), "Document Search")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		def  bool
		want bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, false, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, true, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, true, true},
		{tea.KeyMsg{Type: tea.KeyEnter}, false, false},
	}
	for _, tt := range tests {
		next, cmd := NewConfirm("Retrain?", tt.def).Update(tt.key)
		assert.NotNil(t, cmd)
		assert.Equal(t, tt.want, next.(ConfirmModel).Answer())
		assert.False(t, next.(ConfirmModel).Aborted())
	}
}

func TestConfirm_CtrlCAborts(t *testing.T) {
	next, cmd := NewConfirm("Retrain?", true).Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	confirm := next.(ConfirmModel)
	assert.True(t, confirm.Aborted())
	assert.False(t, confirm.Answer())
	assert.Empty(t, confirm.View())
}

func TestConfirm_EscAnswersNo(t *testing.T) {
	next, _ := NewConfirm("Retrain?", true).Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, next.(ConfirmModel).Answer())
	assert.False(t, next.(ConfirmModel).Aborted())
}
