package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsearch/internal/domain"
)

// Search methods.
const (
	MethodSparse = "sparse"
	MethodDense  = "dense"
)

// SearchPort is the TUI-facing subset of the retrieval service.
type SearchPort interface {
	SearchSparse(query string, topN int, category string) ([]domain.SearchResult, error)
	SearchDense(query string, topN int, category string) ([]domain.SearchResult, error)
}

// PreviewFunc returns display text for a result.
type PreviewFunc func(name, query string) (string, error)

// OpenFunc opens a result in an external viewer.
type OpenFunc func(name string) error

// Options holds the initial search settings.
type Options struct {
	TopN     int
	Method   string
	Category string
	Summary  string
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   SearchPort
	preview   PreviewFunc
	open      OpenFunc
	opts      Options
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchResult
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance. preview and open may be nil.
func New(service SearchPort, preview PreviewFunc, open OpenFunc, opts Options) Model {
	if opts.Method != MethodDense {
		opts.Method = MethodSparse
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		preview:  preview,
		open:     open,
		opts:     opts,
		input:    ti,
		viewport: vp,
		status:   "Loaded. Type to search. Tab switches method, Ctrl+O opens the document.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.runQuery(q)
				return m, nil
			}
		case "tab":
			if m.opts.Method == MethodSparse {
				m.opts.Method = MethodDense
			} else {
				m.opts.Method = MethodSparse
			}
			if m.lastQuery != "" {
				m.runQuery(m.lastQuery)
			} else {
				m.status = "Method: " + m.opts.Method
			}
			return m, nil
		case "ctrl+o":
			if len(m.results) > 0 && m.open != nil {
				name := m.results[m.cursor].Name
				if err := m.open(name); err != nil {
					m.status = "Error: " + err.Error()
				} else {
					m.status = "Opened " + name
				}
			}
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuery(q string) {
	search := m.service.SearchSparse
	if m.opts.Method == MethodDense {
		search = m.service.SearchDense
	}
	res, err := search(q, m.opts.TopN, m.opts.Category)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	} else {
		m.status = fmt.Sprintf("%d %s results for %q", len(res), m.opts.Method, q)
		m.results = res
		m.cursor = 0
		m.lastQuery = q
	}
	m.viewport.SetContent(m.renderCurrentResult())
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Search  [" + m.opts.Method + "]")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.opts.Summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

// Selected returns the highlighted result, if any.
func (m Model) Selected() (domain.SearchResult, bool) {
	if len(m.results) == 0 {
		return domain.SearchResult{}, false
	}
	return m.results[m.cursor], true
}

// Method returns the active search method.
func (m Model) Method() string { return m.opts.Method }

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s  score=%.4f", m.cursor+1, len(m.results), r.Name, r.Score)
	if m.preview == nil {
		return title
	}
	text, err := m.preview(r.Name, m.lastQuery)
	if err != nil {
		return title + "\n\n" + "Preview unavailable: " + err.Error()
	}
	return title + "\n\n" + highlightBestSentence(text, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`[\p{L}]+`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx && bestScore > 0 {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := wordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
