// Package tui implements the interactive attachment picker as a
// bubbletea model. The event loop never performs network I/O itself:
// a download queue drains in its own goroutine and reports back
// through a channel, so rendering stays responsive to cancel and quit
// during a long transfer.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-jira-download/internal/catalog"
	"go-jira-download/internal/helpers"
	"go-jira-download/internal/queue"
)

// jiraTimeLayout is the timestamp format Jira returns for attachment
// created dates.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// queueEventMsg wraps a queue Event for delivery through the bubbletea
// message loop.
type queueEventMsg struct {
	event queue.Event
}

// queueClosedMsg is sent when the drain goroutine has closed its
// event channel.
type queueClosedMsg struct{}

// Fetcher is what the model needs to start a download queue.
type Fetcher = queue.Fetcher

// Model is the top-level bubbletea model for the attachment picker.
type Model struct {
	issueKey  string
	outputDir string
	fetcher   Fetcher
	recorder  queue.Recorder

	cat *catalog.Catalog
	sel *catalog.Selection

	keys  KeyMap
	theme Theme

	width  int
	height int

	// onDisk marks catalog indexes whose filename already existed in
	// the output directory at startup.
	onDisk map[int]bool

	// Active drain state. queue is non-nil once a download has been
	// started this session; downloading is true while the drain
	// goroutine is still running.
	queue       *queue.Queue
	queueIndex  map[string]int // attachment id -> queue item index
	events      chan queue.Event
	cancel      context.CancelFunc
	downloading bool
	quitting    bool

	statusMessage string
}

// NewModel builds the picker for one loaded catalog.
func NewModel(fetcher Fetcher, recorder queue.Recorder, issueKey, outputDir string, cat *catalog.Catalog) Model {
	m := Model{
		issueKey:  issueKey,
		outputDir: outputDir,
		fetcher:   fetcher,
		recorder:  recorder,
		cat:       cat,
		sel:       catalog.NewSelection(),
		keys:      DefaultKeyMap,
		theme:     DefaultTheme(),
		onDisk:    make(map[int]bool),
	}
	for i := 0; i < cat.Len(); i++ {
		path := filepath.Join(outputDir, helpers.SanitizeFilename(cat.At(i).Filename))
		if _, err := os.Stat(path); err == nil {
			m.onDisk[i] = true
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// waitForEvent returns a Cmd that blocks on the queue event channel.
func waitForEvent(ch chan queue.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return queueClosedMsg{}
		}
		return queueEventMsg{event: event}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case queueEventMsg:
		m.applyEvent(msg.event)
		if msg.event.Drained {
			m.downloading = false
			// Release the drain context; a normal finish never cancels it
			// otherwise.
			m.cancel()
			if m.quitting {
				return m, tea.Quit
			}
		}
		return m, waitForEvent(m.events)

	case queueClosedMsg:
		m.downloading = false
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.downloading {
			// Abort the in-flight transfer first; quit once the drain
			// loop reports it has stopped.
			m.quitting = true
			m.cancel()
			m.statusMessage = "Cancelling..."
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.downloading {
			m.cancel()
			m.statusMessage = "Cancelling..."
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.sel.MoveCursor(m.cat, -1)
		m.statusMessage = ""
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.sel.MoveCursor(m.cat, 1)
		m.statusMessage = ""
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.sel.MoveCursor(m.cat, -m.cat.Len())
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.sel.MoveCursor(m.cat, m.cat.Len())
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if !m.downloading {
			m.sel.Toggle(m.cat)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAll):
		if !m.downloading {
			m.sel.MarkAll(m.cat)
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		if !m.downloading {
			m.sel.ClearAll()
		}
		return m, nil

	case key.Matches(msg, m.keys.Start):
		if m.downloading {
			return m, nil
		}
		return m.startDownloads()
	}
	return m, nil
}

// startDownloads submits the marked subset (in catalog order) to a new
// download queue and kicks off its drain goroutine.
func (m Model) startDownloads() (tea.Model, tea.Cmd) {
	marked := m.sel.Marked(m.cat)
	if len(marked) == 0 {
		m.statusMessage = "Nothing selected."
		return m, nil
	}

	m.queue = queue.New(m.fetcher, m.recorder, m.issueKey, m.outputDir, marked)
	m.queueIndex = make(map[string]int, len(marked))
	for i, d := range marked {
		m.queueIndex[d.ID] = i
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = make(chan queue.Event, 64)
	m.downloading = true
	m.statusMessage = fmt.Sprintf("Downloading %d attachment(s)...", len(marked))

	go m.queue.Drain(ctx, m.events)
	return m, waitForEvent(m.events)
}

func (m *Model) applyEvent(e queue.Event) {
	if e.Drained {
		items := m.queue.Items()
		done, failed := 0, 0
		for _, it := range items {
			switch it.Status {
			case queue.StatusDone:
				done++
			case queue.StatusFailed:
				failed++
			}
		}
		m.statusMessage = fmt.Sprintf("Finished: %d downloaded, %d failed.", done, failed)
		return
	}
	d := m.queue.Items()[e.Index].Descriptor
	switch {
	case e.Finished && e.Status == queue.StatusDone:
		m.statusMessage = fmt.Sprintf("Downloaded '%s'.", d.Filename)
	case e.Finished && e.Status == queue.StatusFailed:
		m.statusMessage = fmt.Sprintf("'%s' failed: %v", d.Filename, e.Err)
	case e.Status == queue.StatusInProgress:
		m.statusMessage = fmt.Sprintf("Downloading '%s'... %s/%s",
			d.Filename, helpers.BytesToSize(e.Bytes), helpers.BytesToSize(d.Size))
	}
}

// stateGlyph returns the state column content for one catalog row.
func (m Model) stateGlyph(i int) string {
	id := m.cat.At(i).ID
	if m.queue != nil {
		if qi, ok := m.queueIndex[id]; ok {
			item := m.queue.Items()[qi]
			switch item.Status {
			case queue.StatusPending:
				return m.theme.Marked.Render(">")
			case queue.StatusInProgress:
				size := item.Descriptor.Size
				if size > 0 {
					return m.theme.Progress.Render(fmt.Sprintf("%d%%", item.BytesDownloaded*100/size))
				}
				return m.theme.Progress.Render("↓")
			case queue.StatusDone:
				return m.theme.Done.Render("✓")
			case queue.StatusFailed:
				return m.theme.Failed.Render("✗")
			}
		}
	}
	if m.sel.IsMarked(id) {
		return m.theme.Marked.Render(">")
	}
	if m.onDisk[i] {
		return m.theme.Done.Render("✓")
	}
	return "·"
}

// formatCreated renders a Jira attachment timestamp in local time,
// falling back to the raw string if it does not parse.
func formatCreated(raw string) string {
	for _, layout := range []string{jiraTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}
	return raw
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting && !m.downloading {
		return ""
	}

	title := m.theme.Title.Render(fmt.Sprintf("%s Attachments", m.issueKey))
	header := m.theme.Header.Render(fmt.Sprintf("  %-4s %-40s %10s  %s", "", "Filename", "Size", "Created"))

	rows := make([]string, 0, m.cat.Len()+4)
	rows = append(rows, title, header)
	for i := 0; i < m.cat.Len(); i++ {
		att := m.cat.At(i)
		line := fmt.Sprintf("  %-4s %-40s %10s  %s",
			m.stateGlyph(i),
			truncate(att.Filename, 40),
			helpers.BytesToSize(att.Size),
			formatCreated(att.Created),
		)
		if i == m.sel.Cursor() {
			line = m.theme.Cursor.Render(line)
		}
		rows = append(rows, line)
	}

	status := m.statusMessage
	if status == "" && m.cat.Len() > 0 {
		att := m.cat.At(m.sel.Cursor())
		switch {
		case m.sel.IsMarked(att.ID):
			status = fmt.Sprintf("'%s' is queued for download.", att.Filename)
		case m.onDisk[m.sel.Cursor()]:
			status = fmt.Sprintf("'%s' already exists in %s.", att.Filename, m.outputDir)
		default:
			status = fmt.Sprintf("'%s' is not downloaded.", att.Filename)
		}
	}
	if m.cat.Len() == 0 {
		status = "This issue has no attachments."
	}
	rows = append(rows, "", m.theme.Status.Render(status))

	help := "q: Quit | ↑/↓: Navigate | Space: Select | a: All | c: Clear | Enter: Download"
	if m.downloading {
		help = "q: Quit | Esc: Cancel download"
	}
	rows = append(rows, m.theme.Help.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
