package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/overlay"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	headerTitle    = "Switch tab"
	idleTitle      = "tab switcher"
	idleHint       = "Hidden. ctrl+k opens the switcher, q quits."
	cycleHint      = "Cycling. Pause to switch."
	rowIndicator   = "▌"
	truncationTail = "…"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // text already carries ANSI escapes; skip style wrapping
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.session.Visible() {
		return m.viewHidden()
	}
	return m.viewVisible()
}

func (m *Model) viewHidden() string {
	lines := []styledLine{
		{text: idleTitle, style: styles.Header},
		{text: idleHint, style: styles.Idle},
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if status := m.statusLine(false); status.text != "" {
		lines = append(lines, status)
	}
	lines = limitHeight(lines, m.height, m.width)
	return renderLines(applyWidth(lines, m.width))
}

func (m *Model) viewVisible() string {
	frame := overlay.Render(m.session, overlay.RenderOptions{
		MaxRows:    m.maxVisibleItems(),
		ShowFooter: m.showFooter,
	})
	lines := make([]styledLine, 0, len(frame.Rows)+6)
	lines = append(lines, styledLine{
		text:  fmt.Sprintf("%s (%d/%d)", headerTitle, frame.Matches, frame.Total),
		style: styles.Header,
	})
	if frame.Empty != "" {
		lines = append(lines, styledLine{text: frame.Empty, style: styles.Info})
	}
	for _, row := range frame.Rows {
		lines = append(lines, m.buildRowLine(row, m.width))
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if frame.Footer != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: frame.Footer, style: styles.Footer})
	}
	// Reserve 2 rows for the bottom bar (status + prompt).
	lines = limitHeight(lines, m.height-2, m.width)
	lines = applyWidth(lines, m.width)

	bottomLines := []styledLine{
		m.statusLine(frame.Cycling),
		{text: m.filterPrompt(), raw: true},
	}
	bottomLines = applyWidth(bottomLines, m.width)
	lines = append(lines, bottomLines...)
	return renderLines(lines)
}

func (m *Model) statusLine(cycling bool) styledLine {
	if m.errMsg != "" {
		return styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error}
	}
	if cycling {
		return styledLine{text: cycleHint, style: styles.Idle}
	}
	return styledLine{}
}

// buildRowLine renders one tab row. width is the target column width; when
// > 0 the row is padded so the selected row's background spans the
// container.
func (m *Model) buildRowLine(row overlay.Row, width int) styledLine {
	lineStyle := styles.Item
	urlStyle := styles.URL
	indicatorStyle := styles.ItemIndicator
	if row.Selected {
		lineStyle = styles.SelectedItem
		urlStyle = styles.SelectedURL
		indicatorStyle = styles.SelectedItemIndicator
	}
	markerStyle := lineStyle
	marker := " "
	if row.Active {
		marker = overlay.ActiveMarker
		if styles.Active != nil {
			active := styles.Active.Copy()
			if row.Selected && lineStyle != nil {
				active = active.Background(lineStyle.GetBackground())
			}
			markerStyle = &active
		}
	}
	glyphStyle := styles.Glyph
	if row.Selected {
		glyphStyle = lineStyle
	}

	var b strings.Builder
	b.WriteString(render(indicatorStyle, rowIndicator))
	b.WriteString(render(lineStyle, " "))
	b.WriteString(render(markerStyle, marker))
	b.WriteString(render(lineStyle, " "))
	b.WriteString(render(glyphStyle, row.Glyph))
	b.WriteString(render(lineStyle, " "+row.Title))
	if row.URL != "" {
		b.WriteString(render(urlStyle, "  "+row.URL))
	}
	text := b.String()
	if width > 0 {
		if w := ansi.StringWidth(text); w > width {
			text = ansi.Truncate(text, width, truncationTail)
		} else if pad := width - w; pad > 0 {
			text += render(lineStyle, strings.Repeat(" ", pad))
		}
	}
	return styledLine{text: text, raw: true}
}

func render(style *lipgloss.Style, text string) string {
	if style == nil || text == "" {
		return text
	}
	return style.Render(text)
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncViewport()
	return nil
}

// maxVisibleItems is the number of tab rows that fit, or -1 when the
// height is unknown.
func (m *Model) maxVisibleItems() int {
	if m.height <= 0 {
		return -1
	}
	used := 3 // header, status line, query prompt
	if info := m.currentInfo(); info != "" {
		used += 2
	}
	if m.showFooter {
		used += 2
	}
	remain := m.height - used
	if remain < 1 {
		return 1
	}
	return remain
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(5 * time.Second)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText(truncationTail, width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText(truncationTail, width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		line.text = truncateText(line.text, width)
		result[i] = line
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			out[i] = text
			continue
		}
		if line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

// truncateText shortens text to width cells, escape sequences included.
func truncateText(text string, width int) string {
	if width <= 0 || ansi.StringWidth(text) <= width {
		return text
	}
	return ansi.Truncate(text, width, truncationTail)
}
