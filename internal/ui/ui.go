// Package ui renders live snapshots in the terminal; a diagnostic view
// outside the pipe protocol.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hostprobe/internal/collect"
	"hostprobe/internal/config"
	"hostprobe/internal/sensor"
)

// Model polls the collector on the configured interval and renders the
// latest snapshot.
type Model struct {
	cfg    config.Config
	col    *collect.Collector
	latest sensor.Snapshot
	taken  time.Time
	width  int
	height int
}

func New(cfg config.Config, col *collect.Collector) *Model {
	return &Model{cfg: cfg, col: col, width: 120, height: 40}
}

type tickMsg struct{}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd {
	m.latest = m.col.Collect()
	m.taken = time.Now()
	return m.tickCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.col.ClearCache()
		}
	case tickMsg:
		m.latest = m.col.Collect()
		m.taken = time.Now()
		return m, m.tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("hostprobe") + "  " +
		subtleStyle.Render(m.taken.Format("Mon Jan 2 15:04:05 MST 2006")) + "  " +
		subtleStyle.Render("q quit · c clear cache")

	cpuFam := s["cpu"]
	cpuCard := card("CPU", fmt.Sprintf("%s\n%s  %s MHz",
		truncate(str(cpuFam, "name"), 34),
		gaugeBar(num(cpuFam, "usage_total"), 22),
		fmtNum(cpuFam, "frequency")))

	memFam := s["memory"]
	memCard := card("Memory", fmt.Sprintf("%s\n%.0f/%.0f MB | swap %.0f MB",
		gaugeBar(num(memFam, "usage_percent"), 22),
		num(memFam, "used"), num(memFam, "total"), num(memFam, "swap_used")))

	diskFam := s["disk"]
	diskCard := card("Disk", fmt.Sprintf("%s\n%.1f/%.1f GB",
		gaugeBar(num(diskFam, "usage_percent"), 22),
		num(diskFam, "used"), num(diskFam, "total")))

	gpuCard := ""
	if gpuFam := s["gpu"]; len(gpuFam) > 0 {
		gpuCard = card("GPU", fmt.Sprintf("%s\n%s  vram %.0f/%.0f MB  %s°C",
			truncate(str(gpuFam, "name"), 28),
			gaugeBar(num(gpuFam, "usage"), 22),
			num(gpuFam, "vram_used"), num(gpuFam, "vram_total"),
			fmtNum(gpuFam, "temperature")))
	}

	battCard := ""
	if battFam := s["battery"]; len(battFam) > 0 {
		state := "discharging"
		if b, ok := battFam["is_charging"].Value.(bool); ok && b {
			state = "charging"
		} else if b, ok := battFam["is_plugged_in"].Value.(bool); ok && b {
			state = "plugged in"
		}
		battCard = card("Battery", fmt.Sprintf("%.0f%% (%s)", num(battFam, "percent"), state))
	}

	columns := []string{cpuCard, memCard, diskCard}
	if gpuCard != "" {
		columns = append(columns, gpuCard)
	}
	if battCard != "" {
		columns = append(columns, battCard)
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	line2 := card("Cores", renderCores(s["cores"]))

	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2)
}

// renderCores draws one mini-gauge per core, in index order.
func renderCores(fam sensor.Family) string {
	var rows []string
	for i := 0; ; i++ {
		r, ok := fam[strconv.Itoa(i)+"_usage"]
		if !ok {
			break
		}
		usage, _ := sensor.Float(r)
		row := fmt.Sprintf("%2d %s", i, gaugeBar(usage, 14))
		if t, ok := fam[strconv.Itoa(i)+"_temp"]; ok {
			if temp, ok := sensor.Float(t); ok {
				row += fmt.Sprintf(" %3.0f°C", temp)
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return subtleStyle.Render("no per-core data")
	}
	return strings.Join(rows, "\n")
}

// Helpers
func num(fam sensor.Family, key string) float64 {
	v, _ := sensor.Float(fam[key])
	return v
}

func fmtNum(fam sensor.Family, key string) string {
	if v, ok := sensor.Float(fam[key]); ok {
		return fmt.Sprintf("%.0f", v)
	}
	return "-"
}

func str(fam sensor.Family, key string) string {
	if s, ok := fam[key].Value.(string); ok {
		return s
	}
	return "-"
}

func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RunTUI starts the Bubble Tea program.
func RunTUI(cfg config.Config, col *collect.Collector) error {
	prog := tea.NewProgram(New(cfg, col), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
