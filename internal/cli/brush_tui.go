package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/noderelax/pkg/arrange"
	"github.com/matzehuels/noderelax/pkg/brush"
	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/nodegraph"
)

const (
	// cellAspect is how many world units tall a cell is per unit of width.
	cellAspect = 2.0
	// pixelsPerColumn converts the brush size, which is in screen pixels,
	// to terminal columns.
	pixelsPerColumn = 8.0
	// statusLines is the number of rows below the canvas.
	statusLines = 3
	// arrangeInterval paces background arrange steps.
	arrangeInterval = 16 * time.Millisecond
)

// Canvas styles
var (
	canvasNodeStyle     = lipgloss.NewStyle().Foreground(colorWhite)
	canvasSelectedStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	canvasFrameStyle    = lipgloss.NewStyle().Foreground(colorDim)
	canvasBrushStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	canvasPickStyle     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	statusKeyStyle      = lipgloss.NewStyle().Foreground(colorGray)
)

// arrangeTickMsg asks the model to resume the running arrange task.
type arrangeTickMsg struct{}

// viewport maps terminal cells to world coordinates. World y grows upward,
// terminal rows grow downward.
type viewport struct {
	origin r2.Vec  // world position of cell (0, 0)
	scale  float64 // world units per column
}

func (v viewport) toWorld(col, row int) r2.Vec {
	return r2.Vec{
		X: v.origin.X + (float64(col)+0.5)*v.scale,
		Y: v.origin.Y - (float64(row)+0.5)*v.scale*cellAspect,
	}
}

func (v viewport) toCell(p r2.Vec) (col, row int) {
	col = int(math.Floor((p.X - v.origin.X) / v.scale))
	row = int(math.Floor((v.origin.Y - p.Y) / (v.scale * cellAspect)))
	return col, row
}

// fitViewport returns a viewport showing every node of g in a cols x rows
// canvas, with a one-cell margin.
func fitViewport(g *nodegraph.Graph, cols, rows int) viewport {
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, n := range g.Nodes {
		loc, err := n.GlobalLocation()
		if err != nil {
			continue
		}
		lo.X = math.Min(lo.X, loc.X)
		hi.X = math.Max(hi.X, loc.X+n.Size.X)
		lo.Y = math.Min(lo.Y, loc.Y-n.Size.Y)
		hi.Y = math.Max(hi.Y, loc.Y)
	}
	if math.IsInf(lo.X, 1) {
		return viewport{scale: 1}
	}
	cols, rows = max(cols-2, 1), max(rows-2, 1)
	scale := math.Max((hi.X-lo.X)/float64(cols), (hi.Y-lo.Y)/(float64(rows)*cellAspect))
	if scale <= 0 {
		scale = 1
	}
	return viewport{
		origin: r2.Vec{X: lo.X - scale, Y: hi.Y + scale*cellAspect},
		scale:  scale,
	}
}

// brushModel is the bubbletea model of the brush command.
//
// Brush and arrange never run at the same time: pointer input is ignored
// while an arrange task is in flight, so the task is the only writer of
// node locations between ticks.
type brushModel struct {
	graph  *nodegraph.Graph
	ctrl   *brush.Controller
	cfg    arrange.Config
	path   string // where 'w' writes the document
	width  int
	height int
	view   viewport
	fitted bool

	buttonDown bool
	dragKey    bool // drag mode toggled from the keyboard
	lastMouse  tea.MouseEvent

	task     *arrange.Task
	progress arrange.Progress
	status   string
	dirty    bool
	err      error
}

func newBrushModel(g *nodegraph.Graph, settings brush.Settings, cfg arrange.Config, path string) *brushModel {
	return &brushModel{
		graph: g,
		ctrl:  brush.NewController(settings),
		cfg:   cfg,
		path:  path,
		view:  viewport{scale: 1},
	}
}

func (m *brushModel) Init() tea.Cmd { return nil }

func (m *brushModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.fitted {
			m.fit()
		}
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(tea.MouseEvent(msg))
	case arrangeTickMsg:
		return m, m.stepArrange()
	}
	return m, nil
}

func (m *brushModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.task != nil {
			m.task.Cancel()
		}
		return tea.Quit
	case "esc":
		if m.task != nil {
			m.task.Cancel()
			m.status = "canceling arrange"
		}
	case "a":
		return m.startArrange()
	case "d":
		m.dragKey = !m.dragKey
		m.tickBrush(m.lastMouse)
	case "]", "+":
		m.ctrl.Grow()
	case "[", "-":
		m.ctrl.Shrink()
	case "f":
		m.fit()
	case "w":
		m.write()
	}
	return nil
}

func (m *brushModel) handleMouse(ev tea.MouseEvent) {
	switch {
	case ev.Action == tea.MouseActionPress && ev.Button == tea.MouseButtonLeft:
		m.buttonDown = true
	case ev.Action == tea.MouseActionRelease:
		m.buttonDown = false
	case ev.Action == tea.MouseActionMotion:
	default:
		return
	}
	m.lastMouse = ev
	m.tickBrush(ev)
}

// tickBrush feeds one pointer event to the controller.
func (m *brushModel) tickBrush(ev tea.MouseEvent) {
	if m.task != nil {
		return
	}
	in := brush.Input{
		Cursor:   m.view.toWorld(ev.X, ev.Y),
		Radius:   m.ctrl.Settings.BrushSize / pixelsPerColumn * m.view.scale,
		Trigger:  m.buttonDown,
		Modifier: ev.Shift || m.dragKey,
	}
	before := m.ctrl.Triggered() || m.ctrl.Dragging()
	if err := m.ctrl.Tick(m.graph, in); err != nil {
		m.err = err
		return
	}
	if before || in.Trigger {
		m.dirty = true
	}
}

func (m *brushModel) startArrange() tea.Cmd {
	if m.task != nil {
		return nil
	}
	task, err := arrange.New(m.graph, m.cfg)
	if err != nil {
		m.err = err
		return nil
	}
	m.task = task
	m.progress = arrange.Progress{}
	m.status = "arranging"
	m.err = nil
	return arrangeTick()
}

func (m *brushModel) stepArrange() tea.Cmd {
	if m.task == nil {
		return nil
	}
	p, err := m.task.Resume()
	m.dirty = true
	if err != nil {
		m.err = err
		m.task = nil
		return nil
	}
	if p.Done {
		if m.task.Canceled() {
			m.status = "arrange canceled"
		} else {
			m.status = fmt.Sprintf("arranged in %s", m.task.Result().Duration.Round(time.Millisecond))
		}
		m.task = nil
		return nil
	}
	m.progress = p
	return arrangeTick()
}

func arrangeTick() tea.Cmd {
	return tea.Tick(arrangeInterval, func(time.Time) tea.Msg { return arrangeTickMsg{} })
}

func (m *brushModel) fit() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.view = fitViewport(m.graph, m.width, m.canvasRows())
	m.fitted = true
}

func (m *brushModel) write() {
	if err := graph.WriteGraphFile(m.path, m.graph); err != nil {
		m.err = err
		return
	}
	m.dirty = false
	m.err = nil
	m.status = "wrote " + m.path
}

func (m *brushModel) canvasRows() int {
	return max(m.height-statusLines, 1)
}

// =============================================================================
// View
// =============================================================================

type cell struct {
	r     rune
	style *lipgloss.Style
}

func (m *brushModel) View() string {
	if m.width == 0 {
		return "loading..."
	}
	cols, rows := m.width, m.canvasRows()
	canvas := make([][]cell, rows)
	for i := range canvas {
		canvas[i] = make([]cell, cols)
	}
	put := func(col, row int, r rune, s *lipgloss.Style) {
		if row >= 0 && row < rows && col >= 0 && col < cols {
			canvas[row][col] = cell{r, s}
		}
	}

	for _, n := range m.graph.Nodes {
		if n.IsFrame() {
			m.drawNode(put, n)
		}
	}
	for _, n := range m.graph.Nodes {
		if !n.IsFrame() {
			m.drawNode(put, n)
		}
	}
	m.drawBrush(put)

	var b strings.Builder
	for _, line := range canvas {
		for _, c := range line {
			switch {
			case c.r == 0:
				b.WriteByte(' ')
			case c.style != nil:
				b.WriteString(c.style.Render(string(c.r)))
			default:
				b.WriteRune(c.r)
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.statusView())
	return b.String()
}

func (m *brushModel) drawNode(put func(int, int, rune, *lipgloss.Style), n *nodegraph.Node) {
	loc, err := n.GlobalLocation()
	if err != nil {
		return
	}
	c0, r0 := m.view.toCell(loc)
	c1, r1 := m.view.toCell(r2.Vec{X: loc.X + n.Size.X, Y: loc.Y - n.Size.Y})
	c1, r1 = max(c1, c0+1), max(r1, r0+1)

	style := &canvasNodeStyle
	horiz, vert := '─', '│'
	switch {
	case n.IsFrame():
		style = &canvasFrameStyle
		horiz, vert = '┄', '┆'
	case n == m.ctrl.DraggingNode && m.ctrl.DragMode():
		style = &canvasPickStyle
	case n.Selected:
		style = &canvasSelectedStyle
	}

	for c := c0 + 1; c < c1; c++ {
		put(c, r0, horiz, style)
		put(c, r1, horiz, style)
	}
	for r := r0 + 1; r < r1; r++ {
		put(c0, r, vert, style)
		put(c1, r, vert, style)
		if !n.IsFrame() {
			for c := c0 + 1; c < c1; c++ {
				put(c, r, ' ', nil)
			}
		}
	}
	put(c0, r0, '╭', style)
	put(c1, r0, '╮', style)
	put(c0, r1, '╰', style)
	put(c1, r1, '╯', style)

	label := []rune(n.Name)
	if room := c1 - c0 - 1; len(label) > room {
		label = label[:max(room, 0)]
	}
	row := r0 + 1
	if n.IsFrame() {
		row = r0
	}
	for i, r := range label {
		put(c0+1+i, row, r, style)
	}
}

func (m *brushModel) drawBrush(put func(int, int, rune, *lipgloss.Style)) {
	if m.ctrl.DragMode() {
		return
	}
	cx, cy := m.lastMouse.X, m.lastMouse.Y
	radius := m.ctrl.Settings.BrushSize / pixelsPerColumn
	steps := max(int(radius*4), 12)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		col := cx + int(math.Round(radius*math.Cos(a)))
		row := cy + int(math.Round(radius*math.Sin(a)/cellAspect))
		put(col, row, '·', &canvasBrushStyle)
	}
}

func (m *brushModel) statusView() string {
	mode := "brush"
	if m.ctrl.DragMode() {
		mode = "drag"
	}
	parts := []string{
		StyleTitle.Render(mode),
		fmt.Sprintf("%s %.0f", statusKeyStyle.Render("size"), m.ctrl.Settings.BrushSize),
	}
	if m.task != nil {
		parts = append(parts, fmt.Sprintf("%s %s %3.0f%%",
			statusKeyStyle.Render("arrange"), m.progress, 100*m.progress.Fraction()))
	}
	if m.dirty {
		parts = append(parts, StyleWarning.Render("modified"))
	}
	if m.status != "" {
		parts = append(parts, StyleDim.Render(m.status))
	}
	line := strings.Join(parts, StyleDim.Render(" · "))

	errLine := ""
	if m.err != nil {
		errLine = styleIconError.Render(iconError + " " + m.err.Error())
	}
	help := StyleDim.Render("drag: brush  shift/d: move node  [ ]: size  a: arrange  esc: cancel  f: fit  w: write  q: quit")
	return line + "\n" + errLine + "\n" + help
}
