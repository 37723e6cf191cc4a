package main

import (
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
	"github.com/milk9111/gridpath/movement"
	"github.com/milk9111/gridpath/prefabs"
	"github.com/milk9111/gridpath/session"
	"golang.org/x/image/colornames"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	originX = 16
	originY = 40

	// frames to wait before an automatic route after the last one ends
	autoRouteDelay = 45
)

type Game struct {
	frames int
	idle   int

	levelName string
	seed      int64
	debug     bool
	paused    bool
	status    string

	viewer  *prefabs.ViewerSpec
	agent   *prefabs.AgentSpec
	session *session.Session
	watcher *prefabs.Watcher
	clock   *movement.Clock
	ui      *ebitenui.UI
}

// NewGame loads the viewer and agent prefabs and the level they name. A
// non-empty levelName or non-zero seed overrides viewer.yaml.
func NewGame(levelName string, seed int64, debug bool) (*Game, error) {
	g := &Game{levelName: levelName, seed: seed, debug: debug, clock: movement.NewClock(nil)}
	if err := g.load(); err != nil {
		return nil, err
	}
	g.ui = NewPauseUI(g)
	g.watcher = startWatcher()
	return g, nil
}

func (g *Game) load() error {
	viewer, err := prefabs.LoadViewerSpec()
	if err != nil {
		return err
	}
	agent, err := prefabs.LoadAgentSpec()
	if err != nil {
		return err
	}

	cfg := session.Config{
		Level:           viewer.Level,
		Physics:         viewer.Physics,
		Seed:            viewer.Seed,
		SegmentDuration: agent.SegmentDuration(),
		UnitSize:        agent.Size,
		LineOfSight:     viewer.ShowLineOfSight,
	}
	if g.levelName != "" {
		cfg.Level = g.levelName
	}
	if g.seed != 0 {
		cfg.Seed = g.seed
	}

	s, err := session.New(cfg)
	if err != nil {
		return err
	}
	if g.session != nil {
		g.session.Cancel()
	}
	g.viewer = viewer
	g.agent = agent
	g.session = s
	g.idle = 0
	g.status = fmt.Sprintf("loaded %s", cfg.Level)
	return nil
}

func startWatcher() *prefabs.Watcher {
	dirs := make([]string, 0, 3)
	for _, dir := range []string{"prefabs", "levels", "levels/scripts"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil
	}
	w, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		log.Printf("viewer: hot reload disabled: %v", err)
		return nil
	}
	return w
}

func (g *Game) Update() error {
	g.frames++
	dt := g.clock.Tick()
	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.ui.Update()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.newRoute()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.session.Cancel()
		g.status = "canceled"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.viewer.ShowLineOfSight = !g.viewer.ShowLineOfSight
		g.session.SetLineOfSight(g.viewer.ShowLineOfSight)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}

	if g.session.Busy() {
		g.idle = 0
	} else if g.viewer.AutoRoute {
		g.idle++
		if g.idle >= autoRouteDelay {
			g.newRoute()
		}
	}

	g.session.Update(dt)
	return nil
}

func (g *Game) newRoute() {
	g.idle = 0
	if err := g.session.TestMovement(); err != nil {
		g.status = err.Error()
		return
	}
	if r := g.session.Route(); r != nil {
		g.status = fmt.Sprintf("route %v -> %v, %d nodes", r.Start.Coord(), r.End.Coord(), r.Cost)
	} else {
		g.status = "no path"
	}
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if err := g.load(); err != nil {
				log.Printf("viewer: reload after %s: %v", name, err)
				g.status = "reload failed"
			}
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("viewer: watcher: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.viewer.Background.Or(colornames.Black))

	scale := g.scale()
	cell := float32(g.viewer.TileSize)
	if cell <= 0 {
		cell = float32(g.session.CellSize() * scale)
	}
	wall := g.viewer.Wall.Or(colornames.Slategray)
	floor := g.viewer.Floor.Or(colornames.Darkslategray)

	for _, n := range g.session.Grid().Nodes() {
		x, y := g.toScreen(n.Anchor(), scale)
		col := floor
		if n.IsObstructed() {
			col = wall
		}
		vector.FillRect(screen, x-cell/2, y-cell/2, cell-1, cell-1, col, false)
	}

	if g.debug {
		drawPhysics(screen, g.session.World(), scale)
	}

	if sight := g.session.Sight(); sight != nil {
		g.drawSight(screen, sight, cell, scale)
	}

	if r := g.session.Route(); r != nil {
		pathColor := g.agent.PathColor.Or(colornames.Orange)
		for i := 1; i < len(r.Path); i++ {
			x0, y0 := g.toScreen(r.Path[i-1].Anchor(), scale)
			x1, y1 := g.toScreen(r.Path[i].Anchor(), scale)
			vector.StrokeLine(screen, x0, y0, x1, y1, 3, pathColor, true)
		}
		sx, sy := g.toScreen(r.Start.Anchor(), scale)
		ex, ey := g.toScreen(r.End.Anchor(), scale)
		vector.StrokeRect(screen, sx-cell/2, sy-cell/2, cell, cell, 2, colornames.Lightgreen, false)
		vector.StrokeRect(screen, ex-cell/2, ey-cell/2, cell, cell, 2, colornames.Crimson, false)
	}

	size := float32(g.agent.Size * scale)
	if size <= 0 {
		size = cell / 2
	}
	ux, uy := g.toScreen(g.session.UnitPosition(), scale)
	vector.FillRect(screen, ux-size/2, uy-size/2, size, size, g.agent.Color.Or(colornames.Gold), true)

	ebitenutil.DebugPrint(screen, g.hud())

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) drawSight(screen *ebiten.Image, sight *session.Sight, cell float32, scale float64) {
	visible := make(map[grid.Coord]bool, len(sight.Visible))
	for _, n := range sight.Visible {
		visible[n.Coord()] = true
	}
	seen := g.viewer.Sight.Or(color.NRGBA{R: 0x7a, G: 0xe5, B: 0x82, A: 0xaa})
	inset := cell / 3
	for _, n := range sight.Trace {
		x, y := g.toScreen(n.Anchor(), scale)
		col := seen
		if !visible[n.Coord()] {
			col = colornames.Red
		}
		vector.FillRect(screen, x-inset/2, y-inset/2, inset, inset, col, false)
	}
}

func (g *Game) hud() string {
	msg := fmt.Sprintf("R: new route  C: cancel  L: line of sight  Esc: pause\n%s", g.status)
	if !g.debug {
		return msg
	}
	res := g.session.LastResult()
	los := "-"
	if sight := g.session.Sight(); sight != nil {
		los = fmt.Sprintf("%v", sight.Clear)
		if g.session.World() != nil {
			los += fmt.Sprintf(" ray blocked: %v", sight.RayBlocked)
		}
	}
	return fmt.Sprintf("%s\nframes: %d  FPS: %.2f  expanded: %d  cost: %.2f  los: %s",
		msg, g.frames, ebiten.ActualFPS(), res.Expanded, res.Cost, los)
}

func (g *Game) scale() float64 {
	if g.viewer.TileSize <= 0 {
		return 1
	}
	return g.viewer.TileSize / g.session.CellSize()
}

func (g *Game) toScreen(p common.Vec3, scale float64) (float32, float32) {
	return float32(originX + p.X*scale), float32(originY + p.Y*scale)
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
