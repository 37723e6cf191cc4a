// Command gridterm runs random routes over a level in the terminal.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep/speaker"
	"github.com/milk9111/gridpath/grid"
	"github.com/milk9111/gridpath/movement"
	"github.com/milk9111/gridpath/prefabs"
	"github.com/milk9111/gridpath/session"
)

// routeEvery is how long the terminal waits between automatic routes.
const routeEvery = 750 * time.Millisecond

type Game struct {
	screen  tcell.Screen
	session *session.Session
	agent   *prefabs.AgentSpec
	clock   *movement.Clock
	watcher *prefabs.Watcher

	cfg      session.Config
	logger   *log.Logger
	glyph    rune
	stepTone float64
	unit     tcell.Style
	path     tcell.Style
	status   string
	idle     time.Duration
	auto     bool

	audioInit bool
}

// NewGame loads the agent prefab and the level named by cfg. A zero
// cfg.SegmentDuration takes the agent's segment time on every load.
func NewGame(cfg session.Config, logger *log.Logger, mute bool) (*Game, error) {
	g := &Game{
		cfg:    cfg,
		logger: logger,
		clock:  movement.NewClock(nil),
		auto:   true,
	}
	if err := g.load(); err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	g.screen = screen

	if !mute {
		if err := g.initAudio(); err != nil {
			g.logger.Printf("gridterm: audio disabled: %v", err)
		}
	}

	if dirs := watchDirs(); len(dirs) > 0 {
		w, err := prefabs.NewWatcher(dirs...)
		if err != nil {
			g.logger.Printf("gridterm: hot reload disabled: %v", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// watchDirs lists the prefab, level and script folders present in the working
// directory.
func watchDirs() []string {
	dirs := make([]string, 0, 3)
	for _, dir := range []string{"prefabs", "levels", "levels/scripts"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (g *Game) load() error {
	agent, err := prefabs.LoadAgentSpec()
	if err != nil {
		return err
	}
	cfg := g.cfg
	if cfg.SegmentDuration == 0 {
		cfg.SegmentDuration = agent.SegmentDuration()
	}

	s, err := session.New(cfg, session.WithLogger(g.logger), session.WithStepListener(func(index int, node *grid.Node) {
		route := g.session.Route()
		g.playStep(route != nil && node == route.End)
	}))
	if err != nil {
		return err
	}
	if g.session != nil {
		g.session.Cancel()
	}
	g.session = s
	g.agent = agent
	g.glyph = agent.GlyphRune()
	g.stepTone = agent.StepTone
	g.unit = tcell.StyleDefault.Foreground(tcellColor(agent.Color.Or(color.RGBA{R: 0xff, G: 0xd7, A: 0xff}))).Bold(true)
	g.path = tcell.StyleDefault.Foreground(tcellColor(agent.PathColor.Or(color.RGBA{R: 0xff, G: 0x87, A: 0xff})))
	g.status = fmt.Sprintf("loaded %s", g.cfg.Level)
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
		res := g.session.LastResult()
		g.status = fmt.Sprintf("no path (%d expanded)", res.Expanded)
	}
}

func (g *Game) update() {
	dt := g.clock.Tick()
	if g.session.Busy() {
		g.idle = 0
	} else if g.auto {
		g.idle += dt
		if g.idle >= routeEvery {
			g.newRoute()
		}
	}
	g.session.Update(dt)
}

func (g *Game) draw() {
	g.screen.Clear()

	wall := tcell.StyleDefault.Foreground(tcell.ColorGray)
	floor := tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	for _, n := range g.session.Grid().Nodes() {
		c := n.Coord()
		if n.IsObstructed() {
			g.screen.SetContent(c.X, c.Y, '#', nil, wall)
		} else {
			g.screen.SetContent(c.X, c.Y, '.', nil, floor)
		}
	}

	if sight := g.session.Sight(); sight != nil {
		visible := make(map[grid.Coord]bool, len(sight.Visible))
		for _, n := range sight.Visible {
			visible[n.Coord()] = true
		}
		for _, n := range sight.Trace {
			c := n.Coord()
			if visible[c] {
				g.screen.SetContent(c.X, c.Y, '+', nil, tcell.StyleDefault.Foreground(tcell.ColorGreen))
			} else {
				g.screen.SetContent(c.X, c.Y, 'x', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
			}
		}
	}

	if r := g.session.Route(); r != nil {
		for _, n := range r.Path {
			c := n.Coord()
			g.screen.SetContent(c.X, c.Y, '*', nil, g.path)
		}
	}

	pos := g.session.UnitPosition()
	size := g.session.CellSize()
	ux := int(math.Floor(pos.X / size))
	uy := int(math.Floor(pos.Y / size))
	g.screen.SetContent(ux, uy, g.glyph, nil, g.unit)

	bounds := g.session.Grid().Bounds()
	g.drawText(0, bounds.Height+1, "r: route  c: cancel  l: sight  a: auto  q: quit", tcell.StyleDefault)
	g.drawText(0, bounds.Height+2, g.status, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	g.screen.Show()
}

func (g *Game) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		g.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'r', ' ':
			g.newRoute()
		case 'c':
			g.session.Cancel()
			g.status = "canceled"
		case 'l':
			g.cfg.LineOfSight = !g.cfg.LineOfSight
			g.session.SetLineOfSight(g.cfg.LineOfSight)
		case 'a':
			g.auto = !g.auto
		}
	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func (g *Game) run() {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- g.screen.PollEvent()
		}
	}()

	var reload <-chan string
	if g.watcher != nil {
		reload = g.watcher.Events
	}

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}
		case name, ok := <-reload:
			if !ok {
				reload = nil
				continue
			}
			if err := g.load(); err != nil {
				g.status = fmt.Sprintf("reload %s: %v", name, err)
			}
		case <-ticker.C:
			g.update()
			g.draw()
		}
	}
}

func (g *Game) cleanup() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if g.audioInit {
		speaker.Close()
	}
	g.screen.Fini()
}

func tcellColor(c color.Color) tcell.Color {
	r, gr, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(gr>>8), int32(b>>8))
}

func main() {
	levelName := flag.String("level", "arena", "level name in levels/ (basename, .json optional)")
	seed := flag.Int64("seed", 0, "random seed for route sampling")
	usePhysics := flag.Bool("physics", false, "read walkability from the physics space")
	sight := flag.Bool("sight", true, "show the line-of-sight trace")
	mute := flag.Bool("mute", false, "disable the step cue")
	logPath := flag.String("log", "", "write diagnostics to this file")
	flag.Parse()

	logger := log.New(io.Discard, "", 0)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gridterm: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = log.New(f, "", log.LstdFlags)
	}

	cfg := session.Config{
		Level:       *levelName,
		Seed:        *seed,
		Physics:     *usePhysics,
		LineOfSight: *sight,
	}

	game, err := NewGame(cfg, logger, *mute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridterm: %v\n", err)
		os.Exit(1)
	}
	defer game.cleanup()

	game.run()
}
