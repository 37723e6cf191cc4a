package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	debug := flag.Bool("debug", false, "show search statistics")
	levelName := flag.String("level", "", "level name in levels/ (basename, .json optional)")
	seed := flag.Int64("seed", 0, "random seed for route sampling (0 uses viewer.yaml)")
	flag.Parse()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("gridpath")

	game, err := NewGame(*levelName, *seed, *debug)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
