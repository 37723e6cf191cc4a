package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate      = beep.SampleRate(44100)
	defaultStepTone = 880.0
	stepCueLength   = 40 * time.Millisecond
)

func (g *Game) initAudio() error {
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		g.audioInit = true
	}
	return err
}

// playStep is a short sine blip, a fifth higher on the last node of a route.
func (g *Game) playStep(last bool) {
	if !g.audioInit {
		return
	}
	freq := g.stepTone
	if freq <= 0 {
		freq = defaultStepTone
	}
	if last {
		freq *= 1.5
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(stepCueLength), sine))
}
