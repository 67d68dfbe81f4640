//go:build headless

package main

import (
	"context"
	"errors"

	"github.com/opd-ai/micdsp/av/audio"
)

// errNoAudioDevice is returned by newPlayer in headless builds.
var errNoAudioDevice = errors.New("playback is not available in headless builds")

type player struct{}

func newPlayer(sampleRate, channels int) (*player, error) {
	return nil, errNoAudioDevice
}

func (p *player) Write(block *audio.Block) {}

func (p *player) Drain(ctx context.Context) {}

func (p *player) Close() error { return nil }
