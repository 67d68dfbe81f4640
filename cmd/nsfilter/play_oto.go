//go:build !headless

package main

import (
	"context"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/av/audio"
)

// player plays filtered blocks on the default output device.
type player struct {
	ctx    *oto.Context
	player *oto.Player
	queue  *sampleQueue
}

func newPlayer(sampleRate, channels int) (*player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   40 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	queue := newSampleQueue(sampleRate, channels)
	p := &player{
		ctx:    ctx,
		player: ctx.NewPlayer(queue),
		queue:  queue,
	}
	p.player.Play()

	logrus.WithFields(logrus.Fields{
		"function":    "newPlayer",
		"sample_rate": sampleRate,
		"channels":    channels,
	}).Info("Audio playback started")
	return p, nil
}

// Write queues block for playback.
func (p *player) Write(block *audio.Block) {
	p.queue.Push(block)
}

// Drain waits for queued audio to finish playing.
func (p *player) Drain(ctx context.Context) {
	p.queue.Drain(ctx)
}

// Close stops playback.
func (p *player) Close() error {
	return p.player.Close()
}
