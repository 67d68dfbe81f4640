package main

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/opd-ai/micdsp/av/audio"
)

// maxQueuedSeconds bounds how far the producer may run ahead of playback.
const maxQueuedSeconds = 0.25

// sampleQueue is an interleaved float32 little-endian byte FIFO read by the
// audio device. Reads never block; missing data is played as silence.
type sampleQueue struct {
	mu       sync.Mutex
	buf      []byte
	channels int
	limit    int
}

func newSampleQueue(sampleRate, channels int) *sampleQueue {
	return &sampleQueue{
		channels: channels,
		limit:    int(float64(sampleRate)*maxQueuedSeconds) * channels * 4,
	}
}

// Read implements io.Reader for the audio device.
func (q *sampleQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(p, q.buf)
	q.buf = q.buf[n:]
	clear(p[n:])
	return len(p), nil
}

// Push interleaves block into the queue, waiting while the queue is full.
func (q *sampleQueue) Push(block *audio.Block) {
	for q.Len() > q.limit {
		time.Sleep(5 * time.Millisecond)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for i := 0; i < block.Frames; i++ {
		for ch := 0; ch < q.channels; ch++ {
			var v float32
			if ch < len(block.Data) && i < len(block.Data[ch]) {
				v = block.Data[ch][i]
			}
			q.buf = binary.LittleEndian.AppendUint32(q.buf, math.Float32bits(v))
		}
	}
}

// Len returns the number of queued bytes.
func (q *sampleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Drain waits until the queue is empty or ctx is cancelled.
func (q *sampleQueue) Drain(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for q.Len() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
