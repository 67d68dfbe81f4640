package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/pion/webrtc/v3/pkg/media/oggreader"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/av/audio"
)

// opusGranuleRate is the clock of Ogg/Opus granule positions.
const opusGranuleRate = 48000

// blockSource yields audio blocks in the output format.
// Next returns io.EOF together with the final, possibly short, block.
type blockSource interface {
	Next(frames int) (*audio.Block, error)
}

// toneSource synthesises a 440 Hz tone gated on and off every half second
// over a constant white noise bed, so both speech-like and noise-only passages
// reach the filter.
type toneSource struct {
	sampleRate uint32
	channels   int
	remaining  int
	position   int
	rng        *rand.Rand
}

const (
	toneFrequency = 440.0
	toneAmplitude = 0.3
	noiseStdDev   = 0.03
)

func newToneSource(sampleRate uint32, channels, frames int, seed int64) *toneSource {
	return &toneSource{
		sampleRate: sampleRate,
		channels:   channels,
		remaining:  frames,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (s *toneSource) Next(frames int) (*audio.Block, error) {
	if s.remaining <= 0 {
		return nil, io.EOF
	}

	n := min(frames, s.remaining)
	block := audio.NewBlock(s.channels, n)
	half := int(s.sampleRate / 2)
	for i := 0; i < n; i++ {
		t := s.position + i
		var tone float64
		if (t/half)%2 == 0 {
			tone = toneAmplitude * math.Sin(2*math.Pi*toneFrequency*float64(t)/float64(s.sampleRate))
		}
		for ch := 0; ch < s.channels; ch++ {
			block.Data[ch][i] = float32(tone + s.rng.NormFloat64()*noiseStdDev)
		}
	}
	s.position += n
	s.remaining -= n

	if s.remaining == 0 {
		return block, io.EOF
	}
	return block, nil
}

// oggOpusSource decodes an Ogg/Opus stream and converts it to the output
// format. It expects one Opus packet per Ogg page, the layout produced by
// pion's oggwriter.
type oggOpusSource struct {
	reader      *oggreader.OggReader
	decoder     *audio.OpusDecoder
	resampler   *audio.Resampler
	sampleRate  uint32
	channels    int
	lastGranule uint64
	pending     [][]float32
	exhausted   bool
	skipFrames  int // Pre-skip still to drop, in output frames
}

func newOggOpusSource(r io.Reader, sampleRate uint32, channels int) (*oggOpusSource, error) {
	reader, header, err := oggreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read Ogg header: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "newOggOpusSource",
		"channels":    header.Channels,
		"sample_rate": header.SampleRate,
		"pre_skip":    header.PreSkip,
	}).Info("Opened Ogg/Opus stream")

	return &oggOpusSource{
		reader:     reader,
		decoder:    audio.NewOpusDecoder(),
		sampleRate: sampleRate,
		channels:   channels,
		pending:    make([][]float32, channels),
		skipFrames: int(header.PreSkip) * int(sampleRate) / opusGranuleRate,
	}, nil
}

func (s *oggOpusSource) Next(frames int) (*audio.Block, error) {
	for len(s.pending[0]) < frames && !s.exhausted {
		if err := s.decodePage(); err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			s.exhausted = true
		}
	}

	n := min(frames, len(s.pending[0]))
	if n == 0 {
		return nil, io.EOF
	}

	block := audio.NewBlock(s.channels, n)
	for ch := range s.pending {
		copy(block.Data[ch], s.pending[ch][:n])
		s.pending[ch] = s.pending[ch][n:]
	}

	if s.exhausted && len(s.pending[0]) == 0 {
		return block, io.EOF
	}
	return block, nil
}

// decodePage decodes the next audio page and appends it to the pending planes.
func (s *oggOpusSource) decodePage() error {
	payload, pageHeader, err := s.reader.ParseNextPage()
	if err != nil {
		return err
	}
	if bytes.HasPrefix(payload, []byte("OpusTags")) || len(payload) == 0 {
		return nil
	}

	granuleFrames := 0
	if pageHeader.GranulePosition > s.lastGranule {
		granuleFrames = int(pageHeader.GranulePosition - s.lastGranule)
		s.lastGranule = pageHeader.GranulePosition
	}

	planes, decodedRate, err := s.decoder.Decode(payload, 0)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "oggOpusSource.decodePage",
			"error":    err.Error(),
		}).Warn("Skipping undecodable Opus page")
		return nil
	}
	if granuleFrames > 0 {
		planes = truncatePlanes(planes, granuleFrames*int(decodedRate)/opusGranuleRate)
	}

	planes = mapChannels(planes, s.channels)
	if decodedRate != s.sampleRate {
		if s.resampler == nil || s.resampler.GetInputRate() != decodedRate {
			s.resampler, err = audio.NewResampler(audio.ResamplerConfig{
				InputRate:  decodedRate,
				OutputRate: s.sampleRate,
				Channels:   s.channels,
			})
			if err != nil {
				return err
			}
		}
		if planes, err = s.resampler.Resample(planes); err != nil {
			return err
		}
	}

	if s.skipFrames > 0 {
		skip := min(s.skipFrames, len(planes[0]))
		for ch := range planes {
			planes[ch] = planes[ch][skip:]
		}
		s.skipFrames -= skip
	}

	for ch := range s.pending {
		s.pending[ch] = append(s.pending[ch], planes[ch]...)
	}
	return nil
}

// truncatePlanes shortens every plane to at most frames samples.
func truncatePlanes(planes [][]float32, frames int) [][]float32 {
	for ch := range planes {
		if frames < len(planes[ch]) {
			planes[ch] = planes[ch][:frames]
		}
	}
	return planes
}

// mapChannels converts planes to the requested channel count. Mono is
// duplicated to stereo; stereo is averaged down to mono.
func mapChannels(planes [][]float32, channels int) [][]float32 {
	switch {
	case len(planes) == channels:
		return planes
	case len(planes) == 1:
		out := make([][]float32, channels)
		for ch := range out {
			out[ch] = append([]float32(nil), planes[0]...)
		}
		return out
	default:
		mono := make([]float32, len(planes[0]))
		for _, plane := range planes {
			for i, v := range plane {
				mono[i] += v / float32(len(planes))
			}
		}
		return mapChannels([][]float32{mono}, channels)
	}
}
