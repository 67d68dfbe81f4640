package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/limits"
)

// maxOpusFrames is the longest Opus frame (120 ms at 48 kHz).
const maxOpusFrames = 5760

// OpusDecoder turns Opus packets into planar float blocks.
//
// Uses pion/opus, a pure Go decoder, so sources can be fed to the filter
// without CGO. The decoder keeps its own inter-packet state and must be used
// for one stream only.
type OpusDecoder struct {
	decoder opus.Decoder
	output  []byte
}

// NewOpusDecoder creates a decoder for a single Opus stream.
func NewOpusDecoder() *OpusDecoder {
	logrus.WithFields(logrus.Fields{
		"function": "NewOpusDecoder",
	}).Info("Creating new Opus decoder")

	return &OpusDecoder{
		decoder: opus.NewDecoder(),
		output:  make([]byte, maxOpusFrames*limits.MaxChannels*2),
	}
}

// Decode decodes one packet into planar float samples.
//
// Parameters:
//   - packet: Opus-encoded packet
//   - frames: Number of frames the packet carries, as signalled by the
//     container; 0 assumes a 20 ms frame at the decoded sample rate
//
// Returns:
//   - [][]float32: One plane per decoded channel
//   - uint32: Decoded sample rate in Hz
//   - error: Decoding error
func (d *OpusDecoder) Decode(packet []byte, frames int) ([][]float32, uint32, error) {
	if len(packet) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "OpusDecoder.Decode",
			"error":    "empty packet",
		}).Error("Opus packet validation failed")
		return nil, 0, fmt.Errorf("empty opus packet")
	}

	clear(d.output)
	bandwidth, isStereo, err := d.decoder.Decode(packet, d.output)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "OpusDecoder.Decode",
			"packet_size": len(packet),
			"error":       err.Error(),
		}).Error("Opus decode failed")
		return nil, 0, fmt.Errorf("opus decode failed: %w", err)
	}

	sampleRate := uint32(bandwidth.SampleRate())
	channels := 1
	if isStereo {
		channels = 2
	}

	if frames <= 0 {
		frames = int(sampleRate) / 50
	}
	frames = min(frames, len(d.output)/(2*channels))

	planes := make([][]float32, channels)
	for ch := range planes {
		planes[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			planes[ch][i] = Int16ToFloat(int16(binary.LittleEndian.Uint16(d.output[off:])))
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "OpusDecoder.Decode",
		"packet_size": len(packet),
		"bandwidth":   bandwidth.String(),
		"is_stereo":   isStereo,
		"frames":      frames,
		"sample_rate": sampleRate,
	}).Debug("Opus packet decoded")

	return planes, sampleRate, nil
}
