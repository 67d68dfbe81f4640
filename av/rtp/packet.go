package rtp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/limits"
)

const (
	// L16PayloadType is the dynamic payload type used for L16 audio.
	L16PayloadType = 96

	// MaxPayloadBytes keeps packets below a typical path MTU.
	MaxPayloadBytes = 1200

	bytesPerSample = 2
)

// L16Packetizer converts planar audio blocks into L16 RTP packets.
type L16Packetizer struct {
	mu             sync.Mutex
	ssrc           uint32
	sequenceNumber uint16
	timestamp      uint32
	channels       int
	out            io.Writer
	payload        []byte
}

// NewL16Packetizer creates a packetizer writing one RTP packet per Write call.
//
// Parameters:
//   - out: Packet sink, typically a connected UDP socket
//   - channels: Interleaved channel count (1 or 2)
//
// Returns:
//   - *L16Packetizer: New packetizer instance
//   - error: Any error that occurred during setup
func NewL16Packetizer(out io.Writer, channels int) (*L16Packetizer, error) {
	if out == nil {
		return nil, fmt.Errorf("packet writer cannot be nil")
	}
	if channels < 1 || channels > limits.MaxChannels {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	ssrcBytes := make([]byte, 4)
	if _, err := rand.Read(ssrcBytes); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewL16Packetizer",
			"error":    err.Error(),
		}).Error("Failed to generate SSRC")
		return nil, fmt.Errorf("failed to generate SSRC: %w", err)
	}
	ssrc := binary.BigEndian.Uint32(ssrcBytes)

	logrus.WithFields(logrus.Fields{
		"function": "NewL16Packetizer",
		"ssrc":     ssrc,
		"channels": channels,
	}).Info("L16 packetizer created")

	return &L16Packetizer{
		ssrc:     ssrc,
		channels: channels,
		out:      out,
		payload:  make([]byte, 0, MaxPayloadBytes),
	}, nil
}

// SSRC returns the stream's synchronization source identifier.
func (p *L16Packetizer) SSRC() uint32 {
	return p.ssrc
}

// FramesPerPacket returns the largest number of frames one packet carries.
func (p *L16Packetizer) FramesPerPacket() int {
	return MaxPayloadBytes / (bytesPerSample * p.channels)
}

// SendBlock packetizes block and writes the packets to the sink.
// Planes missing from the block are sent as silence.
func (p *L16Packetizer) SendBlock(block *audio.Block) error {
	if block == nil || block.Frames <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	perPacket := p.FramesPerPacket()
	for start := 0; start < block.Frames; start += perPacket {
		end := min(start+perPacket, block.Frames)
		p.fillPayload(block, start, end)

		packet := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         false,
				PayloadType:    L16PayloadType,
				SequenceNumber: p.sequenceNumber,
				Timestamp:      p.timestamp,
				SSRC:           p.ssrc,
			},
			Payload: p.payload,
		}

		data, err := packet.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal RTP packet: %w", err)
		}
		if _, err := p.out.Write(data); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "L16Packetizer.SendBlock",
				"sequence": p.sequenceNumber,
				"error":    err.Error(),
			}).Warn("Failed to send RTP packet")
			return fmt.Errorf("failed to send RTP packet: %w", err)
		}

		p.sequenceNumber++
		p.timestamp += uint32(end - start)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "L16Packetizer.SendBlock",
		"frames":    block.Frames,
		"sequence":  p.sequenceNumber,
		"timestamp": p.timestamp,
	}).Debug("Block sent")
	return nil
}

// fillPayload interleaves frames [start, end) of block as big-endian int16.
func (p *L16Packetizer) fillPayload(block *audio.Block, start, end int) {
	p.payload = p.payload[:0]
	for i := start; i < end; i++ {
		for ch := 0; ch < p.channels; ch++ {
			var sample int16
			if ch < len(block.Data) && i < len(block.Data[ch]) {
				sample = audio.FloatToInt16(block.Data[ch][i])
			}
			p.payload = binary.BigEndian.AppendUint16(p.payload, uint16(sample))
		}
	}
}

// L16Depacketizer turns L16 RTP packets back into planar float samples.
type L16Depacketizer struct {
	mu           sync.Mutex
	channels     int
	expectedSSRC uint32
	hasSSRC      bool
	lastSeq      uint16
	hasLastSeq   bool
	gaps         uint64
}

// NewL16Depacketizer creates a depacketizer for the given channel count.
func NewL16Depacketizer(channels int) (*L16Depacketizer, error) {
	if channels < 1 || channels > limits.MaxChannels {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	return &L16Depacketizer{channels: channels}, nil
}

// ProcessPacket parses one RTP packet.
//
// Returns:
//   - [][]float32: One plane per channel
//   - uint32: Timestamp from the RTP header
//   - error: Malformed packet, foreign SSRC or truncated payload
func (d *L16Depacketizer) ProcessPacket(data []byte) ([][]float32, uint32, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("RTP data cannot be empty")
	}

	packet := &rtp.Packet{}
	if err := packet.Unmarshal(data); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal RTP packet: %w", err)
	}

	frameBytes := bytesPerSample * d.channels
	if len(packet.Payload)%frameBytes != 0 {
		return nil, 0, fmt.Errorf("payload of %d bytes is not a whole number of %d-byte frames", len(packet.Payload), frameBytes)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasSSRC {
		d.expectedSSRC = packet.SSRC
		d.hasSSRC = true
	} else if packet.SSRC != d.expectedSSRC {
		return nil, 0, fmt.Errorf("unexpected SSRC: expected %d, got %d", d.expectedSSRC, packet.SSRC)
	}

	if d.hasLastSeq && packet.SequenceNumber != d.lastSeq+1 {
		d.gaps++
		logrus.WithFields(logrus.Fields{
			"function":          "L16Depacketizer.ProcessPacket",
			"expected_sequence": d.lastSeq + 1,
			"received_sequence": packet.SequenceNumber,
		}).Warn("Sequence gap detected in RTP stream")
	}
	d.lastSeq = packet.SequenceNumber
	d.hasLastSeq = true

	frames := len(packet.Payload) / frameBytes
	planes := make([][]float32, d.channels)
	for ch := range planes {
		planes[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < d.channels; ch++ {
			off := (i*d.channels + ch) * bytesPerSample
			sample := int16(binary.BigEndian.Uint16(packet.Payload[off:]))
			planes[ch][i] = audio.Int16ToFloat(sample)
		}
	}
	return planes, packet.Timestamp, nil
}

// Gaps returns the number of sequence discontinuities seen so far.
func (d *L16Depacketizer) Gaps() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gaps
}
