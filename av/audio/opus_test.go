package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpusDecoderRejectsEmptyPacket(t *testing.T) {
	decoder := NewOpusDecoder()

	planes, rate, err := decoder.Decode(nil, 0)
	assert.Error(t, err)
	assert.Nil(t, planes)
	assert.Zero(t, rate)
}

func TestOpusDecoderRejectsGarbage(t *testing.T) {
	decoder := NewOpusDecoder()

	// TOC byte 0xFC selects a CELT-only configuration the decoder does not implement.
	_, _, err := decoder.Decode([]byte{0xFC, 0xFF, 0xFE}, 960)
	assert.Error(t, err)
}
