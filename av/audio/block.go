package audio

import "fmt"

// Block is a planar block of float samples borrowed from the host.
//
// Data holds one plane per channel; every plane carries at least Frames
// samples. The filter mutates planes in place and never keeps a reference to
// a block after the call that received it returns.
type Block struct {
	Data   [][]float32
	Frames int
}

// NewBlock allocates a zeroed block with the given channel count and frame count.
func NewBlock(channels, frames int) *Block {
	data := make([][]float32, channels)
	for ch := range data {
		data[ch] = make([]float32, frames)
	}
	return &Block{Data: data, Frames: frames}
}

// Channels returns the number of planes in the block.
func (b *Block) Channels() int {
	return len(b.Data)
}

// Plane returns the first Frames samples of channel ch.
// It returns an error when the channel is absent or shorter than Frames.
func (b *Block) Plane(ch int) ([]float32, error) {
	if ch < 0 || ch >= len(b.Data) || b.Data[ch] == nil {
		return nil, fmt.Errorf("channel %d not present in block with %d planes", ch, len(b.Data))
	}
	if len(b.Data[ch]) < b.Frames {
		return nil, fmt.Errorf("channel %d holds %d samples, block declares %d frames", ch, len(b.Data[ch]), b.Frames)
	}
	return b.Data[ch][:b.Frames], nil
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	data := make([][]float32, len(b.Data))
	for ch, plane := range b.Data {
		if plane != nil {
			data[ch] = append([]float32(nil), plane...)
		}
	}
	return &Block{Data: data, Frames: b.Frames}
}
