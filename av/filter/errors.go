package filter

import "errors"

var (
	// ErrEngineInit indicates the suppression engine could not allocate a
	// channel state. The affected channel stays unbound and passes through.
	ErrEngineInit = errors.New("suppression engine allocation failed")

	// ErrFrameOverrun indicates a block carries more frames than a channel's
	// segment. The channel is passed through unmodified.
	ErrFrameOverrun = errors.New("block frame count exceeds channel segment size")

	// ErrEngineRun indicates the engine rejected a control or run call.
	ErrEngineRun = errors.New("suppression engine run failed")

	// ErrInstanceDestroyed indicates the instance was already destroyed.
	ErrInstanceDestroyed = errors.New("filter instance destroyed")

	// ErrChannelIndex indicates a channel index outside the supported range.
	ErrChannelIndex = errors.New("channel index out of range")
)
