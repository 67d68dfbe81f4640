// Package filter implements the runtime core of the noise suppression filter:
// per-channel engine lifecycle, configuration and block processing.
//
// # Channel Bindings
//
// An Instance owns a fixed array of two ChannelBindings, one per supported
// channel. A binding starts Empty and becomes Bound the first time
// ApplyConfiguration needs it, at which point the engine allocates a state
// for segmentSize = sampleRate/100 frames and the binding allocates an int16
// scratch buffer of the same length. A bound channel keeps that sizing until
// the instance is destroyed, even if the audio format changes later, unless
// Options.RebindOnFormatChange is set.
//
// # Usage
//
//	inst, err := filter.New("Mic/Aux", engine, output, filter.Options{})
//	if err != nil {
//	    return err
//	}
//	defer inst.Destroy()
//
//	if err := inst.ApplyConfiguration(settings); err != nil {
//	    // channels that failed to bind pass audio through
//	    log.Println(err)
//	}
//
//	for block := range blocks {
//	    if _, err := inst.Process(block); err != nil {
//	        log.Println(err)
//	    }
//	}
//
// # Processing
//
// Process handles at most two channels. For each bound channel it pushes the
// current suppression level, converts the plane to 16-bit PCM, runs the engine
// in place and converts the result back over the same plane. Blocks are
// borrowed: the instance never allocates a new block and never keeps a
// reference to one after Process returns.
//
// # Thread Safety
//
// An Instance is not safe for concurrent use. The host must serialize
// ApplyConfiguration, Process and Destroy for one instance.
package filter
