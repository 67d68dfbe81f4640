// Package micdsp implements a noise suppression audio filter for live
// microphone streams.
//
// The package is the host-facing layer: it registers the
// "noise_suppress_filter" source, stores its settings and exposes the
// process-wide audio output format. The processing core lives in av/filter
// and the built-in suppression engines in av/audio.
//
// Example:
//
//	output, err := micdsp.NewAudioOutput(48000, 2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	module, err := micdsp.NewModule(output, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := module.Load(); err != nil {
//	    log.Fatal(err)
//	}
//
//	settings := micdsp.NewSettings()
//	settings.SetInt("suppress_level", -40)
//
//	src, err := module.CreateSource(micdsp.NoiseSuppressFilterID, "Mic/Aux", settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Destroy()
//
//	for block := range blocks {
//	    block = src.FilterAudio(block)
//	}
//
// # Settings
//
// The filter recognises one setting, "suppress_level": the maximum
// attenuation in dB, from -60 to 0, default -30. Values outside the range are
// clamped. Settings persist as JSON through Settings.Save and LoadSettings.
//
// # Engines
//
// The suppression engine is chosen by the module's factory, which reads the
// MICDSP_* environment variables (see package factory).
//
// # Related Packages
//
//   - capi: C ABI for hosts written in C or C++
//   - av/rtp: L16 RTP streaming of filtered audio
//   - cmd/nsfilter: command-line driver with metering and playback
package micdsp
