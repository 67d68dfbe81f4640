// Package main provides C API bindings for the micdsp noise suppression
// filter, enabling hosts written in C to run the filter on their own audio
// thread.
//
// # Build Instructions
//
// To build as a C shared library:
//
//	go build -buildmode=c-shared -o libmicdsp.so ./capi/
//
// This generates:
//   - libmicdsp.so: The shared library
//   - libmicdsp.h: Auto-generated C header file with function declarations
//
// # C API Usage
//
//	#include "libmicdsp.h"
//
//	micdsp_set_audio_format(48000, 2);
//
//	int32_t filter = noise_suppress_create(noise_suppress_default_level());
//	if (filter < 0) {
//	    fprintf(stderr, "Failed to create filter\n");
//	    return 1;
//	}
//
//	// Per 10ms block of planar float samples
//	noise_suppress_filter_audio(filter, left, right, 480);
//
//	// Settings change
//	noise_suppress_update(filter, -45);
//
//	noise_suppress_destroy(filter);
//
// # Handles
//
// Filters are identified by positive int32 handles. A negative return value
// from noise_suppress_create, and -1 from the other functions, signals an
// error; details are logged through logrus.
//
// # Audio Format
//
// micdsp_set_audio_format changes the process-wide format. Existing filters
// read it on their next noise_suppress_update; new filters read it when
// created. The default format is 48 kHz stereo.
//
// # Thread Safety
//
// All functions are safe to call from any thread. Calls on one handle are
// serialized internally.
package main
