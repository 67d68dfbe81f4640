// Package testing provides a simulated suppression engine for deterministic
// testing of the noise suppression filter.
//
// # Overview
//
// SimulatedEngine mirrors the lifecycle of a real suppression engine but
// performs no DSP. Every Init, SetControl, Run and Destroy call is recorded
// so tests can verify how the filter drives its engine: how many states it
// created, which levels it pushed, and which segments it ran.
//
// # Simulation vs Real Implementation
//
//   - Simulation (this package): Recorded calls, optional failure injection
//     and an optional sample transform. Used for unit and integration tests.
//
//   - Real (av/audio package): SpectralEngine and PassthroughEngine process
//     the samples. Used by the host module and the CLI.
//
// Both implementations conform to interfaces.ISuppressionEngine, allowing
// seamless switching via the factory package.
//
// # Usage
//
//	engine := testing.NewSimulatedEngine()
//	engine.SetTransform(func(seg []int16) {
//	    for i := range seg {
//	        seg[i] /= 2
//	    }
//	})
//
//	inst, err := filter.New("mic", settings, engine, output, filter.Options{})
//	...
//	states := engine.States()
//	levels := states[0].Controls()
//
// # Failure Injection
//
// FailInit and FailRun make the next calls return the given error, which is
// how the filter's error paths are exercised:
//
//	engine.FailInit(errors.New("out of memory"))
//
// # Thread Safety
//
// SimulatedEngine and SimulatedState are safe for concurrent use; all
// methods are protected by internal mutexes.
//
// # Logging
//
// Simulation functions log a "SIMULATION FUNCTION - NOT A REAL OPERATION"
// warning so simulated output is never mistaken for processed audio.
package testing
