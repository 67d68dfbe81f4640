// Package factory provides a factory pattern implementation for creating
// suppression engine implementations in micdsp.
//
// The factory abstracts the creation of suppression engines, allowing
// seamless switching between the spectral engine, a passthrough engine and
// the recording simulation (for testing) without changing consuming code.
//
// # Configuration
//
// The factory supports configuration via environment variables:
//   - MICDSP_ENGINE: "spectral" (default), "passthrough" or "simulated"
//   - MICDSP_NOISE_ESTIMATE_FRAMES: integer frames used to learn the noise floor
//   - MICDSP_OVER_SUBTRACTION: float over-subtraction factor
//   - MICDSP_REBIND_ON_FORMAT_CHANGE: "true" or "false"
//
// Invalid or out-of-range values are logged and the default is kept.
//
// # Usage
//
//	factory := NewEngineFactory()
//
//	engine, err := factory.CreateEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Or pick an implementation explicitly
//	engine, err = factory.CreateEngineForKind(interfaces.EngineKindPassthrough)
//
// # Testing Support
//
//	func TestMyFeature(t *testing.T) {
//	    factory := NewEngineFactory()
//	    engine := factory.CreateSimulationForTesting()
//	    // Use engine in tests...
//	}
package factory
