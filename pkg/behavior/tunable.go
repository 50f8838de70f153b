package behavior

// Tunable is a behavior whose configuration can be patched at runtime
// from the dashboard. Both DwellTrigger and ProximityMedia implement
// it; patches re-apply each behavior's validation clamps.
type Tunable interface {
	Name() string
	Retune(patch []byte) error
}
