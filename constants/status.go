package constants

// ResolutionSource records which layer produced a record's coordinates.
type ResolutionSource string

// Stable values (used as metric labels and stored in DB).
const (
	SourceLookup     ResolutionSource = "lookup"
	SourceOracle     ResolutionSource = "oracle"
	SourceUnresolved ResolutionSource = "unresolved"
	SourcePreset     ResolutionSource = "preset" // record already carried coordinates
)
