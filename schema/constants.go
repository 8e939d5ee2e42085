package schema

// Custom string types for type safety.
type (
	// Profile represents the pipeline profile applied to a recording.
	Profile string

	// Stage represents a state in the pipeline state machine.
	Stage string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// SourceKind represents where device streams come from.
	SourceKind string

	// DetectorAlgorithm represents the peak detection algorithm selector.
	DetectorAlgorithm string

	// TransformName represents a named series transform.
	TransformName string
)

// Signal defaults.
const (
	DefaultSamplingRate    = 512.0 // Hz
	DefaultWindowSize      = 5
	DefaultPreviewSeconds  = 3
	DefaultPreviewSamples  = DefaultPreviewSeconds * 512 // 1536
	DefaultPreviewStride   = 4
	DefaultNormalizeMin    = -1.0
	DefaultNormalizeMax    = 1.0
	DefaultRefractoryMs    = 250.0
	DefaultThresholdFactor = 0.6
)

// All pipeline profiles.
const (
	FullProfile    Profile = "full"
	PreviewProfile Profile = "preview"
)

// All pipeline stages.
const (
	StageCollecting   Stage = "collecting"
	StageConditioning Stage = "conditioning"
	StageDetecting    Stage = "detecting"
	StageAnalyzing    Stage = "analyzing"
	StagePublishing   Stage = "publishing"
	StageFailed       Stage = "failed"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All stream sources supported.
const (
	FileSource SourceKind = "file" // default
	NATSSource SourceKind = "nats"
	SimSource  SourceKind = "sim"
)

// All detector algorithms supported.
const (
	NeuroKitAlgorithm  DetectorAlgorithm = "neurokit" // external command
	ThresholdAlgorithm DetectorAlgorithm = "threshold"
)

// All named transforms.
const (
	SmoothTransform     TransformName = "smooth"
	NormalizeTransform  TransformName = "normalize"
	DerivativeTransform TransformName = "derivative"
	DownsampleTransform TransformName = "downsample"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSourceKinds lists all valid stream sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	FileSource: {},
	NATSSource: {},
	SimSource:  {},
}

// ValidDetectorAlgorithms lists all valid detector algorithms.
var ValidDetectorAlgorithms = map[DetectorAlgorithm]struct{}{
	NeuroKitAlgorithm:  {},
	ThresholdAlgorithm: {},
}

// ValidTransforms lists all valid named transforms.
var ValidTransforms = map[TransformName]struct{}{
	SmoothTransform:     {},
	NormalizeTransform:  {},
	DerivativeTransform: {},
	DownsampleTransform: {},
}

// DefaultFullTransforms is the conditioning chain of the full-trace profile.
var DefaultFullTransforms = []TransformName{SmoothTransform}
