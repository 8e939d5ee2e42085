package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/ecgscope/schema"
)

// Default values for configuration.
const (
	DefaultNATSURL         = "nats://127.0.0.1:4222"
	DefaultNATSSubject     = "ecg.wave"
	DefaultResultSubject   = "ecg.results"
	DefaultDataDir         = "."
	DefaultDetectorTimeout = 30 * time.Second
	DefaultSimDuration     = 10 * time.Second
	DefaultSimHeartRate    = 72.0
	DefaultSimNoise        = 0.02
	DefaultListenAddr      = ":8080"
	DefaultPrecision       = 3
	MaxPrecision           = 6
	MaxWindowSize          = 512
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the pipeline.
// This struct remains the "final, validated" config.
type Config struct {
	RecordingIDs []string
	Manifest     string
	Workers      int
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)
	Detail       bool
	Precision    int // Decimal places for voltages

	Source       schema.SourceKind
	DataDir      string
	NATSURL      string
	NATSSubject  string
	SimDuration  time.Duration
	SimHeartRate float64
	SimNoise     float64
	SimFailAfter int // Inject a stream failure after N samples (0 = never)

	SamplingRate   float64
	WindowSize     int
	NormalizeMin   float64
	NormalizeMax   float64
	PreviewSamples int
	PreviewStride  int
	FullTransforms []schema.TransformName

	Detector        schema.DetectorAlgorithm
	DetectorCommand string
	DetectorTimeout time.Duration
	RefractoryMs    float64
	ThresholdFactor float64

	PreviewBackend   schema.DatabaseBackend
	PreviewDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	ListenAddr     string
	PublishNATS    bool
	ResultsSubject string

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RecordingArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Manifest         string  `mapstructure:"manifest"`
	Workers          int     `mapstructure:"workers"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	Detail           bool    `mapstructure:"detail"`
	Precision        int     `mapstructure:"precision"`
	Source           string  `mapstructure:"source"`
	DataDir          string  `mapstructure:"data-dir"`
	NATSURL          string  `mapstructure:"nats-url"`
	NATSSubject      string  `mapstructure:"nats-subject"`
	SamplingRate     float64 `mapstructure:"sampling-rate"`
	PreviewBackend   string  `mapstructure:"preview-backend"`
	PreviewDBConnect string  `mapstructure:"preview-db-connect"`
	RunBackend       string  `mapstructure:"run-backend"`
	RunDBConnect     string  `mapstructure:"run-db-connect"`
	Emoji            string  `mapstructure:"emoji"`
	Color            string  `mapstructure:"color"`

	// --- Fields from the simulated source ---
	SimDuration  string  `mapstructure:"sim-duration"`
	SimHeartRate float64 `mapstructure:"sim-heart-rate"`
	SimNoise     float64 `mapstructure:"sim-noise"`
	SimFailAfter int     `mapstructure:"sim-fail-after"`

	// --- Fields from traceCmd.Flags() ---
	Window          int     `mapstructure:"window"`
	Transforms      string  `mapstructure:"transforms"`
	NormalizeMin    float64 `mapstructure:"normalize-min"`
	NormalizeMax    float64 `mapstructure:"normalize-max"`
	Detector        string  `mapstructure:"detector"`
	DetectorCommand string  `mapstructure:"detector-command"`
	DetectorTimeout string  `mapstructure:"detector-timeout"`
	RefractoryMs    float64 `mapstructure:"refractory-ms"`
	ThresholdFactor float64 `mapstructure:"threshold-factor"`

	// --- Fields from previewCmd.Flags() ---
	PreviewSamples int `mapstructure:"preview-samples"`
	PreviewStride  int `mapstructure:"preview-stride"`

	// --- Fields from serveCmd.Flags() ---
	Listen         string `mapstructure:"listen"`
	PublishNATS    bool   `mapstructure:"publish-nats"`
	ResultsSubject string `mapstructure:"results-subject"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.RecordingIDs != nil {
		clone.RecordingIDs = make([]string, len(c.RecordingIDs))
		copy(clone.RecordingIDs, c.RecordingIDs)
	}
	if c.FullTransforms != nil {
		clone.FullTransforms = make([]schema.TransformName, len(c.FullTransforms))
		copy(clone.FullTransforms, c.FullTransforms)
	}
	return &clone
}

// RecordingFor returns the recording descriptor for an ID, applying the configured rate.
func (c *Config) RecordingFor(id string) schema.Recording {
	return schema.Recording{ID: id, SamplingRate: c.SamplingRate}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSource(cfg, input); err != nil {
		return err
	}
	if err := processSignal(cfg, input); err != nil {
		return err
	}
	if err := processDetector(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates preview and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.PreviewBackend = schema.DatabaseBackend(strings.ToLower(input.PreviewBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.PreviewBackend]; !ok {
		return fmt.Errorf("invalid preview backend '%s'. must be sqlite, mysql, postgresql, none", input.PreviewBackend)
	}
	cfg.PreviewDBConnect = input.PreviewDBConnect
	if err := ValidateDatabaseConnectionString(cfg.PreviewBackend, cfg.PreviewDBConnect); err != nil {
		return err
	}

	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		cfg.RunBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Both stores create their own tables, but a shared SQLite file would serialize on one lock
	if cfg.PreviewBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		previewPath := cfg.PreviewDBConnect
		if previewPath == "" {
			previewPath = GetPreviewDBFilePath()
		}
		runPath := cfg.RunDBConnect
		if runPath == "" {
			runPath = GetRunDBFilePath()
		}
		if previewPath == runPath {
			return fmt.Errorf("preview and run storage must use different SQLite database files. Both resolve to %q", previewPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates presentation and concurrency fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Manifest = strings.TrimSpace(input.Manifest)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Detail = input.Detail
	cfg.ListenAddr = input.Listen
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	cfg.PublishNATS = input.PublishNATS
	cfg.ResultsSubject = input.ResultsSubject
	if cfg.ResultsSubject == "" {
		cfg.ResultsSubject = DefaultResultSubject
	}

	cfg.RecordingIDs = nil
	for _, arg := range input.RecordingArgs {
		for id := range strings.SplitSeq(arg, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.RecordingIDs = append(cfg.RecordingIDs, id)
			}
		}
	}

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return nil
}

// processSource validates where device streams come from.
func processSource(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if _, ok := schema.ValidSourceKinds[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be file, nats, sim", input.Source)
	}

	cfg.DataDir = input.DataDir
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.NATSURL = input.NATSURL
	if cfg.NATSURL == "" {
		cfg.NATSURL = DefaultNATSURL
	}
	cfg.NATSSubject = strings.TrimSuffix(input.NATSSubject, ".")
	if cfg.NATSSubject == "" {
		cfg.NATSSubject = DefaultNATSSubject
	}

	cfg.SimDuration = DefaultSimDuration
	if input.SimDuration != "" {
		d, err := time.ParseDuration(input.SimDuration)
		if err != nil {
			return fmt.Errorf("invalid --sim-duration: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("sim-duration must be positive (received %s)", d)
		}
		cfg.SimDuration = d
	}
	cfg.SimHeartRate = input.SimHeartRate
	if cfg.SimHeartRate == 0 {
		cfg.SimHeartRate = DefaultSimHeartRate
	}
	if cfg.SimHeartRate < 20 || cfg.SimHeartRate > 300 {
		return fmt.Errorf("sim-heart-rate must be between 20 and 300 (received %.1f)", cfg.SimHeartRate)
	}
	if input.SimNoise < 0 {
		return fmt.Errorf("sim-noise cannot be negative (received %.3f)", input.SimNoise)
	}
	cfg.SimNoise = input.SimNoise
	if input.SimFailAfter < 0 {
		return fmt.Errorf("sim-fail-after cannot be negative (received %d)", input.SimFailAfter)
	}
	cfg.SimFailAfter = input.SimFailAfter

	return nil
}

// processSignal validates conditioning and preview parameters.
func processSignal(cfg *Config, input *ConfigRawInput) error {
	cfg.SamplingRate = input.SamplingRate
	if cfg.SamplingRate == 0 {
		cfg.SamplingRate = schema.DefaultSamplingRate
	}
	if cfg.SamplingRate < 0 {
		return fmt.Errorf("sampling-rate must be positive (received %.2f)", input.SamplingRate)
	}

	cfg.WindowSize = input.Window
	if cfg.WindowSize == 0 {
		cfg.WindowSize = schema.DefaultWindowSize
	}
	if cfg.WindowSize < 1 || cfg.WindowSize > MaxWindowSize {
		return fmt.Errorf("window must be between 1 and %d (received %d)", MaxWindowSize, input.Window)
	}

	cfg.NormalizeMin, cfg.NormalizeMax = input.NormalizeMin, input.NormalizeMax
	if cfg.NormalizeMin == 0 && cfg.NormalizeMax == 0 {
		cfg.NormalizeMin, cfg.NormalizeMax = schema.DefaultNormalizeMin, schema.DefaultNormalizeMax
	}
	if cfg.NormalizeMin >= cfg.NormalizeMax {
		return fmt.Errorf("normalize-min (%.2f) must be less than normalize-max (%.2f)", cfg.NormalizeMin, cfg.NormalizeMax)
	}

	cfg.PreviewSamples = input.PreviewSamples
	if cfg.PreviewSamples == 0 {
		cfg.PreviewSamples = schema.DefaultPreviewSamples
	}
	if cfg.PreviewSamples < 1 {
		return fmt.Errorf("preview-samples must be greater than 0 (received %d)", input.PreviewSamples)
	}
	cfg.PreviewStride = input.PreviewStride
	if cfg.PreviewStride == 0 {
		cfg.PreviewStride = schema.DefaultPreviewStride
	}
	if cfg.PreviewStride < 1 {
		return fmt.Errorf("preview-stride must be greater than 0 (received %d)", input.PreviewStride)
	}

	transforms, err := ParseTransforms(input.Transforms)
	if err != nil {
		return err
	}
	cfg.FullTransforms = transforms

	return nil
}

// processDetector validates the peak detector selection.
func processDetector(cfg *Config, input *ConfigRawInput) error {
	cfg.Detector = schema.DetectorAlgorithm(strings.ToLower(input.Detector))
	if cfg.Detector == "" {
		cfg.Detector = schema.NeuroKitAlgorithm
	}
	if _, ok := schema.ValidDetectorAlgorithms[cfg.Detector]; !ok {
		return fmt.Errorf("invalid detector '%s'. must be neurokit, threshold", input.Detector)
	}

	cfg.DetectorCommand = strings.TrimSpace(input.DetectorCommand)
	if cfg.Detector == schema.NeuroKitAlgorithm && cfg.DetectorCommand == "" {
		return fmt.Errorf("detector %s requires --detector-command", cfg.Detector)
	}

	cfg.DetectorTimeout = DefaultDetectorTimeout
	if input.DetectorTimeout != "" {
		d, err := time.ParseDuration(input.DetectorTimeout)
		if err != nil {
			return fmt.Errorf("invalid --detector-timeout: %w", err)
		}
		cfg.DetectorTimeout = d
	}

	cfg.RefractoryMs = input.RefractoryMs
	if cfg.RefractoryMs == 0 {
		cfg.RefractoryMs = schema.DefaultRefractoryMs
	}
	if cfg.RefractoryMs < 0 {
		return fmt.Errorf("refractory-ms cannot be negative (received %.1f)", input.RefractoryMs)
	}
	cfg.ThresholdFactor = input.ThresholdFactor
	if cfg.ThresholdFactor == 0 {
		cfg.ThresholdFactor = schema.DefaultThresholdFactor
	}
	if cfg.ThresholdFactor <= 0 || cfg.ThresholdFactor >= 1 {
		return fmt.Errorf("threshold-factor must be between 0 and 1 (received %.2f)", input.ThresholdFactor)
	}

	return nil
}

// ParseTransforms parses a comma-separated transform chain like "smooth,normalize".
// An empty string yields the default full-trace chain.
func ParseTransforms(s string) ([]schema.TransformName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return append([]schema.TransformName(nil), schema.DefaultFullTransforms...), nil
	}
	if strings.EqualFold(s, "none") {
		return []schema.TransformName{}, nil
	}

	var names []schema.TransformName
	for part := range strings.SplitSeq(s, ",") {
		name := schema.TransformName(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if _, ok := schema.ValidTransforms[name]; !ok {
			return nil, fmt.Errorf("invalid transform '%s'. must be smooth, normalize, derivative, downsample", part)
		}
		names = append(names, name)
	}
	return names, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
