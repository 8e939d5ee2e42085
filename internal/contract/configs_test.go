package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		RecordingArgs:  []string{"rec-1"},
		Workers:        4,
		Precision:      3,
		Output:         "text",
		Source:         "file",
		PreviewBackend: "none",
		RunBackend:     "none",
		Emoji:          "no",
		Color:          "yes",
		Detector:       "threshold",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"invalid output", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"parquet without file", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"parquet with file", func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "out.parquet" }, false},
		{"zero workers", func(in *ConfigRawInput) { in.Workers = 0 }, true},
		{"zero precision", func(in *ConfigRawInput) { in.Precision = 0 }, true},
		{"precision too high", func(in *ConfigRawInput) { in.Precision = MaxPrecision + 1 }, true},
		{"invalid source", func(in *ConfigRawInput) { in.Source = "serial" }, true},
		{"invalid emoji", func(in *ConfigRawInput) { in.Emoji = "maybe" }, true},
		{"negative sampling rate", func(in *ConfigRawInput) { in.SamplingRate = -1 }, true},
		{"window too large", func(in *ConfigRawInput) { in.Window = MaxWindowSize + 1 }, true},
		{"inverted normalize range", func(in *ConfigRawInput) { in.NormalizeMin = 1; in.NormalizeMax = -1 }, true},
		{"negative preview stride", func(in *ConfigRawInput) { in.PreviewStride = -4 }, true},
		{"unknown transform", func(in *ConfigRawInput) { in.Transforms = "smooth,fft" }, true},
		{"unknown detector", func(in *ConfigRawInput) { in.Detector = "pan-tompkins" }, true},
		{"neurokit without command", func(in *ConfigRawInput) { in.Detector = "neurokit" }, true},
		{"neurokit with command", func(in *ConfigRawInput) { in.Detector = "neurokit"; in.DetectorCommand = "detect-peaks" }, false},
		{"bad detector timeout", func(in *ConfigRawInput) { in.DetectorTimeout = "soon" }, true},
		{"threshold factor out of range", func(in *ConfigRawInput) { in.ThresholdFactor = 1.5 }, true},
		{"bad sim duration", func(in *ConfigRawInput) { in.SimDuration = "-3s" }, true},
		{"sim heart rate out of range", func(in *ConfigRawInput) { in.SimHeartRate = 500 }, true},
		{"invalid preview backend", func(in *ConfigRawInput) { in.PreviewBackend = "redis" }, true},
		{"mysql without connection", func(in *ConfigRawInput) { in.RunBackend = "mysql" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, []string{"rec-1"}, cfg.RecordingIDs)
	assert.Equal(t, schema.DefaultSamplingRate, cfg.SamplingRate)
	assert.Equal(t, schema.DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, schema.DefaultPreviewSamples, cfg.PreviewSamples)
	assert.Equal(t, schema.DefaultPreviewStride, cfg.PreviewStride)
	assert.Equal(t, schema.DefaultNormalizeMin, cfg.NormalizeMin)
	assert.Equal(t, schema.DefaultNormalizeMax, cfg.NormalizeMax)
	assert.Equal(t, []schema.TransformName{schema.SmoothTransform}, cfg.FullTransforms)
	assert.Equal(t, schema.ThresholdAlgorithm, cfg.Detector)
	assert.Equal(t, DefaultDetectorTimeout, cfg.DetectorTimeout)
	assert.Equal(t, DefaultNATSSubject, cfg.NATSSubject)
	assert.Equal(t, DefaultSimDuration, cfg.SimDuration)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, schema.NoneBackend, cfg.RunBackend)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
}

func TestProcessAndValidateRecordingArgs(t *testing.T) {
	input := validInput()
	input.RecordingArgs = []string{"a,b", " c ", ",,"}
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []string{"a", "b", "c"}, cfg.RecordingIDs)
}

func TestProcessAndValidateSimSettings(t *testing.T) {
	input := validInput()
	input.Source = "SIM"
	input.SimDuration = "2s"
	input.SimHeartRate = 90
	input.SimFailAfter = 100
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, schema.SimSource, cfg.Source)
	assert.Equal(t, 2*time.Second, cfg.SimDuration)
	assert.Equal(t, 90.0, cfg.SimHeartRate)
	assert.Equal(t, 100, cfg.SimFailAfter)
}

func TestValidateBackendConfigsSharedSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	input := validInput()
	input.PreviewBackend = "sqlite"
	input.PreviewDBConnect = path
	input.RunBackend = "sqlite"
	input.RunDBConnect = path

	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different SQLite database files")

	input.RunDBConnect = filepath.Join(t.TempDir(), "runs.db")
	assert.NoError(t, ProcessAndValidate(&Config{}, input))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		conn        string
		expectError bool
	}{
		{"sqlite ignores connection", schema.SQLiteBackend, "", false},
		{"none ignores connection", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/ecg", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/ecg", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=ecg", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=ecg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTransforms(t *testing.T) {
	names, err := ParseTransforms("")
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultFullTransforms, names)

	names, err = ParseTransforms("none")
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = ParseTransforms(" Smooth , normalize,derivative ")
	require.NoError(t, err)
	assert.Equal(t, []schema.TransformName{schema.SmoothTransform, schema.NormalizeTransform, schema.DerivativeTransform}, names)

	_, err = ParseTransforms("smooth,bandpass")
	assert.Error(t, err)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{RecordingIDs: []string{"a"}, FullTransforms: []schema.TransformName{schema.SmoothTransform}}
	clone := cfg.Clone()
	clone.RecordingIDs[0] = "b"
	clone.FullTransforms[0] = schema.DerivativeTransform

	assert.Equal(t, "a", cfg.RecordingIDs[0])
	assert.Equal(t, schema.SmoothTransform, cfg.FullTransforms[0])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "ecg"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "ecg", profile.Prefix)
}
