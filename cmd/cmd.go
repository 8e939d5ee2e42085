// Package cmd defines the command-line interface for ecgscope.
package cmd

import (
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(previewsCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Add the previews subcommands to the parent previews command
	previewsCmd.AddCommand(previewsClearCmd)
	previewsCmd.AddCommand(previewsStatusCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-recording detail (RR intervals, raw sample counts, warnings)")
	rootCmd.PersistentFlags().String("manifest", "", "YAML manifest listing recordings (id, source, sampling_rate)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for voltages")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent preview workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("source", string(schema.FileSource), "Stream source: file or nats or sim")
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Directory of <id>.csv recordings for the file source")
	rootCmd.PersistentFlags().String("nats-url", contract.DefaultNATSURL, "NATS server URL")
	rootCmd.PersistentFlags().String("nats-subject", contract.DefaultNATSSubject, "Subject prefix of device streams; samples arrive on <prefix>.<id>")
	rootCmd.PersistentFlags().Float64("sampling-rate", schema.DefaultSamplingRate, "Sampling rate in Hz for recordings that do not declare one")
	rootCmd.PersistentFlags().String("sim-duration", "10s", "Length of each simulated recording")
	rootCmd.PersistentFlags().Float64("sim-heart-rate", contract.DefaultSimHeartRate, "Base heart rate of simulated recordings in BPM")
	rootCmd.PersistentFlags().Float64("sim-noise", contract.DefaultSimNoise, "Gaussian noise amplitude of simulated recordings")
	rootCmd.PersistentFlags().Int("sim-fail-after", 0, "Fail simulated streams after this many samples (0 = never)")
	rootCmd.PersistentFlags().Int("window", schema.DefaultWindowSize, "Moving-average window size in samples")
	rootCmd.PersistentFlags().String("transforms", "smooth", "Full-trace conditioning chain: comma-separated smooth, normalize, derivative, downsample, or none")
	rootCmd.PersistentFlags().Float64("normalize-min", schema.DefaultNormalizeMin, "Lower bound of the normalize transform")
	rootCmd.PersistentFlags().Float64("normalize-max", schema.DefaultNormalizeMax, "Upper bound of the normalize transform")
	rootCmd.PersistentFlags().String("detector", string(schema.ThresholdAlgorithm), "Peak detector: neurokit or threshold")
	rootCmd.PersistentFlags().String("detector-command", "", "External command for the neurokit detector (JSON on stdin, peak indices on stdout)")
	rootCmd.PersistentFlags().String("detector-timeout", contract.DefaultDetectorTimeout.String(), "Timeout of the external detector")
	rootCmd.PersistentFlags().Float64("refractory-ms", schema.DefaultRefractoryMs, "Minimum spacing of peaks for the threshold detector")
	rootCmd.PersistentFlags().Float64("threshold-factor", schema.DefaultThresholdFactor, "Threshold as a fraction of the signal range for the threshold detector")
	rootCmd.PersistentFlags().Int("preview-samples", schema.DefaultPreviewSamples, "Leading samples accumulated for a preview")
	rootCmd.PersistentFlags().Int("preview-stride", schema.DefaultPreviewStride, "Keep every n-th preview sample")
	rootCmd.PersistentFlags().Bool("publish-nats", false, "Also publish results as JSON on <results-subject>.<profile>.<id>")
	rootCmd.PersistentFlags().String("results-subject", contract.DefaultResultSubject, "Subject prefix for published results")
	rootCmd.PersistentFlags().String("preview-backend", string(schema.SQLiteBackend), "Preview store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("preview-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("run-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for run tracking (must differ from preview-db-connect)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "HTTP listen address")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
