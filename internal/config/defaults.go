package config

const (
	defaultOutputDir       = "~/.local/share/imageset/out"
	defaultLogDir          = "~/.local/share/imageset/logs"
	defaultTargetSize      = 0
	defaultValidationPct   = 0.2
	defaultFilePattern     = "*.jpg"
	defaultSeed            = 0
	defaultResizer         = "native"
	defaultMagickBinary    = "convert"
	defaultJPEGQuality     = 95
	defaultMinFreeSpaceGiB = 5
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Ingest: Ingest{
			TargetSize:    defaultTargetSize,
			Workers:       0, // 0 means GOMAXPROCS at dispatch time
			ValidationPct: defaultValidationPct,
			FilePattern:   defaultFilePattern,
			Seed:          defaultSeed,
		},
		Imaging: Imaging{
			Resizer:         defaultResizer,
			MagickBinary:    defaultMagickBinary,
			JPEGQuality:     defaultJPEGQuality,
			MinFreeSpaceGiB: defaultMinFreeSpaceGiB,
		},
		Catalog: Catalog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
