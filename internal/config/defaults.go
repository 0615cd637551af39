package config

const (
	defaultBasePath   = "~/rbtv"
	defaultDBPath     = "~/.local/share/rbtv/mediathek.db"
	defaultRecordPath = "~/.local/share/rbtv/records.db"
	defaultLogDir     = "~/.local/share/rbtv/logs"

	defaultBackend      = BackendLive
	defaultRecordFormat = RecordFormatSQLite

	defaultOutDirTemplate        = "{show_name}/{season_name}"
	defaultOutFileTemplate       = "%(title)s-%(id)s.%(format_id)s.%(ext)s"
	defaultMissingValue          = "-"
	defaultRetries               = 10
	defaultRateLimitDelaySeconds = 60

	defaultTokenRegex = `^.*-([0-9A-Za-z_-]{10}[048AEIMQUYcgkosw])\.[0-9+]+\.[0-9a-zA-Z]{3,4}$`

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Catalog backend names accepted in catalog.backend.
const (
	BackendLive  = "live"
	BackendLocal = "local"
)

// Ledger implementation names accepted in records.format.
const (
	RecordFormatMemory    = "memory"
	RecordFormatPlaintext = "plaintext"
	RecordFormatSQLite    = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BasePath:   defaultBasePath,
			DBPath:     defaultDBPath,
			RecordPath: defaultRecordPath,
			LogDir:     defaultLogDir,
		},
		Catalog: Catalog{
			Backend: defaultBackend,
		},
		Records: Records{
			Format: defaultRecordFormat,
		},
		Download: Download{
			OutDirTemplate:        defaultOutDirTemplate,
			OutFileTemplate:       defaultOutFileTemplate,
			MissingValue:          defaultMissingValue,
			Retries:               defaultRetries,
			RateLimitDelaySeconds: defaultRateLimitDelaySeconds,
		},
		Reorganize: Reorganize{
			TokenRegex: defaultTokenRegex,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
