package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "bizdash"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultWebDir       = "web"
	DefaultDatabaseFile = "data/bizdash.db"

	// Processing
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	DefaultCacheSize      = 16
	DefaultPreviewRows    = 20

	// Operation Timeouts
	ReportGenerationTimeout = 2 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
