// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// HTTP Server - these keys configure the listening relay service.
const (
	ServerAddress         = "server.address"
	ServerMode            = "server.mode"
	ServerShutdownTimeout = "server.shutdown_timeout"
)

// Download Policy - these keys define which videos the relay agrees to serve.
const (
	PolicyAllowedHosts = "policy.allowed_hosts"
	PolicyMaxDuration  = "policy.max_duration"
)

// Cross-Origin Resource Sharing - these keys govern browser access to the relay.
const (
	CorsOrigins = "cors.origins"
)

// Rate Limiting - these keys configure per-client request throttling.
const (
	RateLimitEnable = "ratelimit.enable"
	RateLimitMax    = "ratelimit.max"
	RateLimitWindow = "ratelimit.window"
)

// Redis - shared rate limit state. An empty address selects the in-process limiter.
const (
	RedisAddress  = "redis.address"
	RedisPassword = "redis.password"
	RedisDB       = "redis.db"
)

// Extraction Provider - these keys tune outbound communication with the video host.
const (
	ResolverChromeTLS = "resolver.chrome_tls"
)

// Download Client - these keys configure the retrying client used by "ytrelay get".
const (
	ClientServer     = "client.server"
	ClientMaxRetries = "client.max_retries"
	ClientRetryDelay = "client.retry_delay"
	ClientTimeout    = "client.timeout"
	DownloadsPath    = "downloads.path"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite  = "logs.write"
	LogsLevel  = "logs.level"
	LogsJson   = "logs.json"
	LogsStderr = "logs.stderr"
)

// CLI Execution Environment - these flags and settings govern the terminal presentation.
const (
	CliColored   = "cli.colored"
	IconsVariant = "icons.variant"
)
