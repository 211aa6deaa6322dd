package params

import "time"

// Session policy shared by the server core and the API client.
const (
	IdleTimeout     = 30 * time.Minute // max gap between authenticated requests
	SessionLifetime = 8 * time.Hour    // absolute session ceiling, also the token lifetime
)

const (
	ServerBodyLimit       = 1048576 // 1 MiB
	ServerIdleTimeout     = 30 * time.Second
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 10 * time.Second
	BcryptCost            = 10               // ~100ms per verification on reference hardware
	TokenIssuer           = "klms"           // jwt iss claim
	AuditWriteTimeout     = 5 * time.Second  // audit inserts run detached from the request context
	AuditListMaxLimit     = 500              // upper bound on audit rows per listing
	AuditListDefaultLimit = 50               // audit rows returned when no limit is given
	LoginRateLimitMax     = 10               // login requests per IP per window
	LoginRateLimitWindow  = 1 * time.Minute  // login rate limit window
	LoginMaxFailures      = 5                // failed logins per emp_id+ip before lockout
	LoginFailureWindow    = 15 * time.Minute // lockout window, reset on success
	LoginAttemptKeyPrefix = "la:"            // storage key prefix of login attempt counters
	RateLimitKeyPrefix    = "rl:"            // storage key prefix of the login rate limiter
	HealthCheckServerAddr = ":3001"          // health check server address
	ServiceName           = "klms"
)

// ReportLocation is the civil time zone used for operator-facing timestamps regardless of server locale.
var ReportLocation = time.FixedZone("IST", 5*60*60+30*60)
