package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"redaid"`
	DatabaseMaxConn int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	// One of trace, debug, info, warn, error, none. Queries are logged at this level and above.
	DatabaseLogLevel string `envconfig:"DATABASE_LOG_LEVEL" default:"warn"`
	ReadTimeoutSec   uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec  uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Redis backs the donation request list cache. Empty disables caching.
	RedisURL               string `envconfig:"REDIS_URL"`
	RequestListCacheTTLSec uint   `envconfig:"REQUEST_LIST_CACHE_TTL_SEC" default:"120"`

	// Cognito Auth
	CognitoClientID  string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL string `envconfig:"COGNITO_ISSUER_URL"`

	// Backend session
	SessionMaxAgeSec int `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Image hosting, either "imgbb" or "s3"
	ImageHost       string `envconfig:"IMAGE_HOST" default:"imgbb"`
	ImgbbAPIKey     string `envconfig:"IMGBB_API_KEY"`
	ImgbbUploadURL  string `envconfig:"IMGBB_UPLOAD_URL" default:"https://api.imgbb.com/1/upload"`
	S3Bucket        string `envconfig:"S3_BUCKET"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`

	// Stripe
	StripeSecretKey       string `envconfig:"STRIPE_SECRET_KEY"`
	FundingCurrency       string `envconfig:"FUNDING_CURRENCY" default:"usd"`
	FundingMinAmountCents int64  `envconfig:"FUNDING_MIN_AMOUNT_CENTS" default:"500"`

	// Client settings used by the request command
	APIBaseURL    string `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	APITimeoutSec uint   `envconfig:"API_TIMEOUT_SEC" default:"10"`
}
