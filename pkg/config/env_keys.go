package config

// EnvPrefix is passed to envconfig; individual fields carry full names so the
// prefix only matters for unannotated fields.
const EnvPrefix = "VENDORA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "VENDORA_APP_ENV"
	EnvPort     = "VENDORA_APP_PORT"
	EnvDBDSN    = "VENDORA_DB_DSN"
	EnvDBHost   = "VENDORA_DB_HOST"
	EnvDBUser   = "VENDORA_DB_USER"
	EnvDBName   = "VENDORA_DB_NAME"
	EnvRedisURL = "VENDORA_REDIS_URL"

	EnvDefaultRefundPolicy = "VENDORA_FEES_DEFAULT_REFUND_POLICY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
