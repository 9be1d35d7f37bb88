package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config 进程启动时读取一次，之后只通过参数向下传递
type Config struct {
	HTTP      HTTPConfig
	MySQL     MySQLConfig
	Redis     RedisConfig
	JWT       JWTConfig
	S3        S3Config
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	Webhook   WebhookConfig
	SMS       SMSConfig
	External  ExternalConfig
	OAuth     OAuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Worker    WorkerConfig
	Admin     AdminConfig
}

type HTTPConfig struct {
	Port         string   `env:"PORT" env-default:"8080"`
	CorsOrigins  []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	CookieDomain string   `env:"COOKIE_DOMAIN" env-default:"localhost"`
	ProxyHeader  string   `env:"TRUSTED_PROXY_HEADER" env-default:"X-Forwarded-For"`
}

type MySQLConfig struct {
	DSN          string        `env:"MYSQL_DSN" env-required:"true"`
	MaxIdleConns int           `env:"MYSQL_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns int           `env:"MYSQL_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLife  time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate  bool          `env:"MYSQL_AUTO_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET" env-required:"true"`
	UserTTL    time.Duration `env:"JWT_USER_TTL" env-default:"168h"`
	AdminTTL   time.Duration `env:"JWT_ADMIN_TTL" env-default:"1h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" env-default:"360h"`
}

type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" env-default:"ap-northeast-2"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET" env-default:"schoolmate"`
	BaseURL   string `env:"S3_PUBLIC_BASE_URL"`
}

// KafkaConfig Brokers 为空时事件在进程内直接投递
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_TOPIC" env-default:"schoolmate.events"`
	GroupID string   `env:"KAFKA_GROUP_ID" env-default:"schoolmate-api"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	AdminTo  string `env:"SMTP_ADMIN_TO"`
}

type WebhookConfig struct {
	URL string `env:"MODERATION_WEBHOOK_URL"`
}

type SMSConfig struct {
	URL    string `env:"SMS_API_URL"`
	APIKey string `env:"SMS_API_KEY"`
	Sender string `env:"SMS_SENDER"`
}

type ExternalConfig struct {
	NeisKey    string `env:"NEIS_API_KEY"`
	NeisURL    string `env:"NEIS_API_URL" env-default:"https://open.neis.go.kr/hub"`
	KakaoKey   string `env:"KAKAO_REST_KEY"`
	GeocodeURL string `env:"GEOCODE_API_URL" env-default:"https://dapi.kakao.com/v2/local/search/address.json"`
	TransitKey string `env:"TAGO_API_KEY"`
	TransitURL string `env:"TAGO_API_URL" env-default:"https://apis.data.go.kr/1613000"`
}

type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URI"`
}

type OAuthConfig struct {
	Kakao           ProviderConfig `env-prefix:"KAKAO_"`
	Google          ProviderConfig `env-prefix:"GOOGLE_"`
	Instagram       ProviderConfig `env-prefix:"INSTAGRAM_"`
	LeagueOfLegends ProviderConfig `env-prefix:"RIOT_"`
	Apple           AppleConfig
}

type AppleConfig struct {
	ClientID    string `env:"APPLE_CLIENT_ID"`
	TeamID      string `env:"APPLE_TEAM_ID"`
	KeyID       string `env:"APPLE_KEY_ID"`
	PrivateKey  string `env:"APPLE_PRIVATE_KEY"`
	RedirectURL string `env:"APPLE_REDIRECT_URI"`
}

type RateLimitConfig struct {
	Enabled      bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Limit        int           `env:"RATE_LIMIT" env-default:"100"`
	PhoneLimit   int           `env:"RATE_LIMIT_PHONE" env-default:"5"`
	Window       time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	Message      string        `env:"RATE_LIMIT_MESSAGE" env-default:"요청이 너무 많습니다. 잠시 후 다시 시도해주세요."`
	PhoneCoolOff time.Duration `env:"PHONE_CODE_COOLDOWN" env-default:"1m"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

type WorkerConfig struct {
	OutboxInterval time.Duration `env:"OUTBOX_INTERVAL" env-default:"1s"`
	OutboxBatch    int           `env:"OUTBOX_BATCH" env-default:"200"`
	OutboxMaxRetry int           `env:"OUTBOX_MAX_RETRY" env-default:"10"`
	ScoreInterval  time.Duration `env:"SCORE_REFRESH_INTERVAL" env-default:"6h"`
	ScoreBatch     int           `env:"SCORE_REFRESH_BATCH" env-default:"500"`
}

// AdminConfig 首次启动时创建的超级管理员，已存在则跳过
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load 先加载 .env（不存在则忽略），再从环境变量填充
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
