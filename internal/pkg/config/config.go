package config

import (
	"fmt"
	"time"

	"mechanic-booking/internal/domain/calendar"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, secrets)
// - default: Values common across all environments (business hours, timeouts, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Operator  OperatorConfig
	Booking   BookingConfig
	Pricing   PricingConfig
	Stripe    StripeConfig
	Telegram  TelegramConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Sweeper   SweeperConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            string        `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" required:"true"`
	Password        string        `envconfig:"DB_PASSWORD" required:"true"`
	DBName          string        `envconfig:"DB_NAME" required:"true"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone        string        `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,X-Request-ID,Idempotent-Replayed"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Australia/Sydney"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"36000"` // 10*60*60
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"12h"`
}

type CookieConfig struct {
	Domain   string `envconfig:"COOKIE_DOMAIN" default:""`
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"true"`
	SameSite string `envconfig:"COOKIE_SAME_SITE" default:"Strict"`
}

// OperatorConfig holds the single back-office account.
type OperatorConfig struct {
	Username     string `envconfig:"OPERATOR_USERNAME" default:"operator"`
	PasswordHash string `envconfig:"OPERATOR_PASSWORD_HASH" required:"true"`
}

type BookingConfig struct {
	TimeZone          string             `envconfig:"BOOKING_TIMEZONE" default:"Australia/Sydney"`
	OpenTime          calendar.ClockTime `envconfig:"BOOKING_OPEN_TIME" default:"09:00"`
	CloseTime         calendar.ClockTime `envconfig:"BOOKING_CLOSE_TIME" default:"17:00"`
	LastBookingTime   calendar.ClockTime `envconfig:"BOOKING_LAST_BOOKING_TIME" default:"15:30"`
	JobDuration       time.Duration      `envconfig:"BOOKING_JOB_DURATION" default:"90m"`
	Buffer            time.Duration      `envconfig:"BOOKING_BUFFER" default:"0m"`
	Granularity       time.Duration      `envconfig:"BOOKING_SLOT_GRANULARITY" default:"30m"`
	MaxBookingsPerDay int                `envconfig:"BOOKING_MAX_PER_DAY" default:"4"`
	HorizonDays       int                `envconfig:"BOOKING_HORIZON_DAYS" default:"60"`
	HoldWindow        time.Duration      `envconfig:"BOOKING_HOLD_WINDOW" default:"35m"`
	CheckoutMargin    time.Duration      `envconfig:"BOOKING_CHECKOUT_MARGIN" default:"0s"`
	IdempotencyTTL    time.Duration      `envconfig:"BOOKING_IDEMPOTENCY_TTL" default:"24h"`
	WeekendPolicy     string             `envconfig:"BOOKING_WEEKEND_POLICY" default:"Weekend visits are by request. Pick a preferred window and we will confirm a time after payment."`
}

type PricingConfig struct {
	Currency         string           `envconfig:"PRICING_CURRENCY" default:"aud"`
	WeekendSurcharge int64            `envconfig:"PRICING_WEEKEND_SURCHARGE" default:"5000"`
	CatalogFile      string           `envconfig:"PRICING_CATALOG_FILE"`
	ServicePrices    map[string]int64 `envconfig:"PRICING_SERVICE_PRICES"`
	AddOnPrices      map[string]int64 `envconfig:"PRICING_ADDON_PRICES"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	SuccessURL    string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:3000/booking/success?ref={REFERENCE}"`
	CancelURL     string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:3000/booking/cancelled?ref={REFERENCE}"`
}

// An empty token disables owner messages; outbox jobs are still written.
type TelegramConfig struct {
	BotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	OwnerChatID int64  `envconfig:"TELEGRAM_OWNER_CHAT_ID"`
}

// An empty address disables webhook event de-duplication.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	EventTTL time.Duration `envconfig:"REDIS_EVENT_TTL" default:"72h"`
	// EventLease bounds how long an unfinished claim blocks redelivery.
	EventLease time.Duration `envconfig:"REDIS_EVENT_LEASE" default:"2m"`
	KeyPrefix  string        `envconfig:"REDIS_KEY_PREFIX" default:"mechanic-booking:webhook:"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
	Burst             int `envconfig:"RATE_LIMIT_BURST" default:"5"`
}

type SweeperConfig struct {
	Interval time.Duration `envconfig:"SWEEPER_INTERVAL" default:"1m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// CalendarConfig resolves the booking section into the immutable calendar settings.
func (c BookingConfig) CalendarConfig() (calendar.Config, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return calendar.Config{}, fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.TimeZone, err)
	}
	cfg := calendar.Config{
		Location:          loc,
		OpenTime:          c.OpenTime,
		CloseTime:         c.CloseTime,
		LastBookingTime:   c.LastBookingTime,
		JobDuration:       c.JobDuration,
		Buffer:            c.Buffer,
		Granularity:       c.Granularity,
		MaxBookingsPerDay: c.MaxBookingsPerDay,
		HorizonDays:       c.HorizonDays,
		WeekendPolicy:     c.WeekendPolicy,
	}
	if err := cfg.Validate(); err != nil {
		return calendar.Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads an optional .env file before processing the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if cfg.Booking.HoldWindow <= cfg.Booking.CheckoutMargin {
		return Config{}, fmt.Errorf("BOOKING_HOLD_WINDOW (%s) must exceed BOOKING_CHECKOUT_MARGIN (%s)",
			cfg.Booking.HoldWindow, cfg.Booking.CheckoutMargin)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 5,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Australia/Sydney",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 36000,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: time.Hour,
		},
		Cookie: CookieConfig{
			Secure:   false,
			SameSite: "Lax",
		},
		Operator: OperatorConfig{
			Username: "operator",
			// bcrypt of "password123"
			PasswordHash: "$2a$12$uhAjVE9f92IGYv3E25pJNetg.27lVt0p7jmLWjqjmhOg92ldPS0A.",
		},
		Stripe: StripeConfig{
			SecretKey:     "sk_test_dummy",
			WebhookSecret: "whsec_test_dummy",
			SuccessURL:    "http://localhost:3000/booking/success?ref={REFERENCE}",
			CancelURL:     "http://localhost:3000/booking/cancelled?ref={REFERENCE}",
		},
		Booking: BookingConfig{
			TimeZone:          "Australia/Sydney",
			OpenTime:          calendar.ClockTime{Hour: 9},
			CloseTime:         calendar.ClockTime{Hour: 17},
			LastBookingTime:   calendar.ClockTime{Hour: 15, Minute: 30},
			JobDuration:       90 * time.Minute,
			Granularity:       30 * time.Minute,
			MaxBookingsPerDay: 4,
			HorizonDays:       60,
			HoldWindow:        35 * time.Minute,
			IdempotencyTTL:    24 * time.Hour,
		},
		Pricing: PricingConfig{
			Currency:         "aud",
			WeekendSurcharge: 5000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
			Burst:             100,
		},
		Sweeper: SweeperConfig{
			Interval: time.Minute,
		},
	}
}
