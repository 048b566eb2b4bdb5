package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         []byte
	CORSOrigins       []string
	RequestTimeoutSec int

	DBMaxConns        int
	DBMinConns        int
	DBMaxConnLifetime time.Duration

	DataEncryptionKeys string
	CurrentDataKeyVer  string

	// Endpoint de funções server-side (agregação de disponibilidade etc.)
	FunctionsBaseURL string
	FunctionsAPIKey  string

	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string
	SMTPFromName  string
	SMTPFromEmail string
	// Caixa da coordenação para avisos operacionais (grade cheia etc.)
	CoordinationEmail string

	// WhatsApp (Twilio) para lembretes de atendimento confirmado
	TwilioAccountSid   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
}

func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		jwtSecret = "default-secret-min-32-chars-required!!"
	}
	cors := os.Getenv("CORS_ORIGINS")
	if cors == "" {
		cors = "http://localhost:5173"
	}
	var origins []string
	for _, o := range strings.Split(cors, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	return &Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          []byte(jwtSecret),
		CORSOrigins:        origins,
		RequestTimeoutSec:  getEnvInt("REQUEST_TIMEOUT_SEC", 30),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 0),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 0),
		DBMaxConnLifetime:  time.Duration(getEnvInt("DB_MAX_CONN_LIFETIME_MIN", 0)) * time.Minute,
		DataEncryptionKeys: getEnv("DATA_ENCRYPTION_KEYS", "v1:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
		CurrentDataKeyVer:  getEnv("CURRENT_DATA_KEY_VERSION", "v1"),
		FunctionsBaseURL:   os.Getenv("FUNCTIONS_BASE_URL"),
		FunctionsAPIKey:    os.Getenv("FUNCTIONS_API_KEY"),
		SMTPHost:           getEnv("SMTP_HOST", "localhost"),
		SMTPPort:           getEnv("SMTP_PORT", "1025"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		SMTPFromName:       getEnv("SMTP_FROM_NAME", "EuPsico Intranet"),
		SMTPFromEmail:      getEnv("SMTP_FROM_EMAIL", "noreply@localhost"),
		CoordinationEmail:  os.Getenv("COORDINATION_EMAIL"),
		TwilioAccountSid:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}
