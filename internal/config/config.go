package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultAlias = "default"

var (
	ErrNoAccounts      = errors.New("MEDICOVER_USERDATA is required and cannot be empty")
	ErrDuplicateAlias  = errors.New("duplicate account alias")
	ErrDuplicateUser   = errors.New("duplicate account username")
	ErrTelegramPartial = errors.New("both MEDICONY_TELEGRAM_CHAT_ID and MEDICONY_TELEGRAM_TOKEN must be provided together")
	ErrSleepPeriod     = errors.New("SLEEP_PERIOD_SEC must be a positive integer")
)

type Config struct {
	Environment           string  `mapstructure:"ENV"`
	MedicoverUserdata     string  `mapstructure:"MEDICOVER_USERDATA"`
	SleepPeriodSec        int     `mapstructure:"SLEEP_PERIOD_SEC"`
	ActivityThresholdDays int     `mapstructure:"ACTIVITY_THRESHOLD_DAYS"`
	TelegramChatID        int64   `mapstructure:"MEDICONY_TELEGRAM_CHAT_ID"`
	TelegramToken         string  `mapstructure:"MEDICONY_TELEGRAM_TOKEN"`
	TelegramAddHint       string  `mapstructure:"TELEGRAM_ADD_COMMAND_SUGGESTED_PROPERTIES"`
	LogPath               string  `mapstructure:"LOG_PATH"`
	DBDSN                 string  `mapstructure:"DB_DSN"`
	PostgresHost          string  `mapstructure:"POSTGRES_HOST"`
	PostgresPort          string  `mapstructure:"POSTGRES_PORT"`
	PostgresDatabase      string  `mapstructure:"POSTGRES_DATABASE"`
	PostgresUser          string  `mapstructure:"POSTGRES_USER"`
	PostgresPassword      string  `mapstructure:"POSTGRES_PASSWORD"`
	MigrationsPath        string  `mapstructure:"MIGRATIONS_PATH"`
	RedisURL              string  `mapstructure:"REDIS_URL"`
	LockTTLSec            int     `mapstructure:"LOCK_TTL_SEC"`
	HTTPAddr              string  `mapstructure:"HTTP_ADDR"`
	RequestsPerSecond     float64 `mapstructure:"REQUESTS_PER_SECOND"`

	accounts []model.Account
}

var defaults = map[string]any{
	"ENV":                     "development",
	"SLEEP_PERIOD_SEC":        300,
	"ACTIVITY_THRESHOLD_DAYS": model.DefaultActivityThresholdDays,
	"LOG_PATH":                "log/medicony.log",
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_DATABASE":       "medicony",
	"MIGRATIONS_PATH":         "migrations",
	"LOCK_TTL_SEC":            120,
	"REQUESTS_PER_SECOND":     1.0,
}

var boundKeys = []string{
	"MEDICOVER_USERDATA",
	"MEDICONY_TELEGRAM_CHAT_ID",
	"MEDICONY_TELEGRAM_TOKEN",
	"TELEGRAM_ADD_COMMAND_SUGGESTED_PROPERTIES",
	"DB_DSN",
	"POSTGRES_USER",
	"POSTGRES_PASSWORD",
	"REDIS_URL",
	"HTTP_ADDR",
}

func Load() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}
	for _, key := range boundKeys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SleepPeriodSec <= 0 {
		return ErrSleepPeriod
	}
	if strings.TrimSpace(c.MedicoverUserdata) == "" {
		return ErrNoAccounts
	}
	accounts, err := ParseAccounts(c.MedicoverUserdata)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("MEDICOVER_USERDATA could not be parsed into at least one account (expected username:password or alias@BASE64USER:BASE64PASS)")
	}
	c.accounts = accounts

	if (c.TelegramChatID != 0) != (strings.TrimSpace(c.TelegramToken) != "") {
		return ErrTelegramPartial
	}
	if c.ActivityThresholdDays <= 0 {
		c.ActivityThresholdDays = model.DefaultActivityThresholdDays
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	return nil
}

// ParseAccounts разбирает MEDICOVER_USERDATA.
// Формат username:password даёт один аккаунт "default",
// формат alias@B64(user):B64(pass)[;...] - несколько, первый становится аккаунтом по умолчанию.
func ParseAccounts(raw string) ([]model.Account, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if !strings.Contains(raw, ";") && strings.Count(raw, ":") == 1 {
		user, pass, _ := strings.Cut(raw, ":")
		if !strings.Contains(user, "=") {
			return []model.Account{{Alias: DefaultAlias, Username: user, Password: pass}}, nil
		}
	}

	var (
		accounts  []model.Account
		aliases   = map[string]struct{}{}
		usernames = map[string]struct{}{}
		idx       int
	)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx++

		alias, creds, ok := strings.Cut(part, "@")
		if !ok {
			user, pass, single := strings.Cut(part, ":")
			if single && !strings.Contains(pass, ":") {
				if idx != 1 {
					alias = fmt.Sprintf("account%d", idx)
				} else {
					alias = DefaultAlias
				}
				return []model.Account{{Alias: alias, Username: user, Password: pass}}, nil
			}
			continue
		}
		userEnc, passEnc, ok := strings.Cut(creds, ":")
		if !ok {
			continue
		}

		username := decode(userEnc)
		if _, dup := usernames[username]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, username)
		}
		usernames[username] = struct{}{}
		if _, dup := aliases[alias]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAlias, alias)
		}
		aliases[alias] = struct{}{}

		accounts = append(accounts, model.Account{Alias: alias, Username: username, Password: decode(passEnc)})
	}
	return accounts, nil
}

// decode base64, при ошибке возвращается исходная строка
func decode(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(b) {
		return s
	}
	return string(b)
}

// Accounts аккаунты в порядке объявления
func (c *Config) Accounts() []model.Account {
	return c.accounts
}

// Aliases псевдонимы в порядке объявления
func (c *Config) Aliases() []string {
	out := make([]string, 0, len(c.accounts))
	for _, a := range c.accounts {
		out = append(out, a.Alias)
	}
	return out
}

// DefaultAccount первый объявленный аккаунт
func (c *Config) DefaultAccount() string {
	if len(c.accounts) == 0 {
		return DefaultAlias
	}
	return c.accounts[0].Alias
}

// Account учётные данные по псевдониму, пустой - аккаунт по умолчанию
func (c *Config) Account(alias string) (model.Account, error) {
	if alias == "" {
		alias = c.DefaultAccount()
	}
	for _, a := range c.accounts {
		if a.Alias == alias {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("%w: %s", medicover.ErrUnknownAccount, alias)
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramChatID != 0 && strings.TrimSpace(c.TelegramToken) != ""
}

func (c *Config) SleepPeriod() time.Duration {
	return time.Duration(c.SleepPeriodSec) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSec) * time.Second
}

// GetDBDSN DB_DSN либо строка, собранная из POSTGRES_*
func (c *Config) GetDBDSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDatabase,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// EnvInfo сводка настроек для лога без секретов
func (c *Config) EnvInfo() map[string]string {
	set := func(b bool) string {
		if b {
			return "set"
		}
		return "not set"
	}
	return map[string]string{
		"SLEEP_PERIOD_SEC":          fmt.Sprint(c.SleepPeriodSec),
		"MEDICONY_TELEGRAM_CHAT_ID": set(c.TelegramChatID != 0),
		"MEDICONY_TELEGRAM_TOKEN":   set(c.TelegramToken != ""),
		"LOG_PATH":                  c.LogPath,
		"MEDICOVER_ACCOUNTS":        strings.Join(c.Aliases(), ","),
		"REDIS_URL":                 set(c.RedisURL != ""),
		"HTTP_ADDR":                 c.HTTPAddr,
	}
}
