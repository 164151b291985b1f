package app

import (
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/core/server"
	"github.com/dmitrymomot/fitqueue/integration/database/pg"
	"github.com/dmitrymomot/fitqueue/integration/database/redis"
	"github.com/dmitrymomot/fitqueue/integration/email/postmark"
	"github.com/dmitrymomot/fitqueue/integration/email/smtp"
	"github.com/dmitrymomot/fitqueue/internal/jobs"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

// Storage drivers for queues and the key-value store.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config aggregates the configuration of every component.
type Config struct {
	Queue    queue.Config
	Jobs     jobs.Config
	Redis    redis.Config
	DB       pg.Config
	Server   server.Config
	Postmark postmark.Config
	SMTP     smtp.Config
	AI       textgen.Config

	AppName  string `env:"APP_NAME" envDefault:"fitqueue"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// StorageDriver selects where queues, counters and notifications live.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"redis"`
	// DevMailDir receives rendered emails when Postmark is not configured.
	DevMailDir string `env:"DEV_MAIL_DIR" envDefault:"tmp/mail"`
}
