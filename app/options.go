package app

import (
	"errors"
	"log/slog"

	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}

// WithQueueStorage replaces the configured queue storage.
func WithQueueStorage(storage queue.Storage) Option {
	return func(a *App) error {
		if storage == nil {
			return errors.New("queue storage cannot be nil")
		}
		a.storage = storage
		return nil
	}
}

// WithKVStore replaces the configured key-value store.
func WithKVStore(kv kvstore.Store) Option {
	return func(a *App) error {
		if kv == nil {
			return errors.New("kv store cannot be nil")
		}
		a.kv = kv
		return nil
	}
}

// WithRepository replaces the configured repository.
func WithRepository(store repository.Store) Option {
	return func(a *App) error {
		if store == nil {
			return errors.New("repository cannot be nil")
		}
		a.store = store
		return nil
	}
}

func WithGenerator(gen textgen.Generator) Option {
	return func(a *App) error {
		if gen == nil {
			return errors.New("generator cannot be nil")
		}
		a.generator = gen
		return nil
	}
}

func WithEmailSender(sender email.EmailSender) Option {
	return func(a *App) error {
		if sender == nil {
			return errors.New("email sender cannot be nil")
		}
		a.sender = sender
		return nil
	}
}
