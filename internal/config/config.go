// Package config собирает hho.Config из значений по умолчанию,
// необязательного YAML-файла и переменных окружения HHO_*.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"sigs.k8s.io/yaml"

	"flowShop/internal/hho"
)

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "HHO_"

// Load возвращает конфигурацию: DefaultConfig, затем файл path (если не пуст),
// затем переменные окружения. Результат проверяется Validate.
func Load(path string) (hho.Config, error) {
	return load(path, nil)
}

// load принимает окружение явно; nil означает окружение процесса.
func load(path string, environ map[string]string) (hho.Config, error) {
	cfg := hho.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return hho.Config{}, fmt.Errorf("чтение конфигурации: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return hho.Config{}, fmt.Errorf("разбор конфигурации %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// только первая ошибка, чтобы сообщение было коротким
			return hho.Config{}, fmt.Errorf("переменные окружения: %w", aggErr.Errors[0])
		}
		return hho.Config{}, fmt.Errorf("переменные окружения: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return hho.Config{}, err
	}
	return cfg, nil
}

// Save записывает конфигурацию в YAML.
func Save(path string, cfg hho.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
