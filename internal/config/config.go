// Package config loads the marketplace scenario: catalog, producers, consumers and the runtime
// knobs around them.
package config

import (
	"time"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
)

// Config is the root of the scenario file.
type Config struct {
	Service     ServiceConfig             `yaml:"service"`
	Log         LogConfig                 `yaml:"log"`
	HTTP        HTTPConfig                `yaml:"http"`
	Tracing     TracingConfig             `yaml:"tracing"`
	Marketplace MarketplaceConfig         `yaml:"marketplace"`
	Catalog     map[string]domain.Product `yaml:"catalog"`
	Producers   []ProducerConfig          `yaml:"producers"`
	Consumers   []ConsumerConfig          `yaml:"consumers"`
}

type ServiceConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type TracingConfig struct {
	Stdout bool `yaml:"stdout"`
}

type MarketplaceConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	RepublishWait time.Duration `yaml:"republish_wait"`
	RetryWait     time.Duration `yaml:"retry_wait"`
}

// ProducerConfig describes one producer worker. Rounds of zero means publish until shutdown.
type ProducerConfig struct {
	Name   string        `yaml:"name"`
	Rounds int           `yaml:"rounds"`
	Offers []OfferConfig `yaml:"offers"`
}

// OfferConfig refers to a catalog entry by key.
type OfferConfig struct {
	Product  string        `yaml:"product"`
	Quantity int           `yaml:"quantity"`
	Pace     time.Duration `yaml:"pace"`
}

type ConsumerConfig struct {
	Name  string         `yaml:"name"`
	Carts [][]StepConfig `yaml:"carts"`
}

// StepConfig is one cart operation; Type is "add" or "remove".
type StepConfig struct {
	Type     string `yaml:"type"`
	Product  string `yaml:"product"`
	Quantity int    `yaml:"quantity"`
}
