package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServiceName     = "marketplace"
	DefaultEnv             = "dev"
	DefaultLogLevel        = "info"
	DefaultHTTPAddr        = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultQueueCapacity   = 8
	DefaultRepublishWait   = 150 * time.Millisecond
	DefaultRetryWait       = 100 * time.Millisecond
)

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = DefaultServiceName
	}
	if c.Service.Env == "" {
		c.Service.Env = DefaultEnv
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Marketplace.QueueCapacity == 0 {
		c.Marketplace.QueueCapacity = DefaultQueueCapacity
	}
	if c.Marketplace.RepublishWait == 0 {
		c.Marketplace.RepublishWait = DefaultRepublishWait
	}
	if c.Marketplace.RetryWait == 0 {
		c.Marketplace.RetryWait = DefaultRetryWait
	}

	for i := range c.Consumers {
		for j := range c.Consumers[i].Carts {
			for k := range c.Consumers[i].Carts[j] {
				if c.Consumers[i].Carts[j][k].Quantity == 0 {
					c.Consumers[i].Carts[j][k].Quantity = 1
				}
			}
		}
	}
	for i := range c.Producers {
		for j := range c.Producers[i].Offers {
			if c.Producers[i].Offers[j].Quantity == 0 {
				c.Producers[i].Offers[j].Quantity = 1
			}
		}
	}
}
