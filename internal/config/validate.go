package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Marketplace.QueueCapacity < 1 {
		return fmt.Errorf("marketplace.queue_capacity must be >= 1, got %d", c.Marketplace.QueueCapacity)
	}
	if c.Marketplace.RepublishWait < 0 {
		return errors.New("marketplace.republish_wait must not be negative")
	}
	if c.Marketplace.RetryWait < 0 {
		return errors.New("marketplace.retry_wait must not be negative")
	}

	for key, p := range c.Catalog {
		if p.Name == "" {
			return fmt.Errorf("catalog.%s.name is required", key)
		}
		if p.Category == "" {
			return fmt.Errorf("catalog.%s.category is required", key)
		}
		if p.Price < 0 {
			return fmt.Errorf("catalog.%s.price must be >= 0", key)
		}
	}

	if len(c.Consumers) == 0 {
		return errors.New("at least one consumer is required")
	}

	names := make(map[string]string)
	for i, p := range c.Producers {
		prefix := fmt.Sprintf("producers[%d]", i)
		if err := claimName(names, prefix, p.Name); err != nil {
			return err
		}
		if p.Rounds < 0 {
			return fmt.Errorf("%s.rounds must be >= 0", prefix)
		}
		for j, o := range p.Offers {
			if err := c.validateItem(fmt.Sprintf("%s.offers[%d]", prefix, j), o.Product, o.Quantity); err != nil {
				return err
			}
			if o.Pace < 0 {
				return fmt.Errorf("%s.offers[%d].pace must not be negative", prefix, j)
			}
		}
	}

	for i, cons := range c.Consumers {
		prefix := fmt.Sprintf("consumers[%d]", i)
		if err := claimName(names, prefix, cons.Name); err != nil {
			return err
		}
		for j, cart := range cons.Carts {
			for k, step := range cart {
				stepPrefix := fmt.Sprintf("%s.carts[%d][%d]", prefix, j, k)
				if step.Type != "add" && step.Type != "remove" {
					return fmt.Errorf("%s.type must be add or remove, got %q", stepPrefix, step.Type)
				}
				if err := c.validateItem(stepPrefix, step.Product, step.Quantity); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (c *Config) validateItem(prefix, product string, quantity int) error {
	if _, ok := c.Catalog[product]; !ok {
		return fmt.Errorf("%s.product %q is not in the catalog", prefix, product)
	}
	if quantity < 1 {
		return fmt.Errorf("%s.quantity must be >= 1", prefix)
	}
	return nil
}

func claimName(seen map[string]string, prefix, name string) error {
	if name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if other, ok := seen[name]; ok {
		return fmt.Errorf("%s.name %q is already used by %s", prefix, name, other)
	}
	seen[name] = prefix
	return nil
}
