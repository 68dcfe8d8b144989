package config

import "log"

// MustValid stops the process when the configuration cannot run the service.
func MustValid(c Config) {
	if err := c.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
