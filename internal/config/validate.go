// internal/config/validate.go
package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if c.Populate.LookupLimit < 0 {
		errs = append(errs, fmt.Sprintf("populate.lookup_limit: must not be negative, got %d", c.Populate.LookupLimit))
	}

	// Manager validation. Both sections are optional; a configured
	// section must be complete.
	errs = append(errs, validateManager("radarr", c.Radarr)...)
	errs = append(errs, validateManager("sonarr", c.Sonarr)...)

	// Release-date provider validation
	if c.TMDB != nil && c.TMDB.APIKey == "" {
		errs = append(errs, "tmdb.api_key: required when tmdb is configured")
	}
	if c.OMDb != nil && c.OMDb.APIKey == "" {
		errs = append(errs, "omdb.api_key: required when omdb is configured")
	}

	return errs
}

func validateManager(name string, mc *ManagerConfig) []string {
	if mc == nil {
		return nil
	}

	var errs []string
	if mc.URL == "" {
		errs = append(errs, fmt.Sprintf("%s.url: required when %s is configured", name, name))
	}
	if mc.APIKey == "" {
		errs = append(errs, fmt.Sprintf("%s.api_key: required when %s is configured", name, name))
	}
	if mc.Database != nil && mc.Database.DSN == "" {
		errs = append(errs, fmt.Sprintf("%s.database.dsn: required when %s.database is configured", name, name))
	}
	return errs
}
