// Package validation validates configuration and request structs with
// go-playground/validator struct tags.
//
//	type CacheConfig struct {
//	    Backend string `mapstructure:"backend" validate:"oneof=file redis"`
//	}
//	err := validation.Validate(cfg)
//
// Field paths in messages use mapstructure (or json) tag names, so a failure
// reads "cache.backend must be one of: file redis" and matches the key a
// user writes in config.yml. Failures are returned as INVALID_INPUT
// *errors.AppError values.
package validation
