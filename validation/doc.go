// Package validation validates structs with go-playground/validator tags and
// reports failures as *errors.AppError values listing every offending field.
//
//	type AppConfig struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Greeting string `mapstructure:"greeting" validate:"required,min=2"`
//	}
//	err := validation.Struct(cfg)
//
// Field names follow the mapstructure (or yaml, then json) tag so reports
// match the keys of the configuration file.
package validation
