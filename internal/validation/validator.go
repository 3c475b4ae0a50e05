// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// cronParser accepts standard five-field expressions and descriptors like @daily.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// FieldError is a single failed validation rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Errors is the error returned by ValidateStruct. It lists every failed field.
type Errors []FieldError

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve))
	for i, e := range ve {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance with the agent's
// custom rules registered:
//
//	hhmm      "03:30" style 24h time of day
//	cronspec  five-field cron expression or @descriptor
//	policy    notify, manual or automatic
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
			if name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
			return f.Name
		})
		mustRegister("hhmm", func(fl validator.FieldLevel) bool {
			return IsTimeOfDay(fl.Field().String())
		})
		mustRegister("cronspec", func(fl validator.FieldLevel) bool {
			return IsCronSpec(fl.Field().String())
		})
		mustRegister("policy", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(fl.Field().String()) {
			case "notify", "manual", "automatic":
				return true
			}
			return false
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// IsTimeOfDay reports whether s is a valid "HH:MM" 24h time.
func IsTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// IsCronSpec reports whether s parses as a cron expression.
func IsCronSpec(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := cronParser.Parse(s)
	return err == nil
}

// ParseCron parses a cron expression with the same rules as the cronspec tag.
func ParseCron(s string) (cron.Schedule, error) {
	return cronParser.Parse(s)
}

// ValidateStruct validates s and returns Errors, or nil when s is valid.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(validationErrs))
	for i, fe := range validationErrs {
		out[i] = FieldError{
			Field:   trimRoot(fe.Namespace()),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return out
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"hhmm":     "%s must be a time of day formatted as HH:MM",
	"cronspec": "%s must be a valid cron expression",
	"policy":   "%s must be one of: notify, manual, automatic",
	"url":      "%s must be a valid URL",
	"hostname": "%s must be a valid hostname",
	"dir":      "%s must be an existing directory",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translateError(fe validator.FieldError) string {
	field := trimRoot(fe.Namespace())
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// trimRoot drops the top-level struct name from a namespace ("Config.server.port").
func trimRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
