// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateServer(cfg, errs)
	v.validateSurface(cfg, errs)
	v.validateCapture(cfg, errs)
	v.validateDocument(cfg, errs)
	v.validateLogging(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port != 0 {
		if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
			errs.Add("server.port", "must be between 0 and 65535")
		}
	}
	// TLS cert and key travel together.
	if (cfg.Server.TLSCert == "") != (cfg.Server.TLSKey == "") {
		errs.Add("server", "both tls_cert and tls_key must be specified together")
	}
}

func (v *Validator) validateSurface(cfg *Config, errs *ValidationError) {
	if cfg.Surface.Width < 0 {
		errs.Add("surface.width", "must be positive")
	}
	if cfg.Surface.Height < 0 {
		errs.Add("surface.height", "must be positive")
	}
}

func (v *Validator) validateCapture(cfg *Config, errs *ValidationError) {
	if cfg.Capture.FrameRate < 0 || cfg.Capture.FrameRate > 120 {
		errs.Add("capture.frame_rate", "must be between 0 and 120")
	}
	for i, s := range cfg.Capture.Durations {
		d, err := time.ParseDuration(s)
		if err != nil {
			errs.Add(fmt.Sprintf("capture.durations[%d]", i), fmt.Sprintf("invalid duration format: %s", err))
		} else if d <= 0 {
			errs.Add(fmt.Sprintf("capture.durations[%d]", i), "must be positive")
		}
	}
}

func (v *Validator) validateDocument(cfg *Config, errs *ValidationError) {
	if cfg.Document.Viewport.W < 0 || cfg.Document.Viewport.H < 0 {
		errs.Add("document.viewport", "width and height must be positive")
	}
	if cfg.Document.VideoRefDim < 0 {
		errs.Add("document.video_ref_dim", "must be positive")
	}
	if cfg.Document.ImageRefDim < 0 {
		errs.Add("document.image_ref_dim", "must be positive")
	}
}

func (v *Validator) validateLogging(cfg *Config, errs *ValidationError) {
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[cfg.Logging.Level] {
			errs.Add("logging.level", fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", cfg.Logging.Level))
		}
	}

	if cfg.Logging.Format != "" {
		validFormats := map[string]bool{
			"json": true,
			"text": true,
		}
		if !validFormats[cfg.Logging.Format] {
			errs.Add("logging.format", fmt.Sprintf("invalid format '%s', must be one of: json, text", cfg.Logging.Format))
		}
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	// Validate watch debounce
	if cfg.Watch.Debounce != "" {
		d, err := time.ParseDuration(cfg.Watch.Debounce)
		if err != nil {
			errs.Add("watch.debounce", fmt.Sprintf("invalid duration format: %s", err))
		} else if d < 0 {
			errs.Add("watch.debounce", "must be positive")
		}
	}

	// Validate event history max_age
	if cfg.Events.History.MaxAge != "" {
		d, err := time.ParseDuration(cfg.Events.History.MaxAge)
		if err != nil {
			errs.Add("events.history.max_age", fmt.Sprintf("invalid duration format: %s", err))
		} else if d < 0 {
			errs.Add("events.history.max_age", "must be positive")
		}
	}
}
