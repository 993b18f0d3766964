// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

//go:generate go tool enumer -type=Precision -transform=lower -json -text -output=gen_precision_enumer.go settings.go

// Precision of the values computed by a compiled network.
type Precision int

const (
	// Float32 computes everything in single precision.
	Float32 Precision = iota

	// Float16 rounds the weights and the output of every node to IEEE half precision. Arithmetic is
	// still done in float32.
	Float16
)

// UInt8InputMode defines how inputs flagged as 8-bit are fed. See nn.UInt8InputMode.
type UInt8InputMode = nn.UInt8InputMode

const (
	UInt8InputsUnspecified      = nn.UInt8InputsUnspecified
	UInt8InputsConvertInRoutine = nn.UInt8InputsConvertInRoutine
	UInt8InputsPreConverted     = nn.UInt8InputsPreConverted
)

// SettingsEnvVar is the environment variable read by SettingsFromEnv. Its format is the one of ParseSettings.
const SettingsEnvVar = "COMPILEDNN_SETTINGS"

// Settings configure a compilation. It is a plain value: copies are independent.
//
// Settings can also be serialized to JSON, with the option names of ParseSettings as keys.
type Settings struct {
	Precision Precision `json:"precision"`

	// VectorWidth is the unroll width of inner loops: 1, 4, 8 or 16. 0 selects 8.
	VectorWidth int `json:"vector_width"`

	// UseExpApprox selects a faster, slightly less precise, exponential.
	UseExpApprox bool `json:"exp_approx,omitempty"`

	// MaxParallelism is the maximum number of chunks the rows of dense, convolution and pooling
	// layers are split into. 0 or 1 runs sequentially.
	MaxParallelism int `json:"parallelism,omitempty"`

	// UInt8Inputs must be set if the model has inputs flagged as 8-bit.
	UInt8Inputs UInt8InputMode `json:"uint8_inputs"`

	// DisableBufferReuse gives each intermediate tensor its own storage.
	DisableBufferReuse bool `json:"no_buffer_reuse,omitempty"`

	// Debug logs the time taken by every step of the routine at klog level 2.
	Debug bool `json:"debug,omitempty"`
}

// DefaultSettings returns the default settings: float32, vector width 8, sequential, exact exponential.
func DefaultSettings() Settings {
	return Settings{VectorWidth: jit.DefaultVectorWidth}
}

// Validate fails with a CompilationError if any of the settings has an unsupported value.
func (s Settings) Validate() error {
	if !s.Precision.IsAPrecision() {
		return nnerrors.Compilationf("invalid precision %s", s.Precision)
	}
	switch s.VectorWidth {
	case 0, 1, 4, 8, 16:
	default:
		return nnerrors.Compilationf("invalid vector width %d: valid values are 1, 4, 8 and 16", s.VectorWidth)
	}
	if s.MaxParallelism < 0 {
		return nnerrors.Compilationf("invalid max parallelism %d", s.MaxParallelism)
	}
	if !s.UInt8Inputs.IsAUInt8InputMode() {
		return nnerrors.Compilationf("invalid 8-bit inputs mode %s", s.UInt8Inputs)
	}
	return nil
}

// jitOptions returns the options of the routine emitter.
func (s Settings) jitOptions() jit.Options {
	return jit.Options{
		VectorWidth:    s.VectorWidth,
		UseExpApprox:   s.UseExpApprox,
		MaxParallelism: s.MaxParallelism,
		HalfPrecision:  s.Precision == Float16,
		Debug:          s.Debug,
	}
}

// String returns the settings in the format accepted by ParseSettings.
func (s Settings) String() string {
	parts := []string{
		"precision=" + s.Precision.String(),
		"vector_width=" + strconv.Itoa(s.VectorWidth),
	}
	if s.UseExpApprox {
		parts = append(parts, "exp_approx")
	}
	if s.MaxParallelism > 0 {
		parts = append(parts, "parallelism="+strconv.Itoa(s.MaxParallelism))
	}
	if s.UInt8Inputs != UInt8InputsUnspecified {
		parts = append(parts, "uint8_inputs="+s.UInt8Inputs.String())
	}
	if s.DisableBufferReuse {
		parts = append(parts, "no_buffer_reuse")
	}
	if s.Debug {
		parts = append(parts, "debug")
	}
	return strings.Join(parts, ",")
}

// ParseSettings parses a comma-separated list of options, applied over DefaultSettings:
//
//   - "precision=float32" or "precision=float16".
//   - "vector_width=N", with N one of 1, 4, 8 or 16.
//   - "exp_approx": use the fast exponential.
//   - "parallelism=N": split rows of heavy layers in up to N chunks.
//   - "uint8_inputs=convert_in_routine" or "uint8_inputs=pre_converted": see UInt8InputMode.
//   - "no_buffer_reuse": give each intermediate tensor its own storage.
//   - "debug": log step timings.
//
// Boolean options also accept "=true" or "=false". It fails with a CompilationError.
func ParseSettings(config string) (Settings, error) {
	s := DefaultSettings()
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		var err error
		switch key {
		case "precision":
			s.Precision, err = PrecisionString(value)
			if err != nil {
				return s, nnerrors.Compilationf("unknown precision %q in settings %q", value, config)
			}
		case "vector_width":
			s.VectorWidth, err = strconv.Atoi(value)
		case "parallelism":
			s.MaxParallelism, err = strconv.Atoi(value)
		case "uint8_inputs":
			s.UInt8Inputs, err = nn.UInt8InputModeString(value)
			if err != nil {
				return s, nnerrors.Compilationf("unknown 8-bit inputs mode %q in settings %q", value, config)
			}
		case "exp_approx":
			s.UseExpApprox, err = parseBool(value, hasValue)
		case "no_buffer_reuse":
			s.DisableBufferReuse, err = parseBool(value, hasValue)
		case "debug":
			s.Debug, err = parseBool(value, hasValue)
		default:
			return s, nnerrors.Compilationf("unknown option %q in settings %q", key, config)
		}
		if err != nil {
			return s, nnerrors.Compilationf("invalid value for option %q in settings %q: %v", key, config, err)
		}
	}
	return s, s.Validate()
}

func parseBool(value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}
	return strconv.ParseBool(value)
}

// SettingsFromEnv returns the settings configured by the environment variable COMPILEDNN_SETTINGS,
// or DefaultSettings if it is not set.
func SettingsFromEnv() (Settings, error) {
	config, found := os.LookupEnv(SettingsEnvVar)
	if !found {
		return DefaultSettings(), nil
	}
	return ParseSettings(config)
}
