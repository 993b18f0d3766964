// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"encoding/json"
	"testing"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	s, err = ParseSettings("precision=float16, vector_width=16,exp_approx,parallelism=4,uint8_inputs=convert_in_routine,no_buffer_reuse,debug=false")
	require.NoError(t, err)
	assert.Equal(t, Settings{
		Precision:          Float16,
		VectorWidth:        16,
		UseExpApprox:       true,
		MaxParallelism:     4,
		UInt8Inputs:        UInt8InputsConvertInRoutine,
		DisableBufferReuse: true,
	}, s)

	// Round trip.
	for _, settings := range []Settings{DefaultSettings(), s, {VectorWidth: 1, Debug: true, UInt8Inputs: UInt8InputsPreConverted}} {
		parsed, err := ParseSettings(settings.String())
		require.NoError(t, err, "settings %q", settings)
		assert.Equal(t, settings, parsed)
	}

	for _, config := range []string{
		"precision=float64", "vector_width=3", "vector_width=x", "parallelism=-1",
		"uint8_inputs=maybe", "debug=sometimes", "turbo",
	} {
		_, err := ParseSettings(config)
		assert.True(t, errors.Is(err, nnerrors.ErrCompilation), "config %q: %v", config, err)
	}
	assert.True(t, errors.Is(Settings{Precision: 7}.Validate(), nnerrors.ErrCompilation))
	assert.True(t, errors.Is(Settings{UInt8Inputs: 9}.Validate(), nnerrors.ErrCompilation))
}

func TestSettingsEnums(t *testing.T) {
	assert.Equal(t, []string{"float32", "float16"}, PrecisionStrings())
	assert.Equal(t, []string{"unspecified", "convert_in_routine", "pre_converted"}, nn.UInt8InputModeStrings())
	assert.Equal(t, "Precision(7)", Precision(7).String())

	// Names are matched case-insensitively.
	p, err := PrecisionString("Float16")
	require.NoError(t, err)
	assert.Equal(t, Float16, p)
	_, err = PrecisionString("float64")
	assert.Error(t, err)

	for _, mode := range nn.UInt8InputModeValues() {
		s, err := ParseSettings("uint8_inputs=" + mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, s.UInt8Inputs)
	}
}

func TestSettingsJSON(t *testing.T) {
	s := Settings{Precision: Float16, VectorWidth: 4, MaxParallelism: 2, UInt8Inputs: UInt8InputsPreConverted}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"precision":"float16","vector_width":4,"parallelism":2,"uint8_inputs":"pre_converted"}`, string(data))

	var loaded Settings
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, s, loaded)

	assert.Error(t, json.Unmarshal([]byte(`{"precision":"float64"}`), &loaded))
	assert.Error(t, json.Unmarshal([]byte(`{"uint8_inputs":1}`), &loaded))
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv(SettingsEnvVar, "vector_width=4,exp_approx")
	s, err := SettingsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4, s.VectorWidth)
	assert.True(t, s.UseExpApprox)

	t.Setenv(SettingsEnvVar, "bogus")
	_, err = SettingsFromEnv()
	assert.Error(t, err)
}
