// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"encoding/json"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/pkg/errors"
)

// jsonTensor is the serialized form of a Tensor.
type jsonTensor struct {
	Dims []int     `json:"dims"`
	Data []float32 `json:"data"`
}

// MarshalJSON implements json.Marshaler. Tensors are encoded as `{"dims": [...], "data": [...]}`.
// The padding is not serialized.
func (t *Tensor) MarshalJSON() ([]byte, error) {
	dims := t.dims
	if dims == nil {
		dims = []int{}
	}
	return json.Marshal(jsonTensor{Dims: dims, Data: t.Data()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var jt jsonTensor
	if err := json.Unmarshal(b, &jt); err != nil {
		return errors.Wrap(err, "failed to decode tensor")
	}
	loaded, err := FromData(jt.Dims, jt.Data)
	if err != nil {
		return nnerrors.Loadf("invalid tensor: %v", err)
	}
	*t = *loaded
	return nil
}
