// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gomlx/compilednn/internal/polymorphicjson"
	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// modelJSON is the serialized form of a Model.
type modelJSON struct {
	Name       string                           `json:"name"`
	Layers     []polymorphicjson.Wrapper[Layer] `json:"layers"`
	Nodes      []nodeJSON                       `json:"nodes"`
	Inputs     []TensorLocation                 `json:"inputs"`
	Outputs    []TensorLocation                 `json:"outputs"`
	InputUInt8 []bool                           `json:"input_uint8,omitempty"`
}

// nodeJSON is the serialized form of a Node. Nodes are listed in insertion order, so the index of a
// node is the number of nodes of the same layer listed before it.
type nodeJSON struct {
	Layer  LayerID          `json:"layer"`
	Inputs []TensorLocation `json:"inputs"`
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	mj := modelJSON{
		Name:    m.Name,
		Layers:  make([]polymorphicjson.Wrapper[Layer], len(m.layers)),
		Nodes:   make([]nodeJSON, len(m.allNodes)),
		Inputs:  m.Inputs(),
		Outputs: m.Outputs(),
	}
	for i, layer := range m.layers {
		mj.Layers[i] = polymorphicjson.Wrap(layer)
	}
	for i, node := range m.allNodes {
		inputs := node.Inputs
		if inputs == nil {
			inputs = []TensorLocation{}
		}
		mj.Nodes[i] = nodeJSON{Layer: node.LayerID, Inputs: inputs}
	}
	if m.HasUInt8Inputs() {
		mj.InputUInt8 = m.inputUInt8
	}
	return json.Marshal(mj)
}

// UnmarshalJSON implements json.Unmarshaler. The model is validated and its shapes resolved.
//
// It fails with a LoadError, in which case the model is left unchanged.
func (m *Model) UnmarshalJSON(b []byte) error {
	var mj modelJSON
	if err := json.Unmarshal(b, &mj); err != nil {
		return nnerrors.Loadf("malformed model: %v", err)
	}
	loaded := NewModel(mj.Name)
	for i, wrapper := range mj.Layers {
		if wrapper.Value == nil {
			return nnerrors.Loadf("layer #%d is null", i)
		}
		loaded.AddLayer(wrapper.Value)
	}
	for i, nj := range mj.Nodes {
		if _, err := loaded.AddNode(nj.Layer, nj.Inputs...); err != nil {
			return nnerrors.Loadf("node #%d: %v", i, err)
		}
	}
	loaded.SetInputs(mj.Inputs...)
	loaded.SetOutputs(mj.Outputs...)
	if len(mj.InputUInt8) > len(mj.Inputs) {
		return nnerrors.Loadf("input_uint8 has %d flags for %d inputs", len(mj.InputUInt8), len(mj.Inputs))
	}
	copy(loaded.inputUInt8, mj.InputUInt8)
	if err := loaded.ResolveShapes(); err != nil {
		return nnerrors.Loadf("invalid model %q: %v", mj.Name, err)
	}
	*m = *loaded
	return nil
}

// Load replaces the contents of the model with the one serialized in the file.
//
// The layer types used by the file must be registered, by importing the package
// github.com/gomlx/compilednn/pkg/nn/layers.
//
// It fails with a LoadError, in which case the model is left unchanged.
func (m *Model) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nnerrors.Loadf("failed to read model from %q: %v", path, err)
	}
	if err := m.UnmarshalJSON(data); err != nil {
		return errors.WithMessagef(err, "loading %q", path)
	}
	klog.V(1).Infof("loaded model %q from %q: %d layers, %d nodes", m.Name, path, len(m.layers), len(m.allNodes))
	return nil
}

// LoadModel returns a new model loaded from path. See Model.Load.
func LoadModel(path string) (*Model, error) {
	m := &Model{}
	if err := m.Load(path); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the model to path. The file is first written to a temporary file in the same directory,
// and then renamed.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize model %q", m.Name)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to save model to %q", path)
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to save model to %q", path)
	}
	return nil
}
