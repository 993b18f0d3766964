// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

/*
Package polymorphicjson serializes and deserializes Go interface values with encoding/json.

Two discriminator fields ("json_type" and "interface_name") are injected in the JSON object
of every value, which allows the correct concrete type to be instantiated when decoding.

Usage:

 1. The interface embeds JSONIdentifiable.

 2. Each concrete type implements JSONTags() and registers a constructor in an init() function:

    func init() {
    polymorphicjson.Register(func() nn.Layer { return &Dense{} })
    }

 3. Structs hold Wrapper[I] fields (or slices of them), which implement json.Marshaler and json.Unmarshaler.

The concrete types don't need to declare the discriminator fields themselves: MarshalPolymorphic adds them.
*/
package polymorphicjson

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/pkg/errors"
)

// JSONIdentifiable is the constraint interface. Any concrete type must implement
// this method to provide the unique tag for the concrete type and the name
// of the interface it satisfies.
type JSONIdentifiable interface {
	// JSONTags returns the unique name for the concrete type and the unique name for the interface.
	JSONTags() (typeName string, interfaceName string)
}

const (
	typeField      = "json_type"
	interfaceField = "interface_name"
)

var (
	// Global registry. Maps the interface name (e.g., "Layer") to concrete type constructors.
	registry = make(map[string]map[string]func() JSONIdentifiable)

	// Global registry mutex.
	registryMu sync.RWMutex
)

// Register registers a concrete type T by using its JSONTags() method to determine
// its concrete type name and the interface it belongs to.
// T is usually a pointer to a struct that implements JSONIdentifiable.
func Register[T JSONIdentifiable](constructor func() T) {
	registryMu.Lock()
	defer registryMu.Unlock()

	instance := constructor()
	typeName, interfaceName := instance.JSONTags()
	if _, exists := registry[interfaceName]; !exists {
		registry[interfaceName] = make(map[string]func() JSONIdentifiable)
	}
	registry[interfaceName][typeName] = func() JSONIdentifiable {
		return constructor()
	}
}

// RegisteredTypes returns the sorted names of the concrete types registered for the given interface name.
func RegisteredTypes(interfaceName string) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var names []string
	for name := range registry[interfaceName] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TypeWrapper is a minimal struct used only to extract the type tags during the first
// pass of unmarshaling. It includes both the concrete type and the interface name.
type TypeWrapper struct {
	JSONType      string `json:"json_type"`
	InterfaceName string `json:"interface_name"`
}

// Wrap returns a Wrapper holding value.
func Wrap[I JSONIdentifiable](value I) Wrapper[I] {
	return Wrapper[I]{Value: value}
}

// Wrapper is the generic type wrapper that implements the standard
// json.Marshaler and json.Unmarshaler interfaces.
type Wrapper[I JSONIdentifiable] struct {
	Value I
}

// MarshalJSON implements json.Marshaler for the generic wrapper.
func (p Wrapper[I]) MarshalJSON() ([]byte, error) {
	return MarshalPolymorphic(p.Value)
}

// UnmarshalJSON implements json.Unmarshaler for the generic wrapper.
func (p *Wrapper[I]) UnmarshalJSON(b []byte) error {
	return UnmarshalPolymorphic(b, &p.Value)
}

// Get returns the wrapped value.
func (p *Wrapper[I]) Get() I {
	return p.Value
}

// UnmarshalPolymorphic performs the two-pass unmarshaling required for polymorphic types.
// 'I' is the interface type, and target is where the new concrete value is stored.
func UnmarshalPolymorphic[I JSONIdentifiable](b []byte, target *I) error {
	if len(b) == 0 || string(b) == "null" {
		var nilI I
		*target = nilI
		return nil
	}

	// Pass 1: Extract the type tags
	var wrapper TypeWrapper
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return errors.Wrap(err, "polymorphic unmarshal failed to read tags")
	}

	registryMu.RLock()
	typeMap, ok := registry[wrapper.InterfaceName]
	var constructor func() JSONIdentifiable
	if ok {
		constructor, ok = typeMap[wrapper.JSONType]
	}
	registryMu.RUnlock()
	if typeMap == nil {
		return errors.Errorf("polymorphic unmarshal error: interface %q not registered", wrapper.InterfaceName)
	}
	if !ok {
		return errors.Errorf("polymorphic unmarshal error: unknown concrete type %q for interface %q", wrapper.JSONType, wrapper.InterfaceName)
	}

	// Pass 2: Unmarshal the full JSON into the concrete instance.
	instance := constructor()
	if err := json.Unmarshal(b, instance); err != nil {
		return errors.Wrapf(err, "polymorphic unmarshal failed to load data into concrete type %T", instance)
	}
	value, ok := instance.(I)
	if !ok {
		return errors.Errorf("polymorphic unmarshal error: type %T registered as %q doesn't implement the target interface", instance, wrapper.InterfaceName)
	}
	*target = value
	return nil
}

// MarshalPolymorphic marshals the concrete value as a JSON object, and adds to it the
// "json_type" and "interface_name" fields returned by its JSONTags() method.
func MarshalPolymorphic[I JSONIdentifiable](value I) ([]byte, error) {
	if any(value) == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrapf(err, "polymorphic marshal of %T", value)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrapf(err, "polymorphic marshal: %T is not encoded as a JSON object", value)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	typeName, interfaceName := value.JSONTags()
	fields[typeField], _ = json.Marshal(typeName)
	fields[interfaceField], _ = json.Marshal(interfaceName)
	return json.Marshal(fields)
}
