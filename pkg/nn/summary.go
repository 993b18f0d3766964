// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
)

// NewTable returns a lipgloss table with the style used by model summaries.
// The alignments are given per column, the last one repeats for the remaining columns.
func NewTable(alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row < 0 {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
}

// Summary returns a table describing every node of the model in execution order: its layer, inputs,
// output dimensions and number of parameters.
//
// Shapes are inferred on the fly, and if that fails the nodes are listed in insertion order without dimensions.
func (m *Model) Summary() string {
	order, dims, err := m.InferShapes()
	if err != nil {
		order = m.allNodes
		dims = nil
	}
	isInput := make(map[TensorLocation]int)
	for i, loc := range m.inputs {
		isInput[loc] = i
	}
	isOutput := make(map[TensorLocation]int)
	for i, loc := range m.outputs {
		isOutput[loc] = i
	}

	table := NewTable(lipgloss.Right, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	table.Headers("#", "Layer", "Kind", "Inputs", "Output", "Parameters")
	for i, node := range order {
		inputs := make([]string, len(node.Inputs))
		for j, loc := range node.Inputs {
			if producer, err := m.Node(loc); err == nil {
				inputs[j] = producer.Layer.Name()
				if len(producer.Outputs) > 1 {
					inputs[j] += fmt.Sprintf(":%d", loc.TensorIndex)
				}
			} else {
				inputs[j] = "?" + loc.String()
			}
		}
		outputs := make([]string, len(node.Outputs))
		for j, loc := range node.Outputs {
			if d, found := dims[loc]; found {
				outputs[j] = fmt.Sprintf("%v", d)
			} else {
				outputs[j] = "?"
			}
			if idx, found := isInput[loc]; found {
				outputs[j] += fmt.Sprintf(" (input #%d)", idx)
			}
			if idx, found := isOutput[loc]; found {
				outputs[j] += fmt.Sprintf(" (output #%d)", idx)
			}
		}
		params := ""
		if pc, ok := node.Layer.(ParameterCounter); ok && node.Index == 0 {
			params = humanize.Comma(int64(pc.NumParameters()))
		}
		table.Row(humanize.Comma(int64(i)), node.Layer.Name(), node.Layer.Kind().String(),
			strings.Join(inputs, ", "), strings.Join(outputs, ", "), params)
	}
	var sb strings.Builder
	if m.Name != "" {
		sb.WriteString(fmt.Sprintf("Model %q\n", m.Name))
	}
	sb.WriteString(table.Render())
	sb.WriteString(fmt.Sprintf("\n%s layers, %s nodes, %s parameters (%s)\n",
		humanize.Comma(int64(len(m.layers))), humanize.Comma(int64(len(m.allNodes))),
		humanize.Comma(int64(m.NumParameters())), humanize.Bytes(uint64(shapes.Make(dtypes.Float32, m.NumParameters()).Memory()))))
	if err != nil {
		sb.WriteString(fmt.Sprintf("shape inference failed: %v\n", err))
	}
	return sb.String()
}
