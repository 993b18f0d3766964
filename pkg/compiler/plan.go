// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/gomlx/compilednn/pkg/support/sets"
	"github.com/gomlx/compilednn/pkg/support/xslices"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// ArenaAlignment is the alignment, in number of float32 values, of the buffers placed in the arena.
const ArenaAlignment = 16

//go:generate go tool enumer -type=StorageKind -trimprefix=Storage -transform=snake -output=gen_storagekind_enumer.go plan.go

// StorageKind is where the values of a buffer are stored.
type StorageKind int

const (
	// StorageArena is a region of the arena shared by all intermediate values.
	StorageArena StorageKind = iota

	// StorageInput is the bound input tensor Index.
	StorageInput

	// StorageOutput is the bound output tensor Index.
	StorageOutput
)

// Buffer is the storage shared by a group of tensor values: the output of a node plus the outputs of
// the aliasing nodes (e.g.: Reshape) re-viewing it.
type Buffer struct {
	Kind StorageKind

	// Index of the bound tensor, for StorageInput and StorageOutput.
	Index int

	// Offset and Size (aligned) in the arena, in number of float32 values, for StorageArena.
	Offset, Size int

	// Start and End are the first and last steps (inclusive) in which the buffer is used.
	Start, End int

	// Values stored in the buffer. The first one is the value produced by a non-aliasing node.
	Values []nn.TensorLocation
}

// overlaps returns whether the two arena buffers are simultaneously live and share memory.
func (b *Buffer) overlaps(other *Buffer) bool {
	if b.Kind != StorageArena || other.Kind != StorageArena || b.Size == 0 || other.Size == 0 {
		return false
	}
	live := b.Start <= other.End && other.Start <= b.End
	shared := b.Offset < other.Offset+other.Size && other.Offset < b.Offset+b.Size
	return live && shared
}

// BufferPlan assigns storage to every tensor value of a model.
//
// Steps are numbered as the routine executes them: step 0 converts 8-bit inputs, node i of the execution
// order is step i+1, and the last step copies outputs that need it.
type BufferPlan struct {
	// ArenaSize is the number of float32 values of the arena.
	ArenaSize int

	// PeakSize is the largest number of arena values live at the same time.
	PeakSize int

	// NaiveSize is the number of arena values needed without reuse of buffers.
	NaiveSize int

	// NumSteps is the number of steps, including the input conversion and output copy steps.
	NumSteps int

	buffers []*Buffer
	values  map[nn.TensorLocation]*Buffer
}

// Buffers returns all buffers of the plan.
func (p *BufferPlan) Buffers() []*Buffer { return slices.Clone(p.buffers) }

// Buffer returns the buffer storing the value at loc, or nil if the value is not part of the plan.
func (p *BufferPlan) Buffer(loc nn.TensorLocation) *Buffer { return p.values[loc] }

// String implements fmt.Stringer.
func (p *BufferPlan) String() string {
	var sb strings.Builder
	counts := make(map[StorageKind]int)
	for _, b := range p.buffers {
		counts[b.Kind]++
	}
	fmt.Fprintf(&sb, "buffer plan: %d steps, %d buffers (", p.NumSteps, len(p.buffers))
	for i, kind := range StorageKindValues() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d %s", counts[kind], kind)
	}
	sb.WriteString(")")
	fmt.Fprintf(&sb, ", arena %s, peak %s, without reuse %s",
		humanize.Bytes(uint64(p.ArenaMemory())), humanize.Bytes(uint64(p.PeakMemory())), humanize.Bytes(uint64(p.NaiveMemory())))
	return sb.String()
}

// ArenaMemory returns the number of bytes of the arena.
func (p *BufferPlan) ArenaMemory() uintptr { return shapes.Make(dtypes.Float32, p.ArenaSize).Memory() }

// PeakMemory returns the number of bytes of the largest set of arena buffers alive at the same step.
func (p *BufferPlan) PeakMemory() uintptr { return shapes.Make(dtypes.Float32, p.PeakSize).Memory() }

// NaiveMemory returns the number of bytes the arena would take without buffer reuse.
func (p *BufferPlan) NaiveMemory() uintptr { return shapes.Make(dtypes.Float32, p.NaiveSize).Memory() }

// validate checks that no two simultaneously live buffers of the arena share memory, and that the arena fits
// all buffers. It panics otherwise.
func (p *BufferPlan) validate() {
	for i, b := range p.buffers {
		if b.Kind == StorageArena && b.Offset+b.Size > p.ArenaSize {
			exceptions.Panicf("buffer plan: buffer #%d [%d, %d) beyond the arena of size %d", i, b.Offset, b.Offset+b.Size, p.ArenaSize)
		}
		for j, other := range p.buffers[i+1:] {
			if b.overlaps(other) {
				exceptions.Panicf("buffer plan: buffers #%d and #%d overlap", i, i+1+j)
			}
		}
	}
}

// PlanBuffers assigns storage to every tensor value of the model:
//
//   - Outputs of aliasing layers share the buffer of their input, unless they are graph outputs.
//   - Buffers holding graph inputs and graph outputs are the bound input and output tensors.
//   - All other buffers are placed in a single arena, reusing the memory of buffers no longer needed,
//     unless disableReuse is set.
//
// order and dims are the execution order and dimensions returned by nn.Model.InferShapes.
func PlanBuffers(model *nn.Model, order []*nn.Node, dims nn.Dimensions, disableReuse bool) *BufferPlan {
	planner := &bufferPlanner{
		model:  model,
		dims:   dims,
		parent: make(map[nn.TensorLocation]nn.TensorLocation),
		step:   make(map[nn.TensorLocation]int),
	}
	p := planner.plan(order, disableReuse)
	p.validate()
	return p
}

type bufferPlanner struct {
	model  *nn.Model
	dims   nn.Dimensions
	parent map[nn.TensorLocation]nn.TensorLocation // Union-find of aliased values.
	step   map[nn.TensorLocation]int               // Step producing each value.
}

// root returns the value that represents the group of loc.
func (bp *bufferPlanner) root(loc nn.TensorLocation) nn.TensorLocation {
	for {
		parent, found := bp.parent[loc]
		if !found || parent == loc {
			return loc
		}
		// Path halving.
		if grand, found := bp.parent[parent]; found {
			bp.parent[loc] = grand
		}
		loc = parent
	}
}

func (bp *bufferPlanner) plan(order []*nn.Node, disableReuse bool) *BufferPlan {
	numSteps := len(order) + 2
	copyStep := numSteps - 1
	graphOutputs := sets.MakeWith(bp.model.Outputs()...)

	// Group values: outputs of aliasing nodes join the group of their input.
	var roots []nn.TensorLocation
	for i, node := range order {
		for _, loc := range node.Outputs {
			bp.step[loc] = i + 1
			if node.Layer.Kind() == nn.KindInput {
				bp.step[loc] = 0
			}
		}
		if aliasing, ok := node.Layer.(nn.Aliasing); ok && aliasing.AliasesInput() &&
			len(node.Inputs) == 1 && len(node.Outputs) == 1 && !graphOutputs.Has(node.Outputs[0]) &&
			shapes.Size(bp.dims[node.Inputs[0]]) == shapes.Size(bp.dims[node.Outputs[0]]) {
			bp.parent[node.Outputs[0]] = bp.root(node.Inputs[0])
			continue
		}
		roots = append(roots, node.Outputs...)
	}

	buffers := make(map[nn.TensorLocation]*Buffer, len(roots))
	p := &BufferPlan{NumSteps: numSteps, values: make(map[nn.TensorLocation]*Buffer)}
	for _, root := range roots {
		b := &Buffer{Kind: StorageArena, Start: bp.step[root], End: bp.step[root]}
		buffers[root] = b
		p.buffers = append(p.buffers, b)
	}
	for _, node := range order {
		for _, loc := range node.Outputs {
			b := buffers[bp.root(loc)]
			b.Values = append(b.Values, loc)
			b.Size = max(b.Size, shapes.Size(bp.dims[loc]))
			p.values[loc] = b
		}
	}

	// Liveness: a buffer lives until the last step reading any of its values.
	for i, node := range order {
		for _, loc := range node.Inputs {
			b := p.values[loc]
			b.End = max(b.End, i+1)
		}
	}

	// Pin bound tensors. Outputs that are graph inputs, or repeated, are copied by the last step.
	for i, loc := range bp.model.Inputs() {
		b := p.values[loc]
		b.Kind, b.Index = StorageInput, i
	}
	for i, loc := range bp.model.Outputs() {
		b := p.values[loc]
		if b.Kind == StorageArena {
			b.Kind, b.Index = StorageOutput, i
		} else {
			b.End = copyStep
		}
	}

	bp.allocate(p, disableReuse)
	return p
}

// allocate places the arena buffers with a linear scan over the steps: at every step the buffers
// starting at it are allocated first, then the buffers whose last use is the step are released.
func (bp *bufferPlanner) allocate(p *BufferPlan, disableReuse bool) {
	starting := make([][]*Buffer, p.NumSteps)
	ending := make([][]*Buffer, p.NumSteps)
	for _, b := range p.buffers {
		if b.Kind != StorageArena {
			continue
		}
		b.Size = xslices.AlignUp(b.Size, ArenaAlignment)
		p.NaiveSize += b.Size
		starting[b.Start] = append(starting[b.Start], b)
		ending[b.End] = append(ending[b.End], b)
	}

	var arena freeList
	live := 0
	for step := range p.NumSteps {
		for _, b := range starting[step] {
			b.Offset = arena.allocate(b.Size)
			live += b.Size
		}
		p.PeakSize = max(p.PeakSize, live)
		if disableReuse {
			continue
		}
		for _, b := range ending[step] {
			arena.release(b.Offset, b.Size)
			live -= b.Size
		}
	}
	p.ArenaSize = arena.size
}

// block is a free region of the arena.
type block struct {
	offset, size int
}

// freeList manages the free regions of an arena that grows as needed.
type freeList struct {
	free []block // Sorted by offset, never adjacent.
	size int
}

// allocate returns the offset of the first free region that fits size, growing the arena if none does.
func (fl *freeList) allocate(size int) int {
	if size == 0 {
		return 0
	}
	for i, b := range fl.free {
		if b.size < size {
			continue
		}
		if b.size == size {
			fl.free = slices.Delete(fl.free, i, i+1)
		} else {
			fl.free[i] = block{offset: b.offset + size, size: b.size - size}
		}
		return b.offset
	}
	// Extend the last free region if it is at the end of the arena.
	if n := len(fl.free); n > 0 && fl.free[n-1].offset+fl.free[n-1].size == fl.size {
		offset := fl.free[n-1].offset
		fl.free = fl.free[:n-1]
		fl.size = offset + size
		return offset
	}
	offset := fl.size
	fl.size += size
	return offset
}

// release returns a region to the free list, merging it with adjacent free regions.
func (fl *freeList) release(offset, size int) {
	if size == 0 {
		return
	}
	pos, _ := slices.BinarySearchFunc(fl.free, offset, func(b block, offset int) int { return b.offset - offset })
	fl.free = slices.Insert(fl.free, pos, block{offset: offset, size: size})
	if pos+1 < len(fl.free) && fl.free[pos].offset+fl.free[pos].size == fl.free[pos+1].offset {
		fl.free[pos].size += fl.free[pos+1].size
		fl.free = slices.Delete(fl.free, pos+1, pos+2)
	}
	if pos > 0 && fl.free[pos-1].offset+fl.free[pos-1].size == fl.free[pos].offset {
		fl.free[pos-1].size += fl.free[pos].size
		fl.free = slices.Delete(fl.free, pos, pos+1)
	}
}
