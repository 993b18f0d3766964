// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// compilednn inspects, runs and benchmarks a saved model.
//
// Examples:
//
//	compilednn -model=model.json -summary
//	compilednn -model=model.json -run -image=cat.png
//	compilednn -model=model.json -compare -input=0.1,0.2,0.3
//	compilednn -model=model.json -bench=1000 -settings="vector_width=16,exp_approx"
package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/compilednn/pkg/compiler"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/interpreter"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/gomlx/compilednn/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagModel   = flag.String("model", "", "Path to the saved model (JSON).")
	flagSummary = flag.Bool("summary", false, "Display a table with the nodes of the model.")
	flagRun     = flag.Bool("run", false, "Compile the model, apply it once and print the outputs.")
	flagCompare = flag.Bool("compare", false,
		"Apply the model with the interpreter and the compiled routine, and report the max absolute difference of the outputs.")
	flagBench    = flag.Int("bench", 0, "If > 0, compile the model and time this number of applies.")
	flagSettings = flag.String("settings", "",
		fmt.Sprintf("Compilation settings, e.g.: \"precision=float16,vector_width=4,exp_approx\". "+
			"If empty the value of $%s is used.", compiler.SettingsEnvVar))
	flagImage = flag.String("image", "",
		"Image file fed to the first input, resized to its height and width and fed as 8-bit values.")
	flagInput = xslices.Flag("input", nil,
		"Comma-separated values fed to the first input, repeated cyclically to fill it. Other inputs are zero.",
		func(value string) (float32, error) {
			v, err := strconv.ParseFloat(value, 32)
			return float32(v), err
		})
	flagPrecision = flag.Int("precision", 4, "Number of decimal places when printing outputs.")
)

var titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagModel == "" {
		klog.Fatalf("Missing -model. See 'compilednn -help'.")
	}
	if !*flagSummary && !*flagRun && !*flagCompare && *flagBench <= 0 {
		*flagSummary = true
	}

	model := must.M1(nn.LoadModel(*flagModel))
	if *flagSummary {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Model %q", *flagModel)))
		fmt.Println(model.Summary())
	}
	if !*flagRun && !*flagCompare && *flagBench <= 0 {
		return
	}

	settings := must.M1(loadSettings())
	if *flagImage != "" {
		if err := flagImageInput(model); err != nil {
			klog.Fatalf("Invalid -image=%q: %v", *flagImage, err)
		}
	}
	if model.HasUInt8Inputs() && settings.UInt8Inputs == compiler.UInt8InputsUnspecified {
		settings.UInt8Inputs = compiler.UInt8InputsConvertInRoutine
	}

	cnn := compiler.New()
	defer cnn.Close()
	start := time.Now()
	if err := cnn.Compile(model, settings); err != nil {
		klog.Fatalf("Failed to compile %q: %+v", *flagModel, err)
	}
	fmt.Println(titleStyle.Render("Compilation"))
	table := nn.NewTable(lipgloss.Left, lipgloss.Right)
	table.Headers("", "")
	table.Row("settings", settings.String())
	table.Row("time", time.Since(start).String())
	plan := cnn.Plan()
	table.Row("arena", humanize.Bytes(uint64(plan.ArenaMemory())))
	table.Row("without reuse", humanize.Bytes(uint64(plan.NaiveMemory())))
	table.Row("steps", humanize.Comma(int64(plan.NumSteps)))
	fmt.Println(table.Render())

	for i := range cnn.NumInputs() {
		must.M(feedInput(model, i, must.M1(cnn.Input(i))))
	}

	if *flagCompare {
		// The interpreter reads the inputs before Apply overwrites any of them.
		inputs := make([]*tensors.Tensor, cnn.NumInputs())
		for i := range inputs {
			inputs[i] = must.M1(cnn.Input(i)).Clone()
		}
		outputs := make([]*tensors.Tensor, cnn.NumOutputs())
		must.M(interpreter.Apply(inputs, outputs, model, nil, interpreter.WithUInt8Inputs(settings.UInt8Inputs)))
		must.M(cnn.Apply())
		fmt.Println(titleStyle.Render("Compiled vs interpreter"))
		table := nn.NewTable(lipgloss.Left, lipgloss.Right)
		table.Headers("Output", "Dimensions", "Max |diff|", "At")
		for i, want := range outputs {
			got := must.M1(cnn.Output(i))
			diff, at := xslices.MaxAbsDiff(got.Data(), want.Data())
			table.Row(model.Outputs()[i].String(), fmt.Sprint(got.Dims()), fmt.Sprintf("%g", diff), strconv.Itoa(at))
		}
		fmt.Println(table.Render())
	} else if *flagRun {
		must.M(cnn.Apply())
	}

	if *flagRun {
		fmt.Println(titleStyle.Render("Outputs"))
		for i := range cnn.NumOutputs() {
			output := must.M1(cnn.Output(i))
			fmt.Printf("%s %v (%s):\n%s\n", model.Outputs()[i], output.Dims(),
				humanize.Bytes(uint64(output.Memory())), output.Summary(*flagPrecision))
		}
	}

	if *flagBench > 0 {
		bench(model, cnn, *flagBench)
	}
}

func loadSettings() (compiler.Settings, error) {
	if *flagSettings != "" {
		return compiler.ParseSettings(*flagSettings)
	}
	return compiler.SettingsFromEnv()
}

// flagImageInput flags the first input of the model, where the image is fed, as 8-bit.
func flagImageInput(model *nn.Model) error {
	if model.NumInputs() == 0 {
		return errors.Errorf("model %q has no inputs to feed the image to", model.Name)
	}
	return model.SetInputUInt8(0, true)
}

// feedInput fills the compiled input i from -image or -input, and with zeros otherwise.
func feedInput(model *nn.Model, i int, input *tensors.Tensor) error {
	if i == 0 && *flagImage != "" {
		return feedImage(input)
	}
	if model.IsInputUInt8(i) {
		clear(input.Uint8Data())
		return nil
	}
	data := input.Data()
	if i == 0 && len(*flagInput) > 0 {
		values := *flagInput
		if len(values) != len(data) {
			klog.Warningf("-input has %d values, input #0 has %d elements: values are repeated", len(values), len(data))
		}
		for ii := range data {
			data[ii] = values[ii%len(values)]
		}
		return nil
	}
	clear(data)
	return nil
}

// feedImage loads -image, resizes it to the input's height and width and writes it as 8-bit values.
// The input must be shaped [height, width, channels] (optionally with a leading batch dimension of 1),
// with 1 (gray) or 3 (RGB) channels.
func feedImage(input *tensors.Tensor) error {
	dims := input.Dims()
	if len(dims) == 4 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 3 || (dims[2] != 1 && dims[2] != 3) {
		return errors.Errorf("-image requires the first input to be shaped [height, width, 1 or 3], got %v", input.Dims())
	}
	height, width, channels := dims[0], dims[1], dims[2]
	img, err := imaging.Open(*flagImage)
	if err != nil {
		return errors.Wrapf(err, "failed to read image %q", *flagImage)
	}
	if channels == 1 {
		img = imaging.Grayscale(img)
	}
	resized := imaging.Resize(img, width, height, imaging.Linear)
	data := input.Uint8Data()
	for y := range height {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+4*width]
		for x := range width {
			for c := range channels {
				data[(y*width+x)*channels+c] = row[4*x+c]
			}
		}
	}
	return nil
}

// bench times numRuns applies of the compiled model.
// 8-bit inputs are converted in place, so they are fed again before every run, outside the timing.
func bench(model *nn.Model, cnn *compiler.CompiledNN, numRuns int) {
	bar := progressbar.Default(int64(numRuns), "Benchmarking")
	var elapsed time.Duration
	for range numRuns {
		for i := range cnn.NumInputs() {
			if model.IsInputUInt8(i) {
				must.M(feedInput(model, i, must.M1(cnn.Input(i))))
			}
		}
		start := time.Now()
		must.M(cnn.Apply())
		elapsed += time.Since(start)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Println(titleStyle.Render("Benchmark"))
	table := nn.NewTable(lipgloss.Left, lipgloss.Right)
	table.Headers("", "")
	table.Row("runs", humanize.Comma(int64(numRuns)))
	table.Row("total", elapsed.String())
	table.Row("per run", (elapsed / time.Duration(numRuns)).String())
	table.Row("runs/s", humanize.CommafWithDigits(float64(numRuns)/elapsed.Seconds(), 1))
	fmt.Println(table.Render())
	if klog.V(1).Enabled() {
		klog.Infof("Buffer plan:\n%s", cnn.Plan())
	}
}
