package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/padqueue/padqueue/pkg/padfifo"
	"github.com/padqueue/padqueue/pkg/tensor"
)

// ComponentSpec is the YAML/JSON-friendly form of one queue component.
// A shape entry of -1 declares an undetermined dimension.
type ComponentSpec struct {
	DType string `yaml:"dtype" json:"dtype"`
	Shape []int  `yaml:"shape" json:"shape"`
}

// Scenario describes one queue configuration under load.
type Scenario struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Components  []ComponentSpec `yaml:"components" json:"components"`
	BatchSize   int             `yaml:"batch_size" json:"batch_size"`
	Capacity    int             `yaml:"capacity" json:"capacity"`
	// MaxDynamicLen bounds the sizes generated for undetermined dimensions.
	MaxDynamicLen int `yaml:"max_dynamic_len,omitempty" json:"max_dynamic_len,omitempty"`
}

var dtypesByName = map[string]tensor.DType{
	"bool":    tensor.Bool,
	"int8":    tensor.Int8,
	"int16":   tensor.Int16,
	"int32":   tensor.Int32,
	"int64":   tensor.Int64,
	"uint8":   tensor.Uint8,
	"uint16":  tensor.Uint16,
	"uint32":  tensor.Uint32,
	"uint64":  tensor.Uint64,
	"float32": tensor.Float32,
	"float64": tensor.Float64,
	"string":  tensor.String,
}

// defaultScenarios covers the interesting corners: fixed shapes (no
// zero-fill pass), fully dynamic shapes (max-extent padding), and a
// multi-component record mixing both.
func defaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "scalar-int64",
			Description: "Single scalar component, fixed shape, pure slot copies.",
			Components:  []ComponentSpec{{DType: "int64", Shape: []int{}}},
			BatchSize:   32,
			Capacity:    1024,
		},
		{
			Name:        "fixed-vector-float32",
			Description: "Single fixed-length vector component, contiguous copies.",
			Components:  []ComponentSpec{{DType: "float32", Shape: []int{64}}},
			BatchSize:   32,
			Capacity:    1024,
		},
		{
			Name:          "dynamic-vector-float32",
			Description:   "Single variable-length vector component, padded to the batch maximum.",
			Components:    []ComponentSpec{{DType: "float32", Shape: []int{-1}}},
			BatchSize:     32,
			Capacity:      1024,
			MaxDynamicLen: 128,
		},
		{
			Name:        "multi-component",
			Description: "Int64 key plus variable-length float payload plus label string.",
			Components: []ComponentSpec{
				{DType: "int64", Shape: []int{}},
				{DType: "float32", Shape: []int{-1, 4}},
				{DType: "string", Shape: []int{}},
			},
			BatchSize:     16,
			Capacity:      1024,
			MaxDynamicLen: 32,
		},
	}
}

// loadScenarios reads a YAML scenario list, replacing the defaults.
func loadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range scenarios {
		if _, err := scenarios[i].queueSpec(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenarios[i].Name, err)
		}
	}
	return scenarios, nil
}

// queueSpec converts the scenario's component table to queue construction
// inputs.
func (s Scenario) queueSpec() (spec struct {
	DTypes []tensor.DType
	Shapes []tensor.PartialShape
}, err error) {
	if len(s.Components) == 0 {
		return spec, fmt.Errorf("no components declared")
	}
	if s.BatchSize <= 0 {
		return spec, fmt.Errorf("batch_size must be positive, got %d", s.BatchSize)
	}
	for i, c := range s.Components {
		dtype, ok := dtypesByName[c.DType]
		if !ok {
			return spec, fmt.Errorf("component %d: unknown dtype %q", i, c.DType)
		}
		shape := tensor.PartialShape(c.Shape)
		if err := shape.Validate(); err != nil {
			return spec, fmt.Errorf("component %d: %w", i, err)
		}
		spec.DTypes = append(spec.DTypes, dtype)
		spec.Shapes = append(spec.Shapes, shape)
	}
	return spec, nil
}

// newQueue builds a fresh queue for one load run.
func (s Scenario) newQueue() (*padfifo.Queue, error) {
	spec, err := s.queueSpec()
	if err != nil {
		return nil, err
	}
	return padfifo.New(s.Capacity, spec.DTypes, spec.Shapes, padfifo.WithName(s.Name))
}

// makeRecord generates the i-th record for this scenario: fixed dimensions
// are honored as declared, undetermined dimensions cycle through
// 1..MaxDynamicLen so consecutive records need real padding.
func (s Scenario) makeRecord(i int) padfifo.Tuple {
	t := make(padfifo.Tuple, len(s.Components))
	for ci, c := range s.Components {
		shape := make(tensor.Shape, len(c.Shape))
		for d, size := range c.Shape {
			if size == tensor.DynamicDim {
				maxLen := s.MaxDynamicLen
				if maxLen <= 0 {
					maxLen = 16
				}
				shape[d] = 1 + (i+d)%maxLen
			} else {
				shape[d] = size
			}
		}
		t[ci] = fillTensor(dtypesByName[c.DType], shape, i)
	}
	return t
}

// fillTensor builds a tensor whose elements derive from the record index,
// so consumers could verify content if they cared to.
func fillTensor(dtype tensor.DType, shape tensor.Shape, seed int) *tensor.Tensor {
	n := shape.NumElements()
	switch dtype {
	case tensor.Bool:
		values := make([]bool, n)
		for i := range values {
			values[i] = (seed+i)%2 == 0
		}
		return mustTensor(tensor.FromSlice(shape, values))
	case tensor.Int8:
		return mustTensor(tensor.FromSlice(shape, numericValues[int8](n, seed)))
	case tensor.Int16:
		return mustTensor(tensor.FromSlice(shape, numericValues[int16](n, seed)))
	case tensor.Int32:
		return mustTensor(tensor.FromSlice(shape, numericValues[int32](n, seed)))
	case tensor.Int64:
		return mustTensor(tensor.FromSlice(shape, numericValues[int64](n, seed)))
	case tensor.Uint8:
		return mustTensor(tensor.FromSlice(shape, numericValues[uint8](n, seed)))
	case tensor.Uint16:
		return mustTensor(tensor.FromSlice(shape, numericValues[uint16](n, seed)))
	case tensor.Uint32:
		return mustTensor(tensor.FromSlice(shape, numericValues[uint32](n, seed)))
	case tensor.Uint64:
		return mustTensor(tensor.FromSlice(shape, numericValues[uint64](n, seed)))
	case tensor.Float32:
		return mustTensor(tensor.FromSlice(shape, numericValues[float32](n, seed)))
	case tensor.Float64:
		return mustTensor(tensor.FromSlice(shape, numericValues[float64](n, seed)))
	case tensor.String:
		values := make([]string, n)
		for i := range values {
			values[i] = fmt.Sprintf("record-%d-%d", seed, i)
		}
		return mustTensor(tensor.FromSlice(shape, values))
	}
	panic(fmt.Sprintf("unhandled dtype %v in record generator", dtype))
}

type numeric interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

func numericValues[T numeric](n, seed int) []T {
	values := make([]T, n)
	for i := range values {
		values[i] = T(seed + i)
	}
	return values
}

func mustTensor(t *tensor.Tensor, err error) *tensor.Tensor {
	if err != nil {
		panic(err)
	}
	return t
}
