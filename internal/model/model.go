// Package model loads and evaluates the pre-trained per-pollutant
// inference networks. The networks are consumed as opaque regressors:
// an 82-value feature window in, one scalar out.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model evaluates one autoregressive step over a feature window.
type Model interface {
	Predict(window []float64) (float64, error)
}

type layerSpec struct {
	// Weights is laid out [outputs][inputs].
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

type networkSpec struct {
	Inputs int         `json:"inputs"`
	Layers []layerSpec `json:"layers"`
}

// network is a feed-forward evaluator for exported weight files.
type network struct {
	spec networkSpec
}

// Load reads a network weight file exported for one pollutant.
func Load(path string) (Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model weights: %w", err)
	}
	var spec networkSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("decode model weights: %w", err)
	}
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("model %s has no layers", path)
	}
	for i, l := range spec.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return nil, fmt.Errorf("model %s: layer %d has inconsistent shape", path, i)
		}
	}
	last := spec.Layers[len(spec.Layers)-1]
	if len(last.Weights) != 1 {
		return nil, fmt.Errorf("model %s: output layer must be scalar, got %d units", path, len(last.Weights))
	}
	return &network{spec: spec}, nil
}

func (n *network) Predict(window []float64) (float64, error) {
	if n.spec.Inputs > 0 && len(window) != n.spec.Inputs {
		return 0, fmt.Errorf("model expects %d inputs, got %d", n.spec.Inputs, len(window))
	}
	x := window
	for li, l := range n.spec.Layers {
		out := make([]float64, len(l.Weights))
		for u, row := range l.Weights {
			if len(row) != len(x) {
				return 0, fmt.Errorf("layer %d unit %d expects %d inputs, got %d", li, u, len(row), len(x))
			}
			sum := l.Bias[u]
			for i, w := range row {
				sum += w * x[i]
			}
			out[u] = activate(l.Activation, sum)
		}
		x = out
	}
	return x[0], nil
}

func activate(name string, v float64) float64 {
	switch name {
	case "relu":
		return math.Max(0, v)
	case "tanh":
		return math.Tanh(v)
	case "sigmoid":
		return 1 / (1 + math.Exp(-v))
	default: // linear
		return v
	}
}
