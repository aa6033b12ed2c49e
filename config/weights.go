package config

import (
	"math"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// Influence pairs with weight <= epsilon are dropped on capture.
	DefaultPruneEpsilon = 1e-4
	// Allowed deviation of a vertex weight sum from 1.0.
	DefaultWeightTolerance = 1e-5
	// Relative to the project root, same place the original tool used.
	DefaultDataDir = "data/skinWeights"

	WeightsExt   = ".scw"
	InfluenceExt = ".bsw"
)

var pruneEpsilon float64 = DefaultPruneEpsilon
var weightTolerance float64 = DefaultWeightTolerance
var dataDir string = DefaultDataDir

func GetPruneEpsilon() float64 {
	return pruneEpsilon
}

func SetPruneEpsilon(eps float64) error {
	if math.IsNaN(eps) || eps < 0 || eps >= 1 {
		return errors.Errorf("Prune epsilon %v out of range [0,1)", eps)
	}
	pruneEpsilon = eps
	return nil
}

func GetWeightTolerance() float64 {
	return weightTolerance
}

func SetWeightTolerance(tol float64) error {
	if math.IsNaN(tol) || tol <= 0 || tol >= 1 {
		return errors.Errorf("Weight tolerance %v out of range (0,1)", tol)
	}
	weightTolerance = tol
	return nil
}

func GetDataDir() string {
	return dataDir
}

func SetDataDir(dir string) error {
	if dir == "" {
		return errors.New("Empty data directory")
	}
	if filepath.IsAbs(dir) {
		return errors.Errorf("Data directory %q must be relative to the project", dir)
	}
	dataDir = filepath.Clean(dir)
	return nil
}
