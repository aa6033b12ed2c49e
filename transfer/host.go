package transfer

import (
	"fmt"
	"log"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/skin"
)

// Querier reports the skin binding of a mesh.
// Meshes without binding must return skin.ErrNoSkinCluster.
type Querier interface {
	Query(mesh string) (*skin.Binding, error)
}

type QueryFunc func(mesh string) (*skin.Binding, error)

func (f QueryFunc) Query(mesh string) (*skin.Binding, error) {
	return f(mesh)
}

// Applier binds a fully reconciled model to a mesh in one call.
type Applier interface {
	Apply(mesh string, m *skin.WeightModel) error
}

type ApplyFunc func(mesh string, m *skin.WeightModel) error

func (f ApplyFunc) Apply(mesh string, m *skin.WeightModel) error {
	return f(mesh, m)
}

type Host interface {
	Querier
	Applier
	rename.SceneLookup
}

// HostFuncs assembles a Host from plain functions.
type HostFuncs struct {
	QueryFunc
	ApplyFunc
	rename.LookupFunc
}

type Reporter interface {
	Progress(progress float32, format string, a ...interface{})
}

type logReporter struct{}

func (logReporter) Progress(progress float32, format string, a ...interface{}) {
	log.Printf("[transfer] %3.0f%% %s", progress*100, fmt.Sprintf(format, a...))
}

// LogReporter writes progress to the standard logger.
var LogReporter Reporter = logReporter{}
