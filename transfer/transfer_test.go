package transfer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/scw"
	"github.com/mogaika/transfer_skin_cluster/skin"
	"github.com/mogaika/transfer_skin_cluster/transfer"
)

type applyCall struct {
	mesh  string
	model *skin.WeightModel
}

type fakeHost struct {
	bindings map[string]*skin.Binding
	scene    map[string]bool
	applied  []applyCall
	applyErr error
}

func (h *fakeHost) Query(mesh string) (*skin.Binding, error) {
	if b, ok := h.bindings[mesh]; ok {
		return b, nil
	}
	return nil, skin.ErrNoSkinCluster
}

func (h *fakeHost) Apply(mesh string, m *skin.WeightModel) error {
	h.applied = append(h.applied, applyCall{mesh: mesh, model: m})
	return h.applyErr
}

func (h *fakeHost) Exists(name string) bool {
	return h.scene[name]
}

func scenarioBinding() *skin.Binding {
	return &skin.Binding{
		Geometry:   "bodyShape",
		Cluster:    "skinCluster1",
		Influences: []string{"jointA", "jointB", "jointC"},
		Vertices: []skin.VertexInfluences{
			{{Name: "jointA", Weight: 0.6}, {Name: "jointB", Weight: 0.4}},
			{{Name: "jointA", Weight: 1.0}},
			{{Name: "jointB", Weight: 0.3}, {Name: "jointC", Weight: 0.69999}, {Name: "noise", Weight: 0.00001}},
		},
	}
}

func newTransfer(t *testing.T, h *fakeHost) *transfer.Transfer {
	tr := transfer.New(h, transfer.NewProject(t.TempDir()))
	tr.Reporter = nil
	return tr
}

func TestExportNoSkinCluster(t *testing.T) {
	h := &fakeHost{bindings: map[string]*skin.Binding{}}
	tr := newTransfer(t, h)

	path, err := tr.Export([]string{"cube"})
	if !errors.Is(err, skin.ErrNoSkinCluster) {
		t.Fatalf("Export err=%v; expected ErrNoSkinCluster", err)
	}
	if path != "" {
		t.Errorf("path %q returned on failure", path)
	}
	if _, err := os.Stat(tr.Project.DataDir()); !os.IsNotExist(err) {
		t.Errorf("data directory created on failed export")
	}
}

func TestExportSelection(t *testing.T) {
	h := &fakeHost{bindings: map[string]*skin.Binding{
		"body": scenarioBinding(),
		"head": scenarioBinding(),
	}}
	tr := newTransfer(t, h)

	if _, err := tr.Export([]string{"body", "head"}); !errors.Is(err, skin.ErrNoSkinCluster) {
		t.Errorf("two skinned meshes: err=%v; expected ErrNoSkinCluster", err)
	}

	path, err := tr.Export([]string{"locator", "body"})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(tr.Project.DataDir(), "bodyShape.scw") {
		t.Errorf("path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	m, err := scw.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.InfluenceIndex("noise") != -1 || len(m.Vertices) != 3 {
		t.Errorf("exported model %+v", m)
	}

	files, err := tr.Project.List()
	if err != nil || !reflect.DeepEqual(files, []string{"bodyShape.scw"}) {
		t.Errorf("List()=%v,%v", files, err)
	}
}

func TestExportMalformedKeepsPreviousFile(t *testing.T) {
	h := &fakeHost{bindings: map[string]*skin.Binding{"body": scenarioBinding()}}
	tr := newTransfer(t, h)

	path, err := tr.Export([]string{"body"})
	if err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	broken := scenarioBinding()
	broken.Vertices[1] = skin.VertexInfluences{{Name: "jointA", Weight: 0}}
	h.bindings["body"] = broken

	_, err = tr.Export([]string{"body"})
	var merr *skin.MalformedInputError
	if !errors.As(err, &merr) || merr.Vertex != 1 {
		t.Fatalf("err=%v; expected MalformedInputError for vertex 1", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Errorf("previous export modified")
	}
	entries, _ := os.ReadDir(tr.Project.DataDir())
	if len(entries) != 1 {
		t.Errorf("unexpected files left: %v", entries)
	}
}

func exportScenario(t *testing.T, h *fakeHost, tr *transfer.Transfer) string {
	h.bindings = map[string]*skin.Binding{"body": scenarioBinding()}
	path, err := tr.Export([]string{"body"})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportRequiresStrategy(t *testing.T) {
	h := &fakeHost{scene: map[string]bool{"bodyShape": true, "jointA": true, "jointB": true, "Joint_C": true}}
	tr := newTransfer(t, h)
	exportScenario(t, h, tr)

	result, err := tr.Import("bodyShape", transfer.ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied || len(h.applied) != 0 {
		t.Fatalf("applied with unresolved names: %+v", result)
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0].Stored != "jointC" {
		t.Fatalf("unmatched %v", result.Unmatched)
	}

	result, err = tr.Import("bodyShape.scw", transfer.ImportOptions{
		Strategies: []rename.Strategy{rename.SearchReplace{Search: "joint", Replace: "Joint_"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Applied || len(h.applied) != 1 {
		t.Fatalf("result %+v, apply calls %d", result, len(h.applied))
	}
	call := h.applied[0]
	if call.mesh != "bodyShape" {
		t.Errorf("applied to %q", call.mesh)
	}
	expected := []string{"jointA", "jointB", "Joint_C"}
	if !reflect.DeepEqual(call.model.Influences, expected) {
		t.Errorf("applied influences %v; expected %v", call.model.Influences, expected)
	}
	if len(call.model.Vertices) != 3 {
		t.Errorf("applied %d vertices", len(call.model.Vertices))
	}
}

func TestImportReverse(t *testing.T) {
	h := &fakeHost{scene: map[string]bool{"bodyShape": true, "jointA": true, "jointB": true, "jointC": true}}
	tr := newTransfer(t, h)
	exportScenario(t, h, tr)

	if _, err := tr.Import("bodyShape", transfer.ImportOptions{Reverse: true}); err != nil {
		t.Fatal(err)
	}
	m := h.applied[0].model
	if !reflect.DeepEqual(m.Influences, []string{"jointC", "jointB", "jointA"}) {
		t.Errorf("influences %v", m.Influences)
	}
	if m.Influences[m.Vertices[1][0].Influence] != "jointA" {
		t.Errorf("vertex 1 bound to %q", m.Influences[m.Vertices[1][0].Influence])
	}
}

func TestImportCorruptFile(t *testing.T) {
	h := &fakeHost{scene: map[string]bool{"bodyShape": true, "jointA": true}}
	tr := newTransfer(t, h)

	path := filepath.Join(tr.Project.DataDir(), "broken.scw")
	data := "scw 1\ngeometry \"bodyShape\"\ninfluences 1\n\"jointA\"\nvertices 1\n1 3 1\n"
	if err := transfer.WriteFileAtomic(path, []byte(data)); err != nil {
		t.Fatal(err)
	}

	_, err := tr.Import("broken", transfer.ImportOptions{})
	var cerr *skin.CorruptFileError
	if !errors.As(err, &cerr) {
		t.Fatalf("err=%v; expected CorruptFileError", err)
	}
	if len(h.applied) != 0 {
		t.Errorf("host called for corrupt file")
	}
}

func TestImportHostError(t *testing.T) {
	cause := errors.New("already bound")
	h := &fakeHost{scene: map[string]bool{"bodyShape": true, "jointA": true, "jointB": true, "jointC": true}, applyErr: cause}
	tr := newTransfer(t, h)
	exportScenario(t, h, tr)

	_, err := tr.Import("bodyShape", transfer.ImportOptions{})
	var herr *skin.HostBindError
	if !errors.As(err, &herr) || herr.Mesh != "bodyShape" || !errors.Is(err, cause) {
		t.Errorf("err=%v; expected HostBindError", err)
	}
	if len(h.applied) != 1 {
		t.Errorf("apply called %d times", len(h.applied))
	}
}

func TestImportSaveRenamed(t *testing.T) {
	h := &fakeHost{scene: map[string]bool{"bodyShape": true, "jointA": true, "jointB": true, "Joint_C": true}}
	tr := newTransfer(t, h)
	source := exportScenario(t, h, tr)
	original, _ := os.ReadFile(source)

	opts := transfer.ImportOptions{
		Strategies:    []rename.Strategy{rename.DirectAssign{"jointC": "Joint_C"}},
		SaveRenamedAs: "bodyShape",
	}
	if _, err := tr.Import("bodyShape", opts); err == nil {
		t.Fatalf("overwriting the source file accepted")
	}
	if len(h.applied) != 0 {
		t.Fatalf("applied after failed save")
	}

	opts.SaveRenamedAs = "bodyShape_rig"
	result, err := tr.Import("bodyShape", opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.SavedAs != filepath.Join(tr.Project.DataDir(), "bodyShape_rig.scw") {
		t.Errorf("saved as %q", result.SavedAs)
	}

	m, _, err := tr.Load("bodyShape_rig")
	if err != nil {
		t.Fatal(err)
	}
	if m.Influences[2] != "Joint_C" {
		t.Errorf("saved influences %v", m.Influences)
	}
	if after, _ := os.ReadFile(source); !bytes.Equal(after, original) {
		t.Errorf("source file modified")
	}
}

func TestExportExclusive(t *testing.T) {
	h := &fakeHost{}
	tr := newTransfer(t, h)
	h.bindings = map[string]*skin.Binding{"body": scenarioBinding()}

	dir, err := tr.ExportExclusive([]string{"body"})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != "skinCluster1" {
		t.Errorf("dir %q", dir)
	}
	for _, infl := range []string{"jointA", "jointB", "jointC"} {
		data, err := os.ReadFile(filepath.Join(dir, infl+".bsw"))
		if err != nil {
			t.Fatal(err)
		}
		if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 3 {
			t.Errorf("%s: %d lines", infl, len(lines))
		}
	}
}

var fileNameTests = []struct {
	in, out string
}{
	{"bodyShape", "bodyShape"},
	{"|root|bodyShape", "root_bodyShape"},
	{"ns:body", "ns_body"},
	{"../evil", "evil"},
	{"", "unnamed"},
}

func TestFileName(t *testing.T) {
	for _, test := range fileNameTests {
		if got := transfer.FileName(test.in); got != test.out {
			t.Errorf("FileName(%q)=%q; expected %q", test.in, got, test.out)
		}
	}
}

func TestResolve(t *testing.T) {
	p := transfer.NewProject("/proj")
	if got := p.Resolve("body"); got != filepath.Join("/proj", "data", "skinWeights", "body.scw") {
		t.Errorf("Resolve(body)=%q", got)
	}
	if got := p.Resolve("other/body.scw"); got != "other/body.scw" {
		t.Errorf("Resolve(other/body.scw)=%q", got)
	}
}

func TestWriteFileAtomicFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub")
	if err := os.Mkdir(target, 0777); err != nil {
		t.Fatal(err)
	}
	// renaming a file over a directory fails
	if err := transfer.WriteFileAtomic(target, []byte("x")); err == nil {
		t.Fatalf("write over directory succeeded")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary file left behind: %v", entries)
	}
}

func TestHostFuncs(t *testing.T) {
	var host transfer.Host = transfer.HostFuncs{
		QueryFunc:  func(mesh string) (*skin.Binding, error) { return nil, skin.ErrNoSkinCluster },
		ApplyFunc:  func(mesh string, m *skin.WeightModel) error { return nil },
		LookupFunc: func(name string) bool { return name == "a" },
	}
	if !host.Exists("a") || host.Exists("b") {
		t.Errorf("lookup not forwarded")
	}
	if _, err := host.Query("x"); err != skin.ErrNoSkinCluster {
		t.Errorf("query not forwarded")
	}
}

func TestCommandsHelp(t *testing.T) {
	if !strings.Contains(transfer.CommandsHelp(), "-mode import") {
		t.Errorf("help text misses import mode")
	}
}
