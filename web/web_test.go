package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/skin"
	"github.com/mogaika/transfer_skin_cluster/transfer"
	"github.com/mogaika/transfer_skin_cluster/web"
)

type testHost struct {
	transfer.HostFuncs
	applied []*skin.WeightModel
}

func newServer(t *testing.T) (*httptest.Server, *testHost) {
	scene := map[string]bool{"bodyShape": true, "jointA": true, "jointB": true, "Joint_C": true}
	h := &testHost{}
	h.QueryFunc = func(mesh string) (*skin.Binding, error) {
		if mesh != "bodyShape" {
			return nil, skin.ErrNoSkinCluster
		}
		return &skin.Binding{
			Geometry:   "bodyShape",
			Cluster:    "skinCluster1",
			Influences: []string{"jointA", "jointB", "jointC"},
			Vertices: []skin.VertexInfluences{
				{{Name: "jointA", Weight: 0.6}, {Name: "jointB", Weight: 0.4}},
				{{Name: "jointA", Weight: 1.0}},
				{{Name: "jointB", Weight: 0.3}, {Name: "jointC", Weight: 0.7}},
			},
		}, nil
	}
	h.ApplyFunc = func(mesh string, m *skin.WeightModel) error {
		h.applied = append(h.applied, m)
		return nil
	}
	h.LookupFunc = func(name string) bool { return scene[name] }

	tr := transfer.New(h, transfer.NewProject(t.TempDir()))
	tr.Reporter = nil
	presets := rename.Presets{
		"rig": {{Search: "jointC", Replace: "Joint_C"}},
	}
	server := httptest.NewServer(web.NewRouter(tr, presets))
	t.Cleanup(server.Close)
	return server, h
}

func postImport(t *testing.T, server *httptest.Server, file string, req *web.ImportRequest) (*http.Response, *transfer.ImportResult) {
	body, _ := json.Marshal(req)
	resp, err := http.Post(server.URL+"/action/import/"+file, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST import: %v", err)
	}
	defer resp.Body.Close()
	var result transfer.ImportResult
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Decode import result: %v", err)
		}
	}
	return resp, &result
}

func getJson(t *testing.T, url string, v interface{}) int {
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %v: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("Decode %v: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestExportAndImport(t *testing.T) {
	server, h := newServer(t)

	resp, err := http.PostForm(server.URL+"/action/export", url.Values{"mesh": {"cube, bodyShape"}})
	if err != nil {
		t.Fatalf("POST export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Export status %v", resp.Status)
	}

	var files []string
	if code := getJson(t, server.URL+"/json/weights", &files); code != http.StatusOK {
		t.Fatalf("List status %v", code)
	}
	if len(files) != 1 || files[0] != "bodyShape.scw" {
		t.Fatalf("Files %v", files)
	}

	var summary web.WeightsSummary
	if code := getJson(t, server.URL+"/json/weights/bodyShape.scw", &summary); code != http.StatusOK {
		t.Fatalf("Summary status %v", code)
	}
	if summary.Vertices != 3 || len(summary.Unmatched) != 1 || summary.Unmatched[0].Stored != "jointC" {
		t.Errorf("Summary %+v", summary)
	}

	var preview web.WeightsSummary
	if code := getJson(t, server.URL+"/json/weights/bodyShape.scw?search=jointC&replace=Joint_C", &preview); code != http.StatusOK {
		t.Fatalf("Preview status %v", code)
	}
	if len(preview.Unmatched) != 1 || len(preview.Unmatched[0].Candidates) != 1 || preview.Unmatched[0].Candidates[0] != "Joint_C" {
		t.Errorf("Preview unmatched %+v", preview.Unmatched)
	}
	if len(h.applied) != 0 {
		t.Fatalf("Host applied by preview")
	}

	resp, result := postImport(t, server, "bodyShape", &web.ImportRequest{})
	if resp.StatusCode != http.StatusOK || result.Applied || len(result.Unmatched) != 1 {
		t.Fatalf("Import without strategy: %v %+v", resp.Status, result)
	}
	if len(h.applied) != 0 {
		t.Fatalf("Host applied before names were resolved")
	}

	resp, result = postImport(t, server, "bodyShape", &web.ImportRequest{
		Steps: []rename.Options{{Search: "jointC", Replace: "Joint_C"}},
	})
	if resp.StatusCode != http.StatusOK || !result.Applied {
		t.Fatalf("Import with strategy: %v %+v", resp.Status, result)
	}
	if len(h.applied) != 1 || h.applied[0].Influences[2] != "Joint_C" {
		t.Errorf("Applied %v", h.applied)
	}

	resp, result = postImport(t, server, "bodyShape", &web.ImportRequest{Preset: "rig", Reverse: true})
	if resp.StatusCode != http.StatusOK || !result.Applied {
		t.Fatalf("Import with preset: %v %+v", resp.Status, result)
	}
	if h.applied[1].Influences[0] != "Joint_C" {
		t.Errorf("Reverse import influences %v", h.applied[1].Influences)
	}
}

func TestErrors(t *testing.T) {
	server, _ := newServer(t)

	resp, err := http.PostForm(server.URL+"/action/export", url.Values{"mesh": {"cube"}})
	if err != nil {
		t.Fatalf("POST export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Export of unbound mesh status %v", resp.Status)
	}

	resp, err = http.PostForm(server.URL+"/action/export", url.Values{})
	if err != nil {
		t.Fatalf("POST export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Export without selection status %v", resp.Status)
	}

	var summary web.WeightsSummary
	if code := getJson(t, server.URL+"/json/weights/missing", &summary); code != http.StatusNotFound {
		t.Errorf("Missing file status %v", code)
	}
	if code := getJson(t, server.URL+`/json/weights/bad%5Cname`, &summary); code != http.StatusBadRequest {
		t.Errorf("Invalid file name status %v", code)
	}

	resp, _ = postImport(t, server, "missing", &web.ImportRequest{Preset: "unknown"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Unknown preset status %v", resp.Status)
	}
	resp, _ = postImport(t, server, "missing", &web.ImportRequest{SaveAs: "../outside"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("SaveAs outside data dir status %v", resp.Status)
	}
}

func TestDumpAndHelp(t *testing.T) {
	server, _ := newServer(t)

	resp, err := http.PostForm(server.URL+"/action/export", url.Values{"mesh": {"bodyShape"}})
	if err != nil {
		t.Fatalf("POST export: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/dump/weights/bodyShape")
	if err != nil {
		t.Fatalf("GET dump: %v", err)
	}
	defer resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "bodyShape.yaml") {
		t.Errorf("Content-Disposition %q", cd)
	}
	var m skin.WeightModel
	if err := yaml.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("Decode yaml: %v", err)
	}
	if m.Geometry != "bodyShape" || len(m.Vertices) != 3 {
		t.Errorf("Dumped model %+v", m)
	}

	resp, err = http.Get(server.URL + "/help")
	if err != nil {
		t.Fatalf("GET help: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "import") {
		t.Errorf("Help %q", buf.String())
	}
}
