package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/skin"
	"github.com/mogaika/transfer_skin_cluster/status"
	"github.com/mogaika/transfer_skin_cluster/transfer"
	"github.com/mogaika/transfer_skin_cluster/webutils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WeightsSummary struct {
	Path       string                 `json:"path"`
	Geometry   string                 `json:"geometry"`
	Cluster    string                 `json:"cluster,omitempty"`
	Attributes skin.ClusterAttributes `json:"attributes"`
	Influences []string               `json:"influences"`
	Vertices   int                    `json:"vertices"`
	Entries    int                    `json:"entries"`
	Unmatched  []rename.Mismatch      `json:"unmatched"`
}

type ImportRequest struct {
	Steps   []rename.Options `json:"steps"`
	Preset  string           `json:"preset"`
	Reverse bool             `json:"reverse"`
	SaveAs  string           `json:"saveAs"`
}

func errorStatus(err error) int {
	var corrupt *skin.CorruptFileError
	var malformed *skin.MalformedInputError
	switch {
	case errors.Is(err, skin.ErrNoSkinCluster):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &corrupt), errors.As(err, &malformed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status.Error("%v", err)
	webutils.WriteErrorStatus(w, errorStatus(err), err)
}

// fileVar returns the {file} route variable, refusing anything but a plain name
func fileVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	file := mux.Vars(r)["file"]
	if file == "" || file == "." || file == ".." || filepath.Base(file) != file || strings.ContainsAny(file, `/\`) {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Errorf("Invalid file name %q", file))
		return "", false
	}
	return file, true
}

func HandlerAjaxWeights(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerTransfer.Project.List(); err != nil {
		writeError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxWeightsFile(w http.ResponseWriter, r *http.Request) {
	file, ok := fileVar(w, r)
	if !ok {
		return
	}

	transferLock.Lock()
	defer transferLock.Unlock()

	m, path, err := ServerTransfer.Load(file)
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteJson(w, &WeightsSummary{
		Path:       path,
		Geometry:   m.Geometry,
		Cluster:    m.Cluster,
		Attributes: m.Attributes,
		Influences: m.Influences,
		Vertices:   len(m.Vertices),
		Entries:    m.EntriesCount(),
		Unmatched:  previewUnmatched(rename.NewResolver(m, ServerTransfer.Host), r),
	})
}

// previewUnmatched fills candidates of unmatched names from the rename
// options in the query (?search=&replace=&prefix=&suffix=) without applying them.
func previewUnmatched(resolver *rename.Resolver, r *http.Request) []rename.Mismatch {
	q := r.URL.Query()
	opts := rename.Options{
		Search:  q.Get("search"),
		Replace: q.Get("replace"),
		Prefix:  q.Get("prefix"),
		Suffix:  q.Get("suffix"),
	}

	unmatched := resolver.Unmatched()
	for _, s := range opts.Strategies() {
		for i, m := range resolver.Preview(s) {
			unmatched[i].Candidates = append(unmatched[i].Candidates, m.Candidates...)
		}
	}
	return unmatched
}

func HandlerAjaxPresets(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, ServerPresets)
}

func HandlerDumpWeightsFile(w http.ResponseWriter, r *http.Request) {
	file, ok := fileVar(w, r)
	if !ok {
		return
	}
	m, _, err := ServerTransfer.Load(file)
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteYamlFile(w, m, strings.TrimSuffix(file, filepath.Ext(file)))
}

func HandlerActionExport(w http.ResponseWriter, r *http.Request) {
	selection := make([]string, 0)
	for _, mesh := range strings.Split(r.FormValue("mesh"), ",") {
		if mesh = strings.TrimSpace(mesh); mesh != "" {
			selection = append(selection, mesh)
		}
	}
	if len(selection) == 0 {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.New("No mesh selected"))
		return
	}

	transferLock.Lock()
	defer transferLock.Unlock()

	var path string
	var err error
	if r.FormValue("exclusive") == "true" {
		path, err = ServerTransfer.ExportExclusive(selection)
	} else {
		path, err = ServerTransfer.Export(selection)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteJson(w, map[string]string{"path": path})
}

func HandlerActionImport(w http.ResponseWriter, r *http.Request) {
	file, ok := fileVar(w, r)
	if !ok {
		return
	}

	var req ImportRequest
	if err := webutils.ReadJson(r, &req); err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}

	if req.SaveAs != "" && filepath.Base(req.SaveAs) != req.SaveAs {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Errorf("Invalid file name %q", req.SaveAs))
		return
	}

	opts := transfer.ImportOptions{Reverse: req.Reverse, SaveRenamedAs: req.SaveAs}
	if req.Preset != "" {
		strategies, err := ServerPresets.Strategies(req.Preset)
		if err != nil {
			webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
		opts.Strategies = append(opts.Strategies, strategies...)
	}
	for _, step := range req.Steps {
		opts.Strategies = append(opts.Strategies, step.Strategies()...)
	}

	transferLock.Lock()
	defer transferLock.Unlock()

	result, err := ServerTransfer.Import(file, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if saver, ok := ServerTransfer.Host.(Saver); ok && result.Applied {
		if err := saver.Save(); err != nil {
			writeError(w, errors.Wrapf(err, "Weights applied but scene not saved"))
			return
		}
	}
	webutils.WriteJson(w, result)
}

func HandlerHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(transfer.CommandsHelp()))
}

func HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		return
	}
	status.NewClient(conn)
}
