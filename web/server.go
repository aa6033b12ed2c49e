package web

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/transfer"
)

// Saver is implemented by hosts that persist the scene after an import.
type Saver interface {
	Save() error
}

var ServerTransfer *transfer.Transfer
var ServerPresets rename.Presets

// transfers touch the host scene and the data directory, one at a time
var transferLock sync.Mutex

func NewRouter(t *transfer.Transfer, presets rename.Presets) http.Handler {
	ServerTransfer = t
	ServerPresets = presets

	r := mux.NewRouter()
	r.HandleFunc("/json/weights", HandlerAjaxWeights).Methods("GET")
	r.HandleFunc("/json/weights/{file}", HandlerAjaxWeightsFile).Methods("GET")
	r.HandleFunc("/json/presets", HandlerAjaxPresets).Methods("GET")
	r.HandleFunc("/dump/weights/{file}", HandlerDumpWeightsFile).Methods("GET")
	r.HandleFunc("/action/export", HandlerActionExport).Methods("POST")
	r.HandleFunc("/action/import/{file}", HandlerActionImport).Methods("POST")
	r.HandleFunc("/help", HandlerHelp).Methods("GET")
	r.HandleFunc("/status", HandlerStatus)

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
}

func StartServer(addr string, t *transfer.Transfer, presets rename.Presets) error {
	h := handlers.LoggingHandler(os.Stdout, NewRouter(t, presets))

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
