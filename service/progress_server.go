package service

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// ProgressServer exposes the ledger documents over HTTP so dashboards can
// poll a run's progress while it executes. It only ever reads the files;
// a read racing a ledger write may observe the previous state, which is
// acceptable for display purposes.
type ProgressServer struct {
	ctx    context.Context
	server *http.Server

	processPath string
	recordsPath string
}

func NewProgressServer(processPath, recordsPath string) *ProgressServer {
	return &ProgressServer{
		processPath: processPath,
		recordsPath: recordsPath,
	}
}

func (p *ProgressServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/progress", p.Handle)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	server := &http.Server{
		Handler: c.Handler(hdlr),
		Addr:    addr,
	}
	p.server = server
	p.ctx = ctx
	return p.server.ListenAndServe()
}

func (p *ProgressServer) Shutdown() error {
	return p.server.Shutdown(p.ctx)
}

func (p *ProgressServer) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := struct {
		Process json.RawMessage `json:"process"`
		Records json.RawMessage `json:"records"`
	}{
		Process: readDocument(p.processPath),
		Records: readDocument(p.recordsPath),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("error writing progress response", "err", err)
	}
}

// readDocument returns the raw JSON document at path, or an empty object
// when the file is missing or holds a torn write.
func readDocument(path string) json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		return json.RawMessage("{}")
	}
	if !json.Valid(data) {
		log.Warn("progress document is not valid JSON, serving empty object", "path", path)
		return json.RawMessage("{}")
	}
	return json.RawMessage(data)
}
