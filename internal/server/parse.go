package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/gymvox/internal/observe"
	"github.com/MrWong99/gymvox/pkg/grammar"
)

type parseRequest struct {
	Transcript string `json:"transcript"`
}

type batchRequest struct {
	Transcripts []string `json:"transcripts"`
}

type batchResponse struct {
	Results []grammar.Result `json:"results"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.analyze(r.Context(), "http", req.Transcript))
}

func (s *Server) handleParseBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(req.Transcripts) > MaxBatch {
		writeError(w, r, http.StatusBadRequest,
			fmt.Errorf("batch holds %d transcripts, limit is %d", len(req.Transcripts), MaxBatch))
		return
	}

	results := make([]grammar.Result, len(req.Transcripts))

	// Parsing never fails; the group only bounds concurrency.
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, transcript := range req.Transcripts {
		g.Go(func() error {
			results[i] = s.analyze(ctx, "batch", transcript)
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// analyze parses one transcript and records its metrics and span attributes.
func (s *Server) analyze(ctx context.Context, source, transcript string) grammar.Result {
	start := s.now()
	a := s.parser.Analyze(transcript)
	kind := string(a.Command.Kind())
	conf := a.Command.Metadata().Confidence

	s.metrics.RecordParse(ctx, source, kind, a.Rule, conf, s.now().Sub(start))
	observe.AnnotateParse(ctx, kind, a.Rule, conf)
	return a.Result()
}
