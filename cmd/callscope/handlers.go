package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/callscope/callscope"
	"github.com/callscope/callscope/internal/httputil"
)

func (e *environment) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (e *environment) getReport(w http.ResponseWriter, r *http.Request) {
	defer callscope.NewProbe(e.profiler, "GET /report").Finish()

	var buf bytes.Buffer
	if err := e.profiler.WriteReport(&buf); err != nil {
		captureException(r, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (e *environment) getReportJSON(w http.ResponseWriter, r *http.Request) {
	defer callscope.NewProbe(e.profiler, "GET /report.json").Finish()

	b, err := e.profiler.MarshalReport()
	if err != nil {
		captureException(r, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (e *environment) postReset(w http.ResponseWriter, r *http.Request) {
	e.profiler.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// getWork runs a synthetic nested workload so there is something to look at
// in the report.
func (e *environment) getWork(w http.ResponseWriter, r *http.Request) {
	defer callscope.NewProbe(e.profiler, "GET /work").Finish()

	depth := intQueryParam(r, "depth", 3)
	fanout := intQueryParam(r, "fanout", 2)
	if depth < 0 || depth > 8 || fanout < 1 || fanout > 4 {
		http.Error(w, "depth must be in 0..8 and fanout in 1..4", http.StatusBadRequest)
		return
	}

	e.burn(depth, fanout)

	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"depth":  depth,
		"fanout": fanout,
	})
}

func (e *environment) burn(depth, fanout int) {
	defer callscope.NewProbe(e.profiler, fmt.Sprintf("work-depth-%d", depth)).Finish()
	if depth == 0 {
		time.Sleep(time.Millisecond)
		return
	}
	for i := 0; i < fanout; i++ {
		e.burn(depth-1, fanout)
	}
}

func intQueryParam(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func captureException(r *http.Request, err error) {
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
}
