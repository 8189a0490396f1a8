package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/unison"
)

const maxStateBody = 16 << 20

// Server exposes a processor over HTTP.
type Server struct {
	proc   *unison.Processor
	router *chi.Mux
	log    *debug.Logger
}

// NewServer creates the API for p.
func NewServer(p *unison.Processor, log *debug.Logger) *Server {
	s := &Server{
		proc:   p,
		router: chi.NewRouter(),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Route("/instances", func(r chi.Router) {
		r.Get("/", s.handleInstances)
		r.Get("/{index}/params", s.handleParams)
		r.Get("/{index}/params/{param}", s.handleGetParam)
		r.Put("/{index}/params/{param}", s.handleSetParam)
	})

	r.Get("/macros", s.handleMacros)
	r.Get("/macros/{name}", s.handleGetMacro)
	r.Put("/macros/{name}", s.handleSetMacro)

	r.Get("/programs", s.handlePrograms)
	r.Get("/programs/current", s.handleCurrentProgram)
	r.Put("/programs/current", s.handleSetProgram)

	r.Get("/state", s.handleGetState)
	r.Put("/state", s.handleSetState)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("control API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s %d %dB %v [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// ParamView is the JSON form of a parameter.
type ParamView struct {
	ID      uint32  `json:"id"`
	Name    string  `json:"name"`
	Unit    string  `json:"unit,omitempty"`
	Value   float64 `json:"value"`
	Plain   float64 `json:"plain"`
	Display string  `json:"display"`
	Steps   int32   `json:"steps,omitempty"`
}

func viewParam(p *param.Parameter) ParamView {
	v := p.GetValue()
	return ParamView{
		ID:      p.ID,
		Name:    p.Name,
		Unit:    p.Unit,
		Value:   v,
		Plain:   p.Denormalize(v),
		Display: p.FormatValue(v),
		Steps:   p.StepCount,
	}
}

// InstanceView is the JSON form of a pool slot.
type InstanceView struct {
	Index   int      `json:"index"`
	Missing bool     `json:"missing"`
	Ready   bool     `json:"ready"`
	Mixed   bool     `json:"mixed"`
	Pan     *float64 `json:"pan,omitempty"`
	Tune    *float64 `json:"tune,omitempty"`
}

// ProgramView is the JSON form of a program.
type ProgramView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// SetRequest is the body of a parameter or macro write. Value is
// normalized for parameters and plain for macros; Display is parsed with
// the parameter's own parser and wins when set.
type SetRequest struct {
	Value   *float64 `json:"value,omitempty"`
	Display string   `json:"display,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"instances": s.proc.NumInstances(),
		"missing":   s.proc.Pool().Missing(),
	}
	if err := s.proc.Ready(); err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.proc.Stats())
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	n := s.proc.NumInstances()
	tuneID := s.proc.Config().TuneParam
	views := make([]InstanceView, n)
	for i := range views {
		in := s.proc.Instance(i)
		v := InstanceView{
			Index:   i,
			Missing: in.Missing(),
			Ready:   in.Ready(),
			Mixed:   s.proc.Mixer().Included(i),
		}
		if i > 0 {
			pan := unison.PanPosition(i, n)
			v.Pan = &pan
		}
		if p := in.Param(tuneID); p != nil {
			tune := p.GetValue()
			v.Tune = &tune
		}
		views[i] = v
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) instance(w http.ResponseWriter, r *http.Request) (*unison.Instance, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	in := s.proc.Instance(i)
	if err != nil || in == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no instance %q", chi.URLParam(r, "index")))
		return nil, false
	}
	if in.Missing() {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("instance %d: %w", i, unison.ErrMissingInstance))
		return nil, false
	}
	return in, true
}

func (s *Server) parameter(w http.ResponseWriter, r *http.Request) (*unison.Instance, *param.Parameter, bool) {
	in, ok := s.instance(w, r)
	if !ok {
		return nil, nil, false
	}
	p, err := lookup(in.Parameters(), chi.URLParam(r, "param"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, nil, false
	}
	return in, p, true
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	in, ok := s.instance(w, r)
	if !ok {
		return
	}
	all := in.Parameters().All()
	views := make([]ParamView, 0, len(all))
	for _, p := range all {
		if !p.HasFlag(param.IsHidden) {
			views = append(views, viewParam(p))
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	if _, p, ok := s.parameter(w, r); ok {
		writeJSON(w, http.StatusOK, viewParam(p))
	}
}

func decodeSet(r *http.Request, p *param.Parameter) (float64, error) {
	var req SetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		return 0, fmt.Errorf("decoding body: %w", err)
	}
	if req.Display != "" {
		return p.ParseValue(req.Display)
	}
	if req.Value == nil {
		return 0, errors.New("body needs value or display")
	}
	return *req.Value, nil
}

// handleSetParam writes through the notifying path, so a master write is
// mirrored and any other write stays a direct edit.
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	in, p, ok := s.parameter(w, r)
	if !ok {
		return
	}
	v, err := decodeSet(r, p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if v < 0 || v > 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("normalized value %g outside [0, 1]", v))
		return
	}
	if in.Index() == 0 {
		err = s.proc.SetMasterParameter(p.ID, v)
	} else {
		in.Parameters().SetNotifying(p.ID, v)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, viewParam(p))
}

func (s *Server) macro(w http.ResponseWriter, r *http.Request) (*param.Parameter, bool) {
	p := lookupMacro(s.proc.Macros(), chi.URLParam(r, "name"))
	if p == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no macro %q", chi.URLParam(r, "name")))
		return nil, false
	}
	return p, true
}

func lookupMacro(r *param.Registry, name string) *param.Parameter {
	switch name {
	case "detune":
		return r.Get(unison.MacroDetune)
	case "pan":
		return r.Get(unison.MacroPan)
	}
	p, _ := lookup(r, name)
	return p
}

func (s *Server) handleMacros(w http.ResponseWriter, r *http.Request) {
	all := s.proc.Macros().All()
	views := make([]ParamView, len(all))
	for i, p := range all {
		views[i] = viewParam(p)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetMacro(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.macro(w, r); ok {
		writeJSON(w, http.StatusOK, viewParam(p))
	}
}

// handleSetMacro takes a plain value: a detune spread of 0 to 0.4 or a
// pan spread of 0 to 1.
func (s *Server) handleSetMacro(w http.ResponseWriter, r *http.Request) {
	p, ok := s.macro(w, r)
	if !ok {
		return
	}
	var req SetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding body: %w", err))
		return
	}
	var plain float64
	switch {
	case req.Display != "":
		v, err := p.ParseValue(req.Display)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		plain = p.Denormalize(v)
	case req.Value != nil:
		plain = *req.Value
	default:
		writeError(w, http.StatusBadRequest, errors.New("body needs value or display"))
		return
	}
	if plain < p.Min || plain > p.Max {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s %g outside [%g, %g]", p.Name, plain, p.Min, p.Max))
		return
	}

	switch p.ID {
	case unison.MacroDetune:
		s.proc.SetDetuneSpread(plain)
	case unison.MacroPan:
		s.proc.SetPanSpread(plain)
	}
	writeJSON(w, http.StatusOK, viewParam(p))
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	views := make([]ProgramView, s.proc.NumPrograms())
	for i := range views {
		views[i] = ProgramView{Index: i, Name: s.proc.ProgramName(i)}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCurrentProgram(w http.ResponseWriter, r *http.Request) {
	cur := s.proc.CurrentProgram()
	writeJSON(w, http.StatusOK, ProgramView{Index: cur, Name: s.proc.ProgramName(cur)})
}

func (s *Server) handleSetProgram(w http.ResponseWriter, r *http.Request) {
	var req ProgramView
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding body: %w", err))
		return
	}
	if req.Index < 0 || req.Index >= s.proc.NumPrograms() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("program %d out of range", req.Index))
		return
	}
	s.proc.SetCurrentProgram(req.Index)
	s.handleCurrentProgram(w, r)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.proc.SaveStateTo(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	if err := s.proc.LoadStateFrom(io.LimitReader(r.Body, maxStateBody)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.handleCurrentProgram(w, r)
}
