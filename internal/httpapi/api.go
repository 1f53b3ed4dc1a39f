// Package httpapi serves the recipe catalog and schedule comparisons over
// HTTP: JSON endpoints, an HTML page and SVG Gantt charts.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"chefplan/internal/chart"
	"chefplan/internal/eventbus"
	"chefplan/internal/recipe"
	"chefplan/internal/schedule"
	logx "chefplan/pkg/logx"
)

// API holds the handler dependencies. Build an http.Handler with Handler.
type API struct {
	catalog *recipe.Catalog
	bus     eventbus.Bus
	log     logx.Logger
}

// NewAPI wires handlers to catalog. bus may be nil.
func NewAPI(catalog *recipe.Catalog, bus eventbus.Bus, log logx.Logger) *API {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &API{catalog: catalog, bus: bus, log: log}
}

type errorBody struct {
	Error string `json:"error"`
}

type addResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type calculateResponse struct {
	Recipe           string                   `json:"recipe"`
	TotalOptimalTime int                      `json:"total_optimal_time"`
	TotalNormalTime  int                      `json:"total_normal_time"`
	StepsOptimal     []schedule.ScheduledStep `json:"steps_optimal"`
	StepsNormal      []schedule.ScheduledStep `json:"steps_normal"`
	TimeSaved        int                      `json:"time_saved"`
}

// Handler returns the routed handler for cfg. Each call builds a fresh
// rate limiter.
func (a *API) Handler(cfg Config) http.Handler {
	mux := http.NewServeMux()

	add := withAuth(cfg.Token, withRateLimit(cfg.limiter(), withMaxBody(cfg.maxBody(), a.addRecipe)))

	mux.HandleFunc("GET /{$}", a.index)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
	mux.HandleFunc("POST /add-recipe", add)
	mux.HandleFunc("GET /calculate/{id}", a.calculate)
	mux.HandleFunc("GET /recipes/{$}", a.listRecipes)
	mux.HandleFunc("GET /recipes/{id}/{$}", a.getRecipe)
	mux.HandleFunc("GET /recipes/{id}/steps", a.getSteps)
	mux.HandleFunc("GET /chart/{id}", a.chart)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return withRequestLog(a.log, mux)
}

func (a *API) addRecipe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, addResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, addResponse{Error: "read body: " + err.Error()})
		return
	}

	var in recipe.Recipe
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, addResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeJSON(w, http.StatusBadRequest, addResponse{Error: "invalid JSON: trailing data"})
		return
	}

	idx, err := a.catalog.Append(r.Context(), in)
	if err != nil {
		if errors.Is(err, recipe.ErrInvalidRecipe) {
			writeJSON(w, http.StatusBadRequest, addResponse{Error: err.Error()})
			return
		}
		a.log.Error("add recipe failed", logx.String("request_id", RequestID(r.Context())), logx.Err(err))
		writeJSON(w, http.StatusInternalServerError, addResponse{Error: "could not store recipe"})
		return
	}

	name := in.Name
	if got, err := a.catalog.Get(r.Context(), idx); err == nil {
		name = got.Name
	}
	a.publish(eventbus.TypeRecipeAdded, eventbus.RecipeAdded{
		Index:     idx,
		Name:      name,
		Steps:     len(in.Steps),
		RequestID: RequestID(r.Context()),
	})
	writeJSON(w, http.StatusOK, addResponse{Success: true})
}

func (a *API) calculate(w http.ResponseWriter, r *http.Request) {
	idx, rec, ok := a.lookup(w, r)
	if !ok {
		return
	}

	cmp, err := schedule.Compare(rec.Steps)
	ev := eventbus.ScheduleComputed{Index: idx, Name: rec.Name, RequestID: RequestID(r.Context())}
	if err != nil {
		ev.Err = err.Error()
		a.publish(eventbus.TypeScheduleComputed, ev)
		writeScheduleError(w, err)
		return
	}
	ev.Optimal, ev.Normal = cmp.Optimal.Makespan, cmp.Normal.Makespan
	a.publish(eventbus.TypeScheduleComputed, ev)

	writeJSON(w, http.StatusOK, calculateResponse{
		Recipe:           rec.Name,
		TotalOptimalTime: cmp.Optimal.Makespan,
		TotalNormalTime:  cmp.Normal.Makespan,
		StepsOptimal:     cmp.Optimal.Steps,
		StepsNormal:      cmp.Normal.Steps,
		TimeSaved:        cmp.TimeSaved,
	})
}

func (a *API) listRecipes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.List(r.Context()))
}

func (a *API) getRecipe(w http.ResponseWriter, r *http.Request) {
	if _, rec, ok := a.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, rec)
	}
}

func (a *API) getSteps(w http.ResponseWriter, r *http.Request) {
	if _, rec, ok := a.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, rec.Steps)
	}
}

func (a *API) chart(w http.ResponseWriter, r *http.Request) {
	_, rec, ok := a.lookup(w, r)
	if !ok {
		return
	}

	var modes []schedule.Mode
	if raw := strings.TrimSpace(r.URL.Query().Get("mode")); raw != "" {
		m, err := schedule.ParseMode(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		modes = append(modes, m)
	}

	cmp, err := schedule.Compare(rec.Steps)
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.SVG(&buf, rec.Name, chart.Rows(cmp, modes...)); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "render chart"})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

// lookup resolves the {id} path value. Non-numeric and unknown ids are 404.
func (a *API) lookup(w http.ResponseWriter, r *http.Request) (int, recipe.Recipe, bool) {
	idx, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "recipe not found"})
		return 0, recipe.Recipe{}, false
	}
	rec, err := a.catalog.Get(r.Context(), idx)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return 0, recipe.Recipe{}, false
	}
	return idx, rec, true
}

func (a *API) publish(typ string, data any) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(eventbus.Event{Type: typ, Data: data})
}

func writeScheduleError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, schedule.ErrInvalidInput) || errors.Is(err, schedule.ErrInvalidPrerequisite) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
