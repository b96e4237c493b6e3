package httpapi

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/oriys/newtonfractal/internal/domain"
	"github.com/oriys/newtonfractal/internal/handlers"
	"github.com/oriys/newtonfractal/internal/logging"
	"github.com/oriys/newtonfractal/internal/metrics"
)

// multipartBoundary is the fixed boundary used for every /fractal
// response, matching the wire format's literal contract.
const multipartBoundary = "CROW-BOUNDARY"

// API adapts a handlers.Group onto the HTTP routes RegisterRoutes mounts,
// recording operational and render logs and Prometheus/JSON metrics
// around every call.
type API struct {
	group     *handlers.Group
	defaults  Defaults
	startedAt time.Time
}

// NewAPI returns an API serving group, substituting defaults for any
// optional form field a request omits.
func NewAPI(group *handlers.Group, defaults Defaults) *API {
	return &API{group: group, defaults: defaults, startedAt: time.Now()}
}

// RegisterRoutes mounts every route this package serves onto mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/params", a.handleParams)
	mux.HandleFunc("/fractal", a.handleFractal)
	mux.HandleFunc("/save", a.handleSave)
	mux.HandleFunc("/load", a.handleLoad)
	mux.HandleFunc("/images", a.handleList)
	mux.HandleFunc("/thumbnail", a.handleThumbnail)
	mux.HandleFunc("/health", a.handleHealth)
	mux.Handle("/metrics", metrics.PrometheusHandler())
	mux.Handle("/metrics.json", metrics.Global().JSONHandler())
	mux.Handle("/metrics/timeseries", metrics.Global().TimeSeriesHandler())
}

func writeParseError(w http.ResponseWriter, err error) {
	var pe *ParseError
	if errors.As(err, &pe) {
		http.Error(w, pe.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func handlerLabel(kind domain.HandlerKind) string {
	switch kind {
	case domain.HandlerPipelined:
		return "PIPELINED"
	case domain.HandlerAsync:
		return "ASYNCHRONOUS"
	default:
		return "SYNCHRONOUS"
	}
}

func strategyLabel(s domain.Strategy) string {
	switch s {
	case domain.StrategyNaive:
		return "NAIVE"
	case domain.StrategyBlock:
		return "DYNAMIC_BLOCK"
	case domain.StrategyBlockThreadedIncremental:
		return "DYNAMIC_BLOCK_THREADED_INCREMENTAL"
	default:
		return "DYNAMIC_BLOCK_THREADED"
	}
}

// handleParams serves POST /params: record a new intent, answer with the
// request id that was just recorded.
func (a *API) handleParams(w http.ResponseWriter, r *http.Request) {
	params, err := ParseParams(r, a.defaults)
	if err != nil {
		writeParseError(w, err)
		return
	}

	if err := a.group.HandleParamsRequest(params); err != nil {
		if errors.Is(err, handlers.ErrPipelineDead) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"request_id": params.RequestID})
}

// handleFractal serves POST /fractal: block until a fresher encoded
// image exists, then return it as a two-part multipart body.
func (a *API) handleFractal(w http.ResponseWriter, r *http.Request) {
	params, err := ParseParams(r, a.defaults)
	if err != nil {
		writeParseError(w, err)
		return
	}

	start := time.Now()
	result, err := a.group.HandleFractalRequest(r.Context(), params)
	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		success := false
		metrics.Global().RecordRender(handlerLabel(params.Handler), strategyLabel(params.Strategy), durationMs, false, success)
		logging.Default().Log(&logging.RenderLog{
			SessionID: params.SessionID, RequestID: strconv.FormatInt(params.RequestID, 10), Handler: handlerLabel(params.Handler),
			Strategy: strategyLabel(params.Strategy), DurationMs: durationMs, Success: success, Error: err.Error(),
		})
		if errors.Is(err, handlers.ErrPipelineDead) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	incremental := result.Stats.Strategy == domain.StrategyBlockThreadedIncremental && result.Stats.CopyPixels > 0
	metrics.Global().RecordRender(handlerLabel(params.Handler), strategyLabel(params.Strategy), durationMs, incremental, true)
	logging.Default().Log(&logging.RenderLog{
		SessionID: params.SessionID, RequestID: strconv.FormatInt(params.RequestID, 10), Handler: handlerLabel(params.Handler),
		Strategy: strategyLabel(params.Strategy), DataID: result.DataID, ViewportID: result.ViewportID,
		DurationMs: durationMs, Incremental: incremental, CopiedPixels: result.Stats.CopyPixels,
		FreshPixels: result.Stats.FreshPixels, Success: true,
	})

	if err := writeFractalResponse(w, result); err != nil {
		logging.OpForSession(params.SessionID).Error("writing /fractal response failed", "error", err)
	}
}

func writeFractalResponse(w http.ResponseWriter, result handlers.RenderResult) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(multipartBoundary); err != nil {
		return err
	}
	w.Header().Set("Content-Type", mw.FormDataContentType())
	w.WriteHeader(http.StatusOK)

	imageHeader := textproto.MIMEHeader{}
	imageHeader.Set("Content-Disposition", `form-data; name="fractal_image"; filename="fractal_image.png"`)
	imageHeader.Set("Content-Type", "image/png")
	imagePart, err := mw.CreatePart(imageHeader)
	if err != nil {
		return err
	}
	if _, err := imagePart.Write(result.PNGBytes); err != nil {
		return err
	}

	metadataHeader := textproto.MIMEHeader{}
	metadataHeader.Set("Content-Disposition", `form-data; name="metadata"`)
	metadataHeader.Set("Content-Type", "application/json")
	metadataPart, err := mw.CreatePart(metadataHeader)
	if err != nil {
		return err
	}
	metadata := struct {
		DataID     int64 `json:"data_id"`
		ViewportID int64 `json:"viewport_id"`
	}{DataID: result.DataID, ViewportID: result.ViewportID}
	if err := json.NewEncoder(metadataPart).Encode(metadata); err != nil {
		return err
	}

	return mw.Close()
}

// handleSave serves POST /save: re-render params at save_scale and
// persist the result to disk.
func (a *API) handleSave(w http.ResponseWriter, r *http.Request) {
	params, err := ParseParams(r, a.defaults)
	if err != nil {
		writeParseError(w, err)
		return
	}
	fields, err := ParseSaveFields(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	result := a.group.HandleSaveRequest(handlers.SaveRequest{
		Params: params, Scale: fields.Scale, File: fields.File, Metadata: fields.Metadata,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Success      bool   `json:"success"`
		ErrorMessage string `json:"error_message,omitempty"`
	}{Success: result.Success, ErrorMessage: result.ErrorMessage})
}

// handleLoad serves GET /load?name=...: return the metadata sidecar for
// a previously saved image.
func (a *API) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "httpapi: name must not be empty", http.StatusBadRequest)
		return
	}
	metadata, err := a.group.HandleLoadRequest(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Metadata string `json:"metadata"`
	}{Metadata: metadata})
}

// handleList serves GET /images: list every previously saved name.
func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := a.group.HandleListRequest()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Names []string `json:"names"`
	}{Names: names})
}

// handleThumbnail serves GET /thumbnail?name=...&width=...&height=...: a
// debug/preview endpoint that full-resizes a previously saved image rather
// than waiting on the live render pipeline.
func (a *API) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		http.Error(w, "httpapi: name must not be empty", http.StatusBadRequest)
		return
	}
	width, err := strconv.Atoi(q.Get("width"))
	if err != nil || width <= 0 {
		http.Error(w, "httpapi: width must be a positive integer", http.StatusBadRequest)
		return
	}
	height, err := strconv.Atoi(q.Get("height"))
	if err != nil || height <= 0 {
		http.Error(w, "httpapi: height must be a positive integer", http.StatusBadRequest)
		return
	}

	pngBytes, err := a.group.HandleThumbnailRequest(name, width, height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(pngBytes)
}

// handleHealth serves GET /health: 200 once the handler group exists.
// This reports process liveness only, never per-session health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status    string `json:"status"`
		UptimeSec int64  `json:"uptime_seconds"`
	}{Status: "ok", UptimeSec: int64(time.Since(a.startedAt).Seconds())})
}
