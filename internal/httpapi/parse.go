// Package httpapi exposes internal/handlers.Group and internal/save.Store
// over HTTP: form parsing for /params and /fractal, multipart assembly for
// /fractal's response, and the JSON bodies for /save, /load, and /images.
package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/oriys/newtonfractal/internal/domain"
)

// ParseError is returned for any malformed form field; the route layer
// maps it to HTTP 400.
type ParseError struct {
	Field string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("httpapi: %s: %s", e.Field, e.Msg)
}

func badField(field, msg string) error { return &ParseError{Field: field, Msg: msg} }

// Defaults supplies the value substituted for each optional form field
// when a request omits it, normally sourced from config.RenderDefaultsConfig.
type Defaults struct {
	Strategy   string
	Handler    string
	PNGEncoder string
	Precision  string
}

// DefaultDefaults mirrors config.DefaultConfig's render defaults, for
// callers (tests, ad-hoc tools) that don't have a loaded Config handy.
func DefaultDefaults() Defaults {
	return Defaults{
		Strategy:   "DYNAMIC_BLOCK_THREADED_INCREMENTAL",
		Handler:    "SYNCHRONOUS",
		PNGEncoder: "A",
		Precision:  "SINGLE",
	}
}

// ParseParams parses the common form parameters shared by /params and
// /fractal into a domain.Params. It does not look at save-only fields.
// Fields the request omits fall back to defaults.
func ParseParams(r *http.Request, defaults Defaults) (domain.Params, error) {
	if err := r.ParseForm(); err != nil {
		return domain.Params{}, badField("form", "could not parse request body")
	}

	var p domain.Params
	var err error

	if p.SessionID = strings.TrimSpace(r.FormValue("session_id")); p.SessionID == "" {
		return domain.Params{}, badField("session_id", "must not be empty")
	}

	if p.RequestID, err = requiredPositiveInt64(r, "request_id"); err != nil {
		return domain.Params{}, err
	}
	if p.LastDataID, err = requiredNonNegativeInt64(r, "last_data_id"); err != nil {
		return domain.Params{}, err
	}
	if p.LastViewportID, err = requiredNonNegativeInt64(r, "last_viewport_id"); err != nil {
		return domain.Params{}, err
	}

	if p.IMin, err = requiredFiniteFloat(r, "i_min"); err != nil {
		return domain.Params{}, err
	}
	if p.RMin, err = requiredFiniteFloat(r, "r_min"); err != nil {
		return domain.Params{}, err
	}
	if p.RRange, err = requiredFiniteFloat(r, "r_range"); err != nil {
		return domain.Params{}, err
	}
	if p.RRange <= 0 {
		return domain.Params{}, badField("r_range", "must be > 0")
	}

	if p.Width, err = requiredPositiveInt(r, "width"); err != nil {
		return domain.Params{}, err
	}
	if p.Height, err = requiredPositiveInt(r, "height"); err != nil {
		return domain.Params{}, err
	}
	if p.MaxIters, err = requiredPositiveInt(r, "max_iters"); err != nil {
		return domain.Params{}, err
	}

	if p.Zeros, err = parseZeros(r); err != nil {
		return domain.Params{}, err
	}

	if p.Precision, err = parsePrecision(r, defaults.Precision); err != nil {
		return domain.Params{}, err
	}
	if p.Strategy, err = parseStrategy(r, defaults.Strategy); err != nil {
		return domain.Params{}, err
	}
	if p.PNGEncoder, err = parsePNGEncoder(r, defaults.PNGEncoder); err != nil {
		return domain.Params{}, err
	}
	if p.Handler, err = parseHandlerKind(r, defaults.Handler); err != nil {
		return domain.Params{}, err
	}

	return p, nil
}

// SaveFields are the three additional parameters a /save request carries
// on top of the common params.
type SaveFields struct {
	Scale    int
	File     string
	Metadata string
}

// ParseSaveFields parses save_scale, save_file, and save_metadata.
func ParseSaveFields(r *http.Request) (SaveFields, error) {
	if err := r.ParseForm(); err != nil {
		return SaveFields{}, badField("form", "could not parse request body")
	}

	scale, err := requiredPositiveInt(r, "save_scale")
	if err != nil {
		return SaveFields{}, err
	}
	file := strings.TrimSpace(r.FormValue("save_file"))
	if file == "" {
		return SaveFields{}, badField("save_file", "must not be empty")
	}
	metadata := r.FormValue("save_metadata")
	if strings.TrimSpace(metadata) == "" {
		return SaveFields{}, badField("save_metadata", "must not be empty")
	}

	return SaveFields{Scale: scale, File: file, Metadata: metadata}, nil
}

func requiredPositiveInt64(r *http.Request, field string) (int64, error) {
	raw := r.FormValue(field)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badField(field, "must be an integer")
	}
	if v <= 0 {
		return 0, badField(field, "must be > 0")
	}
	return v, nil
}

func requiredNonNegativeInt64(r *http.Request, field string) (int64, error) {
	raw := r.FormValue(field)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badField(field, "must be an integer")
	}
	if v < 0 {
		return 0, badField(field, "must be >= 0")
	}
	return v, nil
}

func requiredPositiveInt(r *http.Request, field string) (int, error) {
	raw := r.FormValue(field)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badField(field, "must be an integer")
	}
	if v <= 0 {
		return 0, badField(field, "must be > 0")
	}
	return v, nil
}

func requiredFiniteFloat(r *http.Request, field string) (float64, error) {
	raw := r.FormValue(field)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, badField(field, "must be a finite number")
	}
	return v, nil
}

func parseFloatList(r *http.Request, field string) ([]float64, error) {
	raw := r.Form[field]
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, badField(field, "every entry must be a finite number")
		}
		out[i] = v
	}
	return out, nil
}

func parseByteList(r *http.Request, field string) ([]uint8, error) {
	raw := r.Form[field]
	out := make([]uint8, len(raw))
	for i, s := range raw {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v > 255 {
			return nil, badField(field, "every entry must be an integer in [0, 255]")
		}
		out[i] = uint8(v)
	}
	return out, nil
}

func parseZeros(r *http.Request) ([]domain.Zero, error) {
	if err := r.ParseForm(); err != nil {
		return nil, badField("form", "could not parse request body")
	}

	rs, err := parseFloatList(r, "zero_rs")
	if err != nil {
		return nil, err
	}
	is, err := parseFloatList(r, "zero_is")
	if err != nil {
		return nil, err
	}
	reds, err := parseByteList(r, "zero_reds")
	if err != nil {
		return nil, err
	}
	greens, err := parseByteList(r, "zero_greens")
	if err != nil {
		return nil, err
	}
	blues, err := parseByteList(r, "zero_blues")
	if err != nil {
		return nil, err
	}

	n := len(rs)
	if n == 0 {
		return nil, badField("zero_rs", "must not be empty")
	}
	if len(is) != n || len(reds) != n || len(greens) != n || len(blues) != n {
		return nil, badField("zero_rs", "zero_rs, zero_is, zero_reds, zero_greens, and zero_blues must all have the same length")
	}

	zeros := make([]domain.Zero, n)
	for i := range zeros {
		zeros[i] = domain.Zero{R: rs[i], I: is[i], Red: reds[i], Green: greens[i], Blue: blues[i]}
	}
	return zeros, nil
}

func parsePrecision(r *http.Request, def string) (domain.Precision, error) {
	v := r.FormValue("precision")
	if v == "" {
		v = def
	}
	switch strings.ToUpper(v) {
	case "SINGLE":
		return domain.PrecisionSingle, nil
	case "DOUBLE":
		return domain.PrecisionDouble, nil
	default:
		return 0, badField("precision", "must be SINGLE or DOUBLE")
	}
}

// parseStrategy resolves the request's strategy field, falling back to def
// (normally config.RenderDefaultsConfig.Strategy, itself defaulting to
// block_threaded_incremental) when the field is omitted.
func parseStrategy(r *http.Request, def string) (domain.Strategy, error) {
	v := r.FormValue("strategy")
	if v == "" {
		v = def
	}
	switch strings.ToUpper(v) {
	case "NAIVE":
		return domain.StrategyNaive, nil
	case "DYNAMIC_BLOCK":
		return domain.StrategyBlock, nil
	case "DYNAMIC_BLOCK_THREADED":
		return domain.StrategyBlockThreaded, nil
	case "DYNAMIC_BLOCK_THREADED_INCREMENTAL":
		return domain.StrategyBlockThreadedIncremental, nil
	default:
		return 0, badField("strategy", "must be one of NAIVE, DYNAMIC_BLOCK, DYNAMIC_BLOCK_THREADED, DYNAMIC_BLOCK_THREADED_INCREMENTAL")
	}
}

func parsePNGEncoder(r *http.Request, def string) (domain.PNGEncoder, error) {
	v := r.FormValue("png_encoder")
	if v == "" {
		v = def
	}
	switch strings.ToUpper(v) {
	case "A":
		return domain.PNGEncoderA, nil
	case "B":
		return domain.PNGEncoderB, nil
	default:
		return 0, badField("png_encoder", "must be A or B")
	}
}

func parseHandlerKind(r *http.Request, def string) (domain.HandlerKind, error) {
	v := r.FormValue("handler")
	if v == "" {
		v = def
	}
	switch strings.ToUpper(v) {
	case "SYNCHRONOUS":
		return domain.HandlerSync, nil
	case "PIPELINED":
		return domain.HandlerPipelined, nil
	case "ASYNCHRONOUS":
		return domain.HandlerAsync, nil
	default:
		return 0, badField("handler", "must be one of SYNCHRONOUS, PIPELINED, ASYNCHRONOUS")
	}
}
