// Package web serves reconstructed sprites over HTTP.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-atlas-mcp/internal/atlas"
	"github.com/ironsheep/sprite-atlas-mcp/internal/imaging"
	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

// generation is part of every ETag; bump it if the way sprites are
// generated changes.
const generation = 1

type Handler struct {
	sess    *atlas.Session
	modTime time.Time
}

// NewHandler constructs a web handler serving the sprites of sess.
func NewHandler(sess *atlas.Session) *Handler {
	h := &Handler{sess: sess}
	if p := sess.Manifest().Path; p != "" {
		if st, err := os.Stat(p); err == nil {
			h.modTime = st.ModTime()
		}
	}
	return h
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sprites", h.listHandler).Methods(http.MethodGet)
	r.HandleFunc("/sprites/{name}/stats", h.statsHandler).Methods(http.MethodGet)
	r.HandleFunc("/sprites/{name:[^/]+}.{format:[a-zA-Z]+}", h.spriteHandler).Methods(http.MethodGet, http.MethodHead)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"sprites": h.sess.SpriteNames()})
}

func (h *Handler) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sess.StatsFor(mux.Vars(r)["name"])
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (h *Handler) spriteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	if _, err := h.sess.Sprite(name); err != nil {
		httpError(w, err)
		return
	}
	f, err := imaging.ParseFormat(vars["format"])
	if err != nil {
		httpError(w, err)
		return
	}
	q := r.URL.Query()
	crop, err := h.sess.ResolveCrop(imaging.CropPolicy(q.Get("crop")))
	if err != nil {
		httpError(w, err)
		return
	}
	transform, err := imaging.ParseTransform(q.Get("transform"))
	if err != nil {
		httpError(w, err)
		return
	}

	etag := fmt.Sprintf(`W/"sprite:%d:%x:%s:%s:%s:%s"`, generation, h.modTime.UnixNano(), name, crop, q.Get("transform"), f)
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("Cache-Control", "public; max-age=3600")
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	c, err := h.sess.Canvas(name, crop)
	if err != nil {
		httpError(w, err)
		return
	}
	if c, err = transform.Apply(c); err != nil {
		httpError(w, err)
		return
	}
	data, err := h.sess.Encoder().EncodeBytes(c, f)
	if err != nil {
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", f.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name+f.Extension()))
	w.Header().Set("Cache-Control", "public; max-age=3600")
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Sprite-Width", strconv.Itoa(c.Width))
	w.Header().Set("X-Sprite-Height", strconv.Itoa(c.Height))
	w.Header().Set("X-Sprite-Crop", string(c.Crop))
	if !h.modTime.IsZero() {
		w.Header().Set("Last-Modified", h.modTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		glog.V(1).Infof("writing %s: %v", name, err)
	}
}

// etagMatch reports whether an If-None-Match header value matches etag,
// using the weak comparison that applies to GET and HEAD.
func etagMatch(header, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || (tag != "" && strings.TrimPrefix(tag, "W/") == want) {
			return true
		}
	}
	return false
}

// statusOf maps reconstruction errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, imaging.ErrCrop),
		errors.Is(err, imaging.ErrUnsupportedFormat),
		errors.Is(err, imaging.ErrTransform):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func httpError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		glog.Errorf("serving sprite: %v", err)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.V(1).Infof("writing json: %v", err)
	}
}
