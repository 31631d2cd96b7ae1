package handler

import (
	"io"
	"net/http"
	"strings"

	httputils "github.com/foomo/keel/utils/net/http"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/dispatch"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	HTTP struct {
		service
		path    string
		maxBody int64
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns a shiny new web server
func NewHTTP(l *zap.Logger, pool *collection.Pool, dispatcher *dispatch.Dispatcher, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		service: service{
			l:          l.Named("http"),
			pool:       pool,
			dispatcher: dispatcher,
		},
		path:    "/recordstore",
		maxBody: 8 << 20,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimSuffix(v, "/")
	}
}

func WithMaxBodySize(v int64) HTTPOption {
	return func(o *HTTP) {
		o.maxBody = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return
	}

	bytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
		return
	}

	route := Route(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	reply, errReply := h.handleRequest(r.Context(), route, bytes, sourceHTTP)

	w.Header().Set("Content-Type", "application/json")
	if errReply != nil {
		w.WriteHeader(errReply.Status)
	}
	_, _ = w.Write(reply)
}
