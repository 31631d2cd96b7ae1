package handler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/dispatch"
	"github.com/foomo/recordstore/pkg/metrics"
	"github.com/foomo/recordstore/responses"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// Socket speaks the framed protocol: requests are "<route>:<length>{json}",
	// replies "<length>{json}". Connections stay open between requests.
	Socket struct {
		service
		maxRequest int
	}
	SocketOption func(*Socket)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewSocket returns a shiny new socket server
func NewSocket(l *zap.Logger, pool *collection.Pool, dispatcher *dispatch.Dispatcher, opts ...SocketOption) *Socket {
	inst := &Socket{
		service: service{
			l:          l.Named("socket"),
			pool:       pool,
			dispatcher: dispatcher,
		},
		maxRequest: 8 << 20,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithMaxRequestSize limits the announced json length of a request
func WithMaxRequestSize(v int) SocketOption {
	return func(o *Socket) {
		o.maxRequest = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// maxHeaderSize bounds the "<route>:<length>" prefix of a request
const maxHeaderSize = 64

var errHeaderTooLong = errors.Errorf("header exceeds %d bytes", maxHeaderSize)

// readHeader reads everything up to the opening brace of the json body
func readHeader(r *bufio.Reader) (string, error) {
	var header strings.Builder
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == '{' {
			return header.String(), nil
		}
		if header.Len() == maxHeaderSize {
			return "", errHeaderTooLong
		}
		header.WriteByte(c)
	}
}

// Serve handles requests on conn until the client hangs up, a request is
// invalid or ctx is done. It does not close conn.
func (h *Socket) Serve(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	l := h.l.With(zap.String("remote", remote))

	defer func() {
		if r := recover(); r != nil {
			l.Error("panic in handle connection", zap.String("error", fmt.Sprint(r)))
		}
	}()

	metrics.NumSocketsGauge.WithLabelValues(remote).Inc()
	defer metrics.NumSocketsGauge.WithLabelValues(remote).Dec()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	reader := bufio.NewReader(conn)
	for {
		header, err := readHeader(reader)
		if errors.Is(err, errHeaderTooLong) {
			l.Error("invalid request header too long")
			reply, _ := h.encodeReply(nil, responses.NewError(responses.CodeInvalidHeader, "invalid header "+err.Error()))
			h.writeResponse(l, conn, reply)
			return
		} else if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				l.Debug("looks like the client closed the connection", zap.Error(err))
			}
			return
		}

		route, jsonLength, err := h.parseHeader(header)
		if err != nil {
			l.Error("invalid request could not read header", zap.Error(err))
			reply, _ := h.encodeReply(nil, responses.NewError(responses.CodeInvalidHeader, "invalid header "+err.Error()))
			h.writeResponse(l, conn, reply)
			return
		}

		jsonBytes := make([]byte, jsonLength)
		jsonBytes[0] = '{'
		if _, err := io.ReadFull(reader, jsonBytes[1:]); err != nil {
			l.Error("could not read json - giving up with this client connection", zap.Error(err))
			return
		}

		reply, errReply := h.handleRequest(ctx, route, jsonBytes, sourceSocket)
		if errReply != nil {
			l.Debug("replying with error", zap.String("route", string(route)), zap.Int("code", errReply.Code))
		}
		if !h.writeResponse(l, conn, reply) {
			return
		}
		// note: connection remains open
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *Socket) parseHeader(header string) (Route, int, error) {
	route, length, ok := strings.Cut(header, ":")
	if !ok || route == "" {
		return "", 0, errors.Errorf("invalid header %q", header)
	}
	jsonLength, err := strconv.Atoi(length)
	if err != nil {
		return "", 0, errors.Errorf("could not parse length in header: %q", header)
	}
	if jsonLength < 2 {
		return "", 0, errors.Errorf("json length %d too short", jsonLength)
	}
	if jsonLength > h.maxRequest {
		return "", 0, errors.Errorf("json length %d exceeds %d", jsonLength, h.maxRequest)
	}
	return Route(route), jsonLength, nil
}

func (h *Socket) writeResponse(l *zap.Logger, conn net.Conn, reply []byte) bool {
	reply = append([]byte(strconv.Itoa(len(reply))), reply...)
	if _, err := conn.Write(reply); err != nil {
		l.Error("could not write reply", zap.Error(err))
		return false
	}
	return true
}
