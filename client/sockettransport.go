package client

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/recordstore/pkg/handler"
	"github.com/pkg/errors"
)

type socketTransport struct {
	connPool *connectionPool
}

// NewSocketTransport will create a new socket transport keeping up to
// connectionPoolSize connections to server
func NewSocketTransport(server string, connectionPoolSize int, waitTimeout time.Duration) Transport {
	return &socketTransport{
		connPool: newConnectionPool(server, connectionPoolSize, waitTimeout),
	}
}

func (st *socketTransport) Close() {
	st.connPool.close()
}

func (st *socketTransport) Call(ctx context.Context, route handler.Route, request []byte) (reply []byte, err error) {
	conn, err := st.connPool.get(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		st.connPool.put(conn, err)
	}()

	deadline, _ := ctx.Deadline()
	if err = conn.SetDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "failed to set deadline")
	}

	// write header result will be like route:2{}
	frame := append([]byte(string(route)+":"+strconv.Itoa(len(request))), request...)
	if _, err = conn.Write(frame); err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}

	// read response, the length is terminated by the opening bracket
	reader := bufio.NewReader(conn)
	header, err := reader.ReadString('{')
	if err != nil {
		return nil, errors.Wrap(err, "an error occurred while reading the response")
	}
	length, err := strconv.Atoi(strings.TrimSuffix(header, "{"))
	if err != nil {
		return nil, errors.Wrap(err, "could not read response length")
	}
	if length < 1 {
		return nil, errors.Errorf("invalid response length %d", length)
	}
	reply = make([]byte, length)
	reply[0] = '{'
	if _, err = io.ReadFull(reader, reply[1:]); err != nil {
		return nil, errors.Wrap(err, "an error occurred while reading the response")
	}
	return reply, nil
}
