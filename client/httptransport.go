package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/foomo/recordstore/pkg/handler"
	"github.com/pkg/errors"
)

type httpTransport struct {
	client   *http.Client
	endpoint string
}

// NewHTTPTransport will create a new http transport for the given server and client.
// Caution: the provided server url is not validated!
func NewHTTPTransport(server string, client *http.Client) Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpTransport{
		endpoint: strings.TrimSuffix(server, "/"),
		client:   client,
	}
}

func (ht *httpTransport) Close() {
	ht.client.CloseIdleConnections()
}

func (ht *httpTransport) Call(ctx context.Context, route handler.Route, request []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ht.endpoint+"/"+string(route), bytes.NewReader(request))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ht.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	// failures come as a reply envelope with a non 200 status
	if resp.StatusCode != http.StatusOK && !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return nil, errors.Errorf("non 200 reply: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}
