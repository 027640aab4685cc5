// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

var (
	errBodyTooLarge = errors.New("response body too large")
	errBadEncoding  = errors.New("undecodable content encoding")
)

// readBody reads the response body, undoing gzip, deflate or br content
// encoding, and fails once more than maxBytes decoded bytes are read.
func readBody(resp *http.Response, maxBytes int64) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	var closers []io.Closer

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", errBadEncoding, err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	default:
		return nil, fmt.Errorf("%w: %q", errBadEncoding, resp.Header.Get("Content-Encoding"))
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", errBodyTooLarge, maxBytes)
	}
	return body, nil
}
