package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

// maxDocumentSize caps remote payloads; questionnaires are small.
const maxDocumentSize = 8 << 20

const acceptHeader = "application/json, application/yaml;q=0.9, text/yaml;q=0.8, */*;q=0.5"

// fetchHTTP reads a document over GET. The Content-Type decides the format;
// the URL path extension is used when the server sends a generic type.
func fetchHTTP(client *http.Client) fetchFunc {
	return func(ctx context.Context, url string) (payload, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return payload{}, err
		}
		req.Header.Set("Accept", acceptHeader)

		resp, err := client.Do(req)
		if err != nil {
			return payload{}, err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return payload{}, fmt.Errorf("unexpected status %s", resp.Status)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
		if err != nil {
			return payload{}, err
		}
		if len(data) > maxDocumentSize {
			return payload{}, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
		}

		format, ok := schema.FormatFromMediaType(resp.Header.Get("Content-Type"))
		if !ok {
			format, _ = schema.FormatFromExtension(req.URL.Path)
		}
		return payload{data: data, format: format}, nil
	}
}
