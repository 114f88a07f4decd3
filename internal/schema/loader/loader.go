// Package loader reads questionnaire documents for schema.Loader from files,
// fs.FS entries and HTTP endpoints. Each transport reports the payload format
// it can tell (file extension, Content-Type) so the document decodes without
// sniffing.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

// ErrUnsupported is returned for source kinds the loader was not configured
// for: fs sources without a file system and URLs without an HTTP client.
var ErrUnsupported = errors.New("schema loader: source kind not enabled")

// payload is a fetched document body. An empty format leaves detection to
// schema.Document.
type payload struct {
	data   []byte
	format schema.Format
}

type fetchFunc func(ctx context.Context, location string) (payload, error)

// Loader implements schema.Loader.
type Loader struct {
	fetchers map[schema.SourceKind]fetchFunc
}

var _ schema.Loader = (*Loader)(nil)

// New builds a Loader enabling the transports options allow. Files are always
// readable.
func New(options schema.LoaderOptions) *Loader {
	l := &Loader{fetchers: map[schema.SourceKind]fetchFunc{
		schema.SourceKindFile: readFile,
	}}
	if options.FileSystem != nil {
		l.fetchers[schema.SourceKindFS] = readFS(options.FileSystem)
	}
	if client := httpClient(options); client != nil {
		l.fetchers[schema.SourceKindURL] = fetchHTTP(client)
	}
	return l
}

// httpClient returns the client for URL sources, or nil when they are
// disabled. RequestTimeout applies when the client has none of its own.
func httpClient(options schema.LoaderOptions) *http.Client {
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: options.RequestTimeout}
	}
	return nil
}

// Load fetches src and wraps the payload in a Document carrying the format
// the transport reported.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("schema loader: source is nil")
	}
	fetch, ok := l.fetchers[src.Kind()]
	if !ok {
		return schema.Document{}, fmt.Errorf("%w: %s %s", ErrUnsupported, src.Kind(), src.Location())
	}
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}

	p, err := fetch(ctx, src.Location())
	if err != nil {
		return schema.Document{}, fmt.Errorf("schema loader: %s: %w", src.Location(), err)
	}
	return schema.NewDocumentWithFormat(src, p.data, p.format)
}
