package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/JonMunkholm/cruisecheck/internal/logging"
	mw "github.com/JonMunkholm/cruisecheck/internal/web/middleware"
)

// WithRequestMetadata adds the client address, user agent and dataset to
// ctx for the run history and request logs.
func WithRequestMetadata(ctx context.Context, r *http.Request, datasetID string) context.Context {
	ctx = core.ContextWithIPAddress(ctx, mw.ClientIP(r)) // RemoteAddr already rewritten by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	if datasetID != "" {
		ctx = logging.WithDataset(ctx, datasetID)
	}
	return ctx
}
