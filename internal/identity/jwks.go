package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"vinoteca/internal/observability"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	// unknownKIDRefreshEvery bounds how often a token signed with a kid that
	// is not cached may force a re-fetch ahead of the refresh interval.
	unknownKIDRefreshEvery = time.Minute
	unknownKIDWaitMax      = time.Second
)

// keySource resolves signing keys from the provider's JWKS endpoint. The set
// is fetched on first use and cached; a failed first fetch is retried on the
// next verification.
type keySource struct {
	url     string
	client  *http.Client
	refresh time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	kf keyfunc.Keyfunc
}

func newKeySource(url string, client *http.Client, refresh time.Duration) *keySource {
	ctx, cancel := context.WithCancel(context.Background())
	return &keySource{
		url:     url,
		client:  countFetches(client),
		refresh: refresh,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *keySource) keyfunc() (keyfunc.Keyfunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kf != nil {
		return s.kf, nil
	}

	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	remote, err := jwkset.NewStorageFromHTTP(u, jwkset.HTTPClientStorageOptions{
		Client:          s.client,
		Ctx:             s.ctx,
		HTTPTimeout:     s.client.Timeout,
		RefreshInterval: s.refresh,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			observability.GlobalLogger.WarnContext(ctx, "identity key set refresh failed",
				slog.String("url", s.url), slog.String("error", err.Error()))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}

	storage, err := jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		Given:             jwkset.NewMemoryStorage(),
		HTTPURLs:          map[string]jwkset.Storage{s.url: remote},
		RateLimitWaitMax:  unknownKIDWaitMax,
		RefreshUnknownKID: rate.NewLimiter(rate.Every(unknownKIDRefreshEvery), 1),
	})
	if err != nil {
		return nil, fmt.Errorf("key set client: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Ctx: s.ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("key function: %w", err)
	}
	s.kf = kf
	return kf, nil
}

// lookup is a jwt.Keyfunc.
func (s *keySource) lookup(token *jwt.Token) (any, error) {
	kf, err := s.keyfunc()
	if err != nil {
		return nil, err
	}
	return kf.Keyfunc(token)
}

func (s *keySource) close() {
	s.cancel()
}

// fetchCounter records every key set request in IdentityKeyFetches.
type fetchCounter struct {
	next http.RoundTripper
}

func (t fetchCounter) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	result := "ok"
	switch {
	case err != nil:
		result = "transport_error"
	case resp.StatusCode != http.StatusOK:
		result = "bad_status"
	}
	observability.IdentityKeyFetches.WithLabelValues(result).Inc()
	return resp, err
}

func countFetches(client *http.Client) *http.Client {
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	counted := *client
	counted.Transport = fetchCounter{next: next}
	return &counted
}
