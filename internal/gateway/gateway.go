// Package gateway is the console's client for the user-management and
// AI-analysis REST APIs.
package gateway

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"threatconsole/internal/session"
)

type Options struct {
	UsersURL   string
	AIURL      string
	Timeout    time.Duration
	AICacheTTL time.Duration
	// HTTPClient overrides the default pooled client.
	HTTPClient *http.Client
}

// Gateway owns the two API clients and the shared AI cache. It holds no
// credential; use Bind to get a per-session view.
type Gateway struct {
	users *Client
	ai    *Client
	cache *aiCache
	log   *zap.SugaredLogger
}

func New(opts Options, log *zap.SugaredLogger) *Gateway {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	log = log.Named("gateway")
	return &Gateway{
		users: NewClient(APIUsers, opts.UsersURL, hc, log),
		ai:    NewClient(APIAI, opts.AIURL, hc, log),
		cache: newAICache(opts.AICacheTTL),
		log:   log,
	}
}

// Conn is a gateway bound to one session's credential.
type Conn struct {
	g      *Gateway
	holder session.Holder
	scope  string
}

// Bind returns a Conn that authenticates with h. AI cache entries are keyed
// by the credential in h and further partitioned by scope, normally the role.
func (g *Gateway) Bind(h session.Holder, scope string) *Conn {
	return &Conn{g: g, holder: h, scope: scope}
}

func (c *Conn) token() string {
	if c.holder == nil {
		return ""
	}
	token, _ := c.holder.Get()
	return token
}

// InvalidateAI drops cached AI reads.
func (g *Gateway) InvalidateAI() {
	g.cache.purge()
}
