// internal/requestinfo/middleware.go
//
// HTTP middleware that attaches *Client to each request.
//
/*
Context
--------
This handler sits after chi's RealIP and the request logger.  For every
request it:

  1. Takes the client address from r.RemoteAddr (RealIP has already applied
     X-Forwarded-For / X-Real-IP).
  2. Parses the User-Agent header and Accept-Language list.
  3. Performs a GeoLite2 lookup when a database is loaded.
  4. Stores the *Client in the request context, so submission actions can
     attach it without reparsing.

Instrumentation
---------------
Each invocation logs a DEBUG line with IP, country, browser, device, and
bot flag through the request-scoped logger.
*/
package requestinfo

import (
	"net"
	"net/http"

	"github.com/yanizio/contactform/internal/logger"
)

// Enrich wraps an http.Handler, attaches *Client, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r.RemoteAddr)

		c := &Client{}
		if ip != nil {
			c.IP = ip.String()
		}
		parseUA(c, r.UserAgent(), r.Header.Get("Accept-Language"))
		lookupGeo(c, ip)

		logger.FromContext(r.Context()).Debugw("request info",
			"ip", c.IP,
			"country", c.Country,
			"browser", c.Browser,
			"device", c.Device,
			"bot", c.IsBot,
		)

		next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), c)))
	})
}

// remoteIP parses "ip:port" or a bare IP.
func remoteIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return net.ParseIP(addr)
}
