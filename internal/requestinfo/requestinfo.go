//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight client metadata collected per request (address, coarse
//  geolocation, and user-agent fingerprint).  Submission actions attach it
//  to stored rows and webhook payloads so recipients can triage spam.
//  The struct is inert and safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Client describes who sent a request.  Geo fields are best-effort and
// empty when no GeoLite2 database is loaded.
//
// Example (Chrome on macOS):
//
//	Browser        "Chrome"
//	BrowserVersion "124"
//	OS             "MacOSX"
//	OSVersion      "10.15.7"
//	Device         "Desktop"
type Client struct {
	IP             string `json:"ip"`
	Country        string `json:"country,omitempty"`
	City           string `json:"city,omitempty"`
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browserVersion,omitempty"`
	OS             string `json:"os,omitempty"`
	OSVersion      string `json:"osVersion,omitempty"`
	Device         string `json:"device"`
	IsBot          bool   `json:"isBot"`
	Lang           string `json:"lang,omitempty"`
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is the shared MaxMind handle; nil disables lookups.
var geoReader atomic.Pointer[geoip2.Reader]

// OpenGeo loads the GeoLite2-City database at dbPath.  Call once from
// main; lookups are skipped until it succeeds.
func OpenGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	if old := geoReader.Swap(r); old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseGeo releases the GeoLite2 database.
func CloseGeo() {
	if r := geoReader.Swap(nil); r != nil {
		_ = r.Close()
	}
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{}

// WithClient returns a copy of ctx carrying c.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the *Client stored by Enrich, or nil.
func FromContext(ctx context.Context) *Client {
	v, _ := ctx.Value(ctxKey{}).(*Client)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA fills the user-agent fields of c.
func parseUA(c *Client, raw, acceptLang string) {
	ua := surfer.Parse(raw)

	c.Browser = strings.TrimPrefix(ua.Browser.Name.String(), "Browser")
	c.BrowserVersion = versionToString(ua.Browser.Version)
	c.OS = strings.TrimPrefix(ua.OS.Name.String(), "OS")
	c.OSVersion = versionToString(ua.OS.Version)
	c.IsBot = ua.IsBot()
	c.Lang = primaryLang(acceptLang)

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		c.Device = "Desktop"
	case surfer.DeviceTablet:
		c.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		c.Device = "Mobile"
	default:
		c.Device = "Other"
	}
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}

// primaryLang extracts the first language tag before any ";q=" weight.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.IndexByte(tag, ';'); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// lookupGeo fills the geo fields of c when a database is loaded.
func lookupGeo(c *Client, ip net.IP) {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return
	}
	rec, err := r.City(ip)
	if err != nil {
		return
	}
	c.Country = rec.Country.IsoCode
	c.City = rec.City.Names["en"]
}
