package httpapi

import "net/http"

// RequestMeta carries platform-provided request metadata. It is read-only
// to handlers and discarded once the response is produced.
type RequestMeta struct {
	EdgeLocation string
	Country      string
}

// metaFrom reads edge metadata from the headers the hosting platforms
// inject. Absent headers leave the fields empty.
func metaFrom(r *http.Request) RequestMeta {
	meta := RequestMeta{
		EdgeLocation: r.Header.Get("X-Edge-Location"),
		Country:      r.Header.Get("X-Edge-Country"),
	}
	if meta.Country == "" {
		meta.Country = r.Header.Get("CF-IPCountry")
	}
	return meta
}
