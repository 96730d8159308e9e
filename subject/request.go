package subject

import (
	"maps"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Request is the allow-listed projection of an HTTP request that is
// logged instead of the request itself.
type Request struct {
	HTTPVersion string            `json:"httpVersion"`
	Headers     map[string]string `json:"headers"`
	Trailers    map[string]string `json:"trailers"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	StatusCode  int               `json:"statusCode,omitempty"`
	Body        any               `json:"body,omitempty"`
	Params      map[string]string `json:"params"`
	Query       map[string]string `json:"query"`
	Cookies     map[string]string `json:"cookies"`
	IP          string            `json:"ip"`
	IPs         []string          `json:"ips"`
	Path        string            `json:"path"`
	Host        string            `json:"host"`
	XHR         bool              `json:"xhr"`
	Protocol    string            `json:"protocol"`
	Secure      bool              `json:"secure"`
	Subdomains  []string          `json:"subdomains"`
	OriginalURL string            `json:"originalUrl"`
}

// HTTPMessage is implemented by values that know how to project
// themselves onto a Request.
type HTTPMessage interface {
	HTTPRequest() *Request
}

// UnrollHTTPMessage handles values implementing HTTPMessage.
func UnrollHTTPMessage(v any) (*Request, bool) {
	m, ok := v.(HTTPMessage)
	if !ok || isNilPointer(m) {
		return nil, false
	}
	return m.HTTPRequest(), true
}

// UnrollHTTPRequest handles *http.Request values.
func UnrollHTTPRequest(v any) (*Request, bool) {
	r, ok := v.(*http.Request)
	if !ok || r == nil {
		return nil, false
	}
	return ProjectRequest(r), true
}

// ProjectRequest builds the Request projection of r. Route variables set
// by a gorilla/mux router become the params; they are copied so the
// projection can be extended without touching the router's map.
func ProjectRequest(r *http.Request) *Request {
	req := &Request{
		HTTPVersion: httpVersion(r),
		Headers:     FlattenHeader(r.Header),
		Trailers:    FlattenHeader(r.Trailer),
		Method:      r.Method,
		Params:      maps.Clone(mux.Vars(r)),
		Cookies:     map[string]string{},
		Host:        r.Host,
		XHR:         r.Header.Get("X-Requested-With") == "XMLHttpRequest",
		Protocol:    "http",
		Secure:      r.TLS != nil,
		OriginalURL: r.RequestURI,
	}
	if req.Secure {
		req.Protocol = "https"
	}
	if r.URL != nil {
		req.URL = r.URL.RequestURI()
		req.Path = r.URL.Path
		req.Query = flattenValues(r.URL.Query())
		if req.Host == "" {
			req.Host = r.URL.Host
		}
	}
	if req.OriginalURL == "" {
		req.OriginalURL = req.URL
	}
	if req.Params == nil {
		req.Params = map[string]string{}
	}
	for _, c := range r.Cookies() {
		req.Cookies[c.Name] = c.Value
	}
	req.IP, req.IPs = clientIPs(r)
	req.Subdomains = subdomains(req.Host)
	return req
}

// FlattenHeader lowercases header names and joins repeated values with ", ".
func FlattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

func flattenValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

func httpVersion(r *http.Request) string {
	if r.ProtoMajor == 0 && r.ProtoMinor == 0 {
		return strings.TrimPrefix(r.Proto, "HTTP/")
	}
	return strconv.Itoa(r.ProtoMajor) + "." + strconv.Itoa(r.ProtoMinor)
}

// clientIPs returns the remote address and the X-Forwarded-For chain.
func clientIPs(r *http.Request) (string, []string) {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ips := []string{}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, part := range strings.Split(fwd, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ips = append(ips, part)
			}
		}
	}
	return ip, ips
}

// subdomains lists the labels left of the registrable domain, the one
// closest to it first. IP hosts have none.
func subdomains(host string) []string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || net.ParseIP(host) != nil {
		return []string{}
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return []string{}
	}
	subs := labels[:len(labels)-2]
	out := make([]string, len(subs))
	for i, s := range subs {
		out[len(subs)-1-i] = s
	}
	return out
}
