// Package probe issues the HTTP checks that make up an instance health
// battery. Every network or parsing failure is converted into a ProbeResult;
// no error crosses this package's boundary.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

const maxRedirects = 5

// errTooManyRedirects aborts a redirect chain at the cap. The http client
// wraps it in a url.Error, so classify unwraps with errors.Is.
var errTooManyRedirects = errors.New("too many redirects")

// Executor runs a single named probe against an instance base URL.
// Fields are exported so tests can swap in an httptest client.
type Executor struct {
	Client          *http.Client
	Logger          *zap.Logger
	Timeout         time.Duration
	TimelineTimeout time.Duration
	SecurityHeaders []string
}

func NewExecutor(logger *zap.Logger, timeout, timelineTimeout time.Duration, securityHeaders []string) *Executor {
	return &Executor{
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		Logger:          logger,
		Timeout:         timeout,
		TimelineTimeout: timelineTimeout,
		SecurityHeaders: securityHeaders,
	}
}

// Run executes one probe and fails closed: any outcome, including panic-free
// handling of transport, TLS, DNS and parse failures, comes back as a
// ProbeResult.
func (e *Executor) Run(ctx context.Context, baseURL string, name domain.ProbeName) domain.ProbeResult {
	timeout := e.Timeout
	if name == domain.ProbeTimeline {
		timeout = e.TimelineTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var res domain.ProbeResult
	switch name {
	case domain.ProbeReachability:
		res = e.reachability(cctx, baseURL)
	case domain.ProbeAPI:
		res = e.api(cctx, baseURL)
	case domain.ProbeFederation:
		res = e.federation(cctx, baseURL)
	case domain.ProbeTimeline:
		res = e.timeline(cctx, baseURL)
	case domain.ProbeStreaming:
		res = e.streaming(cctx, baseURL)
	case domain.ProbeMedia:
		res = e.media(cctx, baseURL)
	case domain.ProbeSecurityHeaders:
		res = e.securityHeaders(cctx, baseURL)
	case domain.ProbeRateLimiting:
		res = e.rateLimiting(cctx, baseURL)
	default:
		res = domain.ProbeResult{Name: name, Status: domain.StatusUnknown, Detail: "unknown probe"}
	}

	e.Logger.Debug("probe_done",
		zap.String("probe", string(res.Name)),
		zap.String("status", string(res.Status)),
		zap.String("detail", res.Detail),
	)
	return res
}

// do issues a GET and measures the round trip. The caller owns the response
// body.
func (e *Executor) do(ctx context.Context, url string) (*http.Response, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := e.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000
	return resp, latency, err
}

func failed(name domain.ProbeName, err error) domain.ProbeResult {
	return domain.ProbeResult{Name: name, Status: domain.StatusFailed, Detail: classify(err)}
}

func httpStatusDetail(code int) string {
	return fmt.Sprintf("http status %d", code)
}

func (e *Executor) reachability(ctx context.Context, base string) domain.ProbeResult {
	resp, latency, err := e.do(ctx, base+"/")
	if err != nil {
		return failed(domain.ProbeReachability, err)
	}
	defer resp.Body.Close()

	fields := map[string]string{
		"status_code": strconv.Itoa(resp.StatusCode),
		"https":       strconv.FormatBool(resp.Request.URL.Scheme == "https"),
	}
	if resp.StatusCode >= 400 {
		return domain.ProbeResult{
			Name:      domain.ProbeReachability,
			Status:    domain.StatusFailed,
			LatencyMS: &latency,
			Detail:    httpStatusDetail(resp.StatusCode),
			Fields:    fields,
		}
	}
	return domain.ProbeResult{
		Name:      domain.ProbeReachability,
		Status:    domain.StatusOK,
		LatencyMS: &latency,
		Fields:    fields,
	}
}

// instanceInfo is the tagged subset of /api/v{1,2}/instance we care about.
// Unknown fields are ignored on purpose.
type instanceInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

func (e *Executor) api(ctx context.Context, base string) domain.ProbeResult {
	for _, try := range []struct {
		path string
		ver  string
	}{
		{"/api/v2/instance", "v2"},
		{"/api/v1/instance", "v1"},
	} {
		resp, _, err := e.do(ctx, base+try.path)
		if err != nil {
			return failed(domain.ProbeAPI, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if try.ver == "v1" {
				return domain.ProbeResult{
					Name:   domain.ProbeAPI,
					Status: domain.StatusFailed,
					Detail: httpStatusDetail(resp.StatusCode),
				}
			}
			continue // v2 missing, fall back to v1
		}

		var info instanceInfo
		err = json.NewDecoder(resp.Body).Decode(&info)
		resp.Body.Close()
		if err != nil {
			return domain.ProbeResult{
				Name:   domain.ProbeAPI,
				Status: domain.StatusFailed,
				Detail: domain.DetailMalformedResponse,
			}
		}
		return domain.ProbeResult{
			Name:   domain.ProbeAPI,
			Status: domain.StatusOK,
			Fields: map[string]string{
				"api":     try.ver,
				"title":   info.Title,
				"version": info.Version,
			},
		}
	}
	// unreachable: the v1 leg always returns
	return domain.ProbeResult{Name: domain.ProbeAPI, Status: domain.StatusUnknown}
}

type nodeinfoIndex struct {
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

type nodeinfoDoc struct {
	Software struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"software"`
}

func (e *Executor) federation(ctx context.Context, base string) domain.ProbeResult {
	resp, _, err := e.do(ctx, base+"/.well-known/nodeinfo")
	if err != nil {
		return failed(domain.ProbeFederation, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return domain.ProbeResult{
			Name:   domain.ProbeFederation,
			Status: domain.StatusFailed,
			Detail: httpStatusDetail(resp.StatusCode),
		}
	}

	var idx nodeinfoIndex
	err = json.NewDecoder(resp.Body).Decode(&idx)
	resp.Body.Close()
	if err != nil {
		return domain.ProbeResult{
			Name:   domain.ProbeFederation,
			Status: domain.StatusFailed,
			Detail: domain.DetailMalformedResponse,
		}
	}

	href := ""
	for _, link := range idx.Links {
		if strings.Contains(link.Href, "nodeinfo/2.") || strings.Contains(link.Rel, "nodeinfo/2.") {
			href = link.Href
			break
		}
	}
	if href == "" {
		return domain.ProbeResult{
			Name:   domain.ProbeFederation,
			Status: domain.StatusDegraded,
			Detail: "no nodeinfo 2.x link",
		}
	}

	docResp, _, err := e.do(ctx, href)
	if err != nil {
		return domain.ProbeResult{
			Name:   domain.ProbeFederation,
			Status: domain.StatusDegraded,
			Detail: "nodeinfo document unreachable: " + classify(err),
		}
	}
	defer docResp.Body.Close()
	if docResp.StatusCode != http.StatusOK {
		return domain.ProbeResult{
			Name:   domain.ProbeFederation,
			Status: domain.StatusDegraded,
			Detail: "nodeinfo document: " + httpStatusDetail(docResp.StatusCode),
		}
	}

	var doc nodeinfoDoc
	if err := json.NewDecoder(docResp.Body).Decode(&doc); err != nil {
		return domain.ProbeResult{
			Name:   domain.ProbeFederation,
			Status: domain.StatusDegraded,
			Detail: domain.DetailMalformedResponse,
		}
	}
	return domain.ProbeResult{
		Name:   domain.ProbeFederation,
		Status: domain.StatusOK,
		Fields: map[string]string{
			"software":         doc.Software.Name,
			"software_version": doc.Software.Version,
		},
	}
}

func (e *Executor) timeline(ctx context.Context, base string) domain.ProbeResult {
	resp, latency, err := e.do(ctx, base+"/api/v1/timelines/public?limit=20&local=true")
	if err != nil {
		return failed(domain.ProbeTimeline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ProbeResult{
			Name:   domain.ProbeTimeline,
			Status: domain.StatusFailed,
			Detail: httpStatusDetail(resp.StatusCode),
		}
	}

	var posts []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return domain.ProbeResult{
			Name:   domain.ProbeTimeline,
			Status: domain.StatusFailed,
			Detail: domain.DetailMalformedResponse,
		}
	}
	return domain.ProbeResult{
		Name:      domain.ProbeTimeline,
		Status:    domain.StatusOK,
		LatencyMS: &latency,
		Fields:    map[string]string{"posts": strconv.Itoa(len(posts))},
	}
}

func (e *Executor) streaming(ctx context.Context, base string) domain.ProbeResult {
	resp, _, err := e.do(ctx, base+"/api/v1/streaming/health")
	if err != nil {
		return failed(domain.ProbeStreaming, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return domain.ProbeResult{
			Name:   domain.ProbeStreaming,
			Status: domain.StatusOK,
			Fields: map[string]string{"available": "true"},
		}
	}
	return domain.ProbeResult{
		Name:   domain.ProbeStreaming,
		Status: domain.StatusDegraded,
		Detail: httpStatusDetail(resp.StatusCode),
		Fields: map[string]string{"available": "false"},
	}
}

// media checks that the upload endpoint exists without writing anything:
// an auth challenge means the endpoint is there and gated, which is the
// healthy answer for an unauthenticated client.
func (e *Executor) media(ctx context.Context, base string) domain.ProbeResult {
	resp, _, err := e.do(ctx, base+"/api/v2/media")
	if err != nil {
		return failed(domain.ProbeMedia, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return domain.ProbeResult{
			Name:   domain.ProbeMedia,
			Status: domain.StatusOK,
			Detail: "auth required",
			Fields: map[string]string{"available": "true"},
		}
	case http.StatusNotFound:
		return domain.ProbeResult{
			Name:   domain.ProbeMedia,
			Status: domain.StatusFailed,
			Detail: httpStatusDetail(resp.StatusCode),
		}
	default:
		return domain.ProbeResult{
			Name:   domain.ProbeMedia,
			Status: domain.StatusDegraded,
			Detail: httpStatusDetail(resp.StatusCode),
		}
	}
}

func (e *Executor) securityHeaders(ctx context.Context, base string) domain.ProbeResult {
	resp, _, err := e.do(ctx, base+"/")
	if err != nil {
		return failed(domain.ProbeSecurityHeaders, err)
	}
	defer resp.Body.Close()

	if resp.Request.URL.Scheme != "https" {
		return domain.ProbeResult{
			Name:   domain.ProbeSecurityHeaders,
			Status: domain.StatusFailed,
			Detail: domain.DetailInsecureTransport,
		}
	}

	fields := make(map[string]string, len(e.SecurityHeaders))
	present := 0
	for _, h := range e.SecurityHeaders {
		if resp.Header.Get(h) != "" {
			fields[h] = "true"
			present++
		} else {
			fields[h] = "false"
		}
	}

	detail := fmt.Sprintf("%d/%d present", present, len(e.SecurityHeaders))
	switch {
	case present == len(e.SecurityHeaders):
		return domain.ProbeResult{
			Name:   domain.ProbeSecurityHeaders,
			Status: domain.StatusOK,
			Detail: detail,
			Fields: fields,
		}
	case present == 0:
		return domain.ProbeResult{
			Name:   domain.ProbeSecurityHeaders,
			Status: domain.StatusFailed,
			Detail: "no security headers present",
			Fields: fields,
		}
	default:
		return domain.ProbeResult{
			Name:   domain.ProbeSecurityHeaders,
			Status: domain.StatusDegraded,
			Detail: detail,
			Fields: fields,
		}
	}
}

// rateLimiting sniffs for rate-limit headers on an ordinary request; it never
// tries to trigger actual throttling.
func (e *Executor) rateLimiting(ctx context.Context, base string) domain.ProbeResult {
	resp, _, err := e.do(ctx, base+"/api/v1/timelines/public")
	if err != nil {
		return failed(domain.ProbeRateLimiting, err)
	}
	defer resp.Body.Close()

	fields := make(map[string]string)
	for name, vals := range resp.Header {
		if strings.HasPrefix(name, "X-Ratelimit-") || strings.HasPrefix(name, "Ratelimit-") ||
			name == "Ratelimit" {
			if len(vals) > 0 {
				fields[name] = vals[0]
			}
		}
	}
	if len(fields) > 0 {
		return domain.ProbeResult{
			Name:   domain.ProbeRateLimiting,
			Status: domain.StatusOK,
			Fields: fields,
		}
	}
	return domain.ProbeResult{
		Name:   domain.ProbeRateLimiting,
		Status: domain.StatusDegraded,
		Detail: "no rate-limit headers",
	}
}
