package llm

import (
	"net"
	"net/http"
	"time"
)

// newLLMHTTPClient creates an HTTP client tuned for LLM API calls. Question
// generation blocks a live submit request, so the overall timeout is shorter
// than a general-purpose LLM client would use.
func newLLMHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		MaxConnsPerHost:       10,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   90 * time.Second,
		Transport: transport,
	}
}
