package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type csrfTokenEnvelope struct {
	Token string `json:"token"`
}

// csrfTokenFor returns the cached CSRF token, fetching one from the token
// endpoint on first use. Tokens live for the gateway's lifetime unless a
// mutation is rejected as stale, which triggers a single refresh and retry.
func (g *APIGateway) csrfTokenFor(ctx context.Context) (string, error) {
	g.csrfMu.Lock()
	token := g.csrfToken
	g.csrfMu.Unlock()
	if token != "" {
		return token, nil
	}
	return g.refreshCSRFToken(ctx)
}

func (g *APIGateway) refreshCSRFToken(ctx context.Context) (string, error) {
	body, statusCode, err := g.doRequest(ctx, http.MethodGet, g.csrfPath, nil, "")
	if err != nil {
		return "", err
	}
	if statusCode >= http.StatusBadRequest {
		return "", classifyStatusError(statusCode, body)
	}

	var envelope csrfTokenEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", internalError("malformed csrf token response", err)
	}
	token := strings.TrimSpace(envelope.Token)
	if token == "" {
		return "", internalError("csrf token endpoint returned an empty token", nil)
	}

	g.csrfMu.Lock()
	g.csrfToken = token
	g.csrfMu.Unlock()
	return token, nil
}

func isStaleCSRF(statusCode int, body []byte) bool {
	if statusCode != http.StatusForbidden {
		return false
	}
	return parseAPIError(body).Type == "csrf_error"
}
