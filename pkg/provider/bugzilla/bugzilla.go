// Package bugzilla checks a Bugzilla instance for review flags requested of
// the signed-in user via the MyDashboard JSON-RPC endpoint.
package bugzilla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reviewbadge/reviewbadge/pkg/provider"
)

const rpcPath = "/jsonrpc.cgi"

// CredentialFunc supplies the current API key, or "" when unconfigured.
type CredentialFunc func() string

type BugzillaProvider struct {
	id      provider.ProviderID
	baseURL string
	cred    CredentialFunc
	client  *http.Client
}

// rpcRequest is the JSON-RPC 1.1 envelope Bugzilla expects.
type rpcRequest struct {
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Version string      `json:"version"`
}

type flagQueryParams struct {
	APIKey string `json:"api_key"`
	Type   string `json:"type"`
}

type rpcResponse struct {
	Error  *rpcError `json:"error"`
	Result struct {
		Result struct {
			Requestee []flagRecord `json:"requestee"`
		} `json:"result"`
	} `json:"result"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type flagRecord struct {
	Type string `json:"type"`
}

// NewProvider creates a Bugzilla provider rooted at baseURL.
// The HTTP client deliberately has no cookie jar: the API key is the only
// credential sent, never an ambient session.
func NewProvider(baseURL string, cred CredentialFunc) *BugzillaProvider {
	return &BugzillaProvider{
		id:      provider.Bugzilla,
		baseURL: strings.TrimRight(baseURL, "/"),
		cred:    cred,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *BugzillaProvider) ID() provider.ProviderID {
	return p.id
}

func (p *BugzillaProvider) Check(ctx context.Context) provider.CheckResult {
	apiKey := p.cred()
	if apiKey == "" {
		return provider.Skipped(p.id)
	}

	envelope := rpcRequest{
		ID:      1,
		Method:  "MyDashboard.run_flag_query",
		Params:  flagQueryParams{APIKey: apiKey, Type: "requestee"},
		Version: "1.1",
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return provider.Failed(p.id, provider.KindParseFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+rpcPath, bytes.NewReader(body))
	if err != nil {
		return provider.Failed(p.id, provider.KindTransportFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return provider.Failed(p.id, provider.KindTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Failed(p.id, provider.KindTransportFailure, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return provider.Failed(p.id, provider.KindParseFailure, err)
	}

	if parsed.Error != nil {
		return provider.Failed(p.id, provider.KindProviderError,
			fmt.Errorf("bugzilla error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}

	count := 0
	for _, flag := range parsed.Result.Result.Requestee {
		if flag.Type == "review" {
			count++
		}
	}
	return provider.Success(p.id, count)
}
