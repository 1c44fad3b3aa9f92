// Package phabricator checks a Phabricator instance for revisions waiting on
// the signed-in user. Phabricator has no JSON endpoint for the dashboard
// buckets we care about, so the check scrapes the active revisions page.
package phabricator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reviewbadge/reviewbadge/pkg/provider"
)

const (
	// SessionCookie is the Phabricator web session cookie name.
	SessionCookie = "phsid"

	dashboardPath = "/differential/query/active/"
)

// Panel headers that count toward the badge. Anything else on the page
// ("Waiting on Author", "Drafts", ...) is the user's own queue, not work
// someone is waiting on them for.
var reviewHeaders = map[string]bool{
	"Must Review":     true,
	"Ready to Review": true,
}

// CredentialFunc supplies the current session token, or "" when the user has
// no Phabricator session configured.
type CredentialFunc func() string

type PhabricatorProvider struct {
	id      provider.ProviderID
	baseURL *url.URL
	cred    CredentialFunc
	jar     http.CookieJar
	client  *http.Client
}

// NewProvider creates a Phabricator provider rooted at baseURL.
// The returned error is non-nil only for an unparseable base URL.
func NewProvider(baseURL string, cred CredentialFunc) (*PhabricatorProvider, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid phabricator base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &PhabricatorProvider{
		id:      provider.Phabricator,
		baseURL: base,
		cred:    cred,
		jar:     jar,
		// Redirects are followed by default; the dashboard path redirects
		// through the login flow when the session is stale.
		client: &http.Client{Timeout: 15 * time.Second, Jar: jar},
	}, nil
}

func (p *PhabricatorProvider) ID() provider.ProviderID {
	return p.id
}

// hasSession syncs the jar with the credential source and probes it for a
// session cookie scoped to the provider origin. A removed credential
// expires any previously seeded session so the provider goes back to
// not-configured instead of reusing the stale cookie.
func (p *PhabricatorProvider) hasSession() bool {
	token := p.cred()
	if token == "" {
		p.jar.SetCookies(p.baseURL, []*http.Cookie{{Name: SessionCookie, MaxAge: -1}})
		return false
	}
	p.jar.SetCookies(p.baseURL, []*http.Cookie{{Name: SessionCookie, Value: token}})
	for _, c := range p.jar.Cookies(p.baseURL) {
		if c.Name == SessionCookie && c.Value != "" {
			return true
		}
	}
	return false
}

func (p *PhabricatorProvider) Check(ctx context.Context) provider.CheckResult {
	// No session means the user never set this provider up. Contribute
	// zero without touching the network.
	if !p.hasSession() {
		return provider.Skipped(p.id)
	}

	u := p.baseURL.JoinPath(dashboardPath)
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return provider.Failed(p.id, provider.KindTransportFailure, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return provider.Failed(p.id, provider.KindTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Failed(p.id, provider.KindTransportFailure, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return provider.Failed(p.id, provider.KindParseFailure, err)
	}

	return provider.Success(p.id, countReviews(doc))
}

// countReviews sums the rows of every dashboard panel whose header exactly
// matches one of the review buckets. Zero matching panels is a valid page
// with nothing to review, not a parse failure.
func countReviews(doc *goquery.Document) int {
	total := 0
	doc.Find(".phui-header-header").Each(func(_ int, header *goquery.Selection) {
		if !reviewHeaders[strings.TrimSpace(header.Text())] {
			return
		}
		panel := header.Closest(".phui-box")
		total += panel.Find(".phui-oi-table-row").Length()
	})
	return total
}
