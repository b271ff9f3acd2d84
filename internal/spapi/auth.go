package spapi

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultSTSURL is the security token service endpoint for SharePoint Online
// user-credential authentication. Overridable for tests and sovereign clouds.
const DefaultSTSURL = "https://login.microsoftonline.com/extSTS.srf"

// signinPath is the federated sign-in endpoint on the SharePoint host that
// exchanges a binary security token for the FedAuth/rtFa session cookies.
const signinPath = "/_forms/default.aspx?wa=wsignin1.0"

// sharePointPrincipal is the well-known service principal ID of SharePoint
// Online, used to build the ACS resource identifier for app-only auth.
const sharePointPrincipal = "00000003-0000-0ff1-ce00-000000000000"

// stsEnvelope is the WS-Trust RequestSecurityToken document posted to the
// STS. Placeholders: username, password, site URL (all XML-escaped).
const stsEnvelope = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"
    xmlns:a="http://www.w3.org/2005/08/addressing"
    xmlns:u="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd">
  <s:Header>
    <a:Action s:mustUnderstand="1">http://schemas.xmlsoap.org/ws/2005/02/trust/RST/Issue</a:Action>
    <a:ReplyTo><a:Address>http://www.w3.org/2005/08/addressing/anonymous</a:Address></a:ReplyTo>
    <a:To s:mustUnderstand="1">https://login.microsoftonline.com/extSTS.srf</a:To>
    <o:Security s:mustUnderstand="1" xmlns:o="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd">
      <o:UsernameToken>
        <o:Username>%s</o:Username>
        <o:Password>%s</o:Password>
      </o:UsernameToken>
    </o:Security>
  </s:Header>
  <s:Body>
    <t:RequestSecurityToken xmlns:t="http://schemas.xmlsoap.org/ws/2005/02/trust">
      <wsp:AppliesTo xmlns:wsp="http://schemas.xmlsoap.org/ws/2004/09/policy">
        <a:EndpointReference><a:Address>%s</a:Address></a:EndpointReference>
      </wsp:AppliesTo>
      <t:KeyType>http://schemas.xmlsoap.org/ws/2005/05/identity/NoProofKey</t:KeyType>
      <t:RequestType>http://schemas.xmlsoap.org/ws/2005/02/trust/Issue</t:RequestType>
      <t:TokenType>urn:oasis:names:tc:SAML:1.0:assertion</t:TokenType>
    </t:RequestSecurityToken>
  </s:Body>
</s:Envelope>`

// CookieAuthorizer carries the FedAuth and rtFa session cookies captured
// during user-credential sign-in. It implements Authorizer.
type CookieAuthorizer struct {
	cookies []*http.Cookie
}

// Authorize attaches the session cookies to the request.
func (a *CookieAuthorizer) Authorize(req *http.Request) error {
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	return nil
}

// AuthenticateUser performs SharePoint Online user-credential authentication:
// it requests a binary security token from the STS and exchanges it at the
// site host's sign-in endpoint for session cookies. stsURL may be empty, in
// which case DefaultSTSURL is used.
//
// Rejected credentials surface as ErrAuthFailed; the caller decides whether
// to treat that as fatal. No retries are performed.
func AuthenticateUser(
	ctx context.Context,
	httpClient *http.Client,
	siteURL, username, password, stsURL string,
	logger *slog.Logger,
) (*CookieAuthorizer, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	if stsURL == "" {
		stsURL = DefaultSTSURL
	}

	logger.Info("authenticating user",
		slog.String("site", siteURL),
		slog.String("username", username),
	)

	token, err := requestSecurityToken(ctx, httpClient, stsURL, siteURL, username, password)
	if err != nil {
		return nil, err
	}

	cookies, err := signIn(ctx, httpClient, siteURL, token)
	if err != nil {
		return nil, err
	}

	logger.Info("user authentication succeeded",
		slog.String("site", siteURL),
	)

	return &CookieAuthorizer{cookies: cookies}, nil
}

// requestSecurityToken posts the WS-Trust envelope to the STS and extracts
// the binary security token from the response.
func requestSecurityToken(
	ctx context.Context,
	httpClient *http.Client,
	stsURL, siteURL, username, password string,
) (string, error) {
	envelope := fmt.Sprintf(stsEnvelope,
		xmlEscape(username), xmlEscape(password), xmlEscape(siteURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, stsURL, strings.NewReader(envelope))
	if err != nil {
		return "", fmt.Errorf("spapi: creating STS request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spapi: STS request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("spapi: reading STS response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spapi: STS returned HTTP %d: %w", resp.StatusCode, ErrAuthFailed)
	}

	token, fault := parseSTSResponse(body)
	if token == "" {
		if fault != "" {
			return "", fmt.Errorf("spapi: STS rejected credentials: %s: %w", fault, ErrAuthFailed)
		}

		return "", fmt.Errorf("spapi: STS response contained no security token: %w", ErrAuthFailed)
	}

	return token, nil
}

// parseSTSResponse walks the STS response XML and returns the binary
// security token, or the fault text when the STS rejected the request.
func parseSTSResponse(body []byte) (token, fault string) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var inToken, inFault bool

	for {
		tok, err := dec.Token()
		if err != nil {
			return token, fault
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "BinarySecurityToken":
				inToken = true
			case "text", "faultstring", "internalerror":
				inFault = true
			}
		case xml.EndElement:
			inToken = false
			inFault = false
		case xml.CharData:
			text := strings.TrimSpace(string(el))
			if text == "" {
				continue
			}

			if inToken {
				token = text
			}

			if inFault && fault == "" {
				fault = text
			}
		}
	}
}

// signIn posts the security token to the site host's federated sign-in
// endpoint and collects the FedAuth and rtFa session cookies.
func signIn(ctx context.Context, httpClient *http.Client, siteURL, token string) ([]*http.Cookie, error) {
	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("spapi: parsing site URL %q: %w", siteURL, err)
	}

	signinURL := site.Scheme + "://" + site.Host + signinPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signinURL, strings.NewReader(token))
	if err != nil {
		return nil, fmt.Errorf("spapi: creating sign-in request: %w", err)
	}

	// The sign-in endpoint answers with a redirect carrying the session
	// cookies. The redirect itself must not be followed: the cookies are on
	// this response.
	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spapi: sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return nil, fmt.Errorf("spapi: draining sign-in response: %w", drainErr)
	}

	var session []*http.Cookie

	for _, c := range resp.Cookies() {
		if c.Name == "FedAuth" || c.Name == "rtFa" {
			session = append(session, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	if len(session) == 0 {
		return nil, fmt.Errorf("spapi: sign-in returned no session cookies: %w", ErrAuthFailed)
	}

	return session, nil
}

// xmlEscape escapes a string for safe interpolation into an XML document.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails on writer errors, which bytes.Buffer never returns.
	_ = xml.EscapeText(&buf, []byte(s)) //nolint:errcheck

	return buf.String()
}

// AppCredentials holds the ACS app-only (client credentials) parameters.
// TokenURL may be empty, in which case the well-known ACS endpoint for the
// tenant is used.
type AppCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// BearerAuthorizer authorizes requests with an OAuth2 bearer token obtained
// via the ACS client-credentials flow. It implements Authorizer.
type BearerAuthorizer struct {
	src oauth2.TokenSource
}

// Authorize attaches a bearer token to the request, refreshing it through
// the underlying token source as needed.
func (a *BearerAuthorizer) Authorize(req *http.Request) error {
	tok, err := a.src.Token()
	if err != nil {
		return fmt.Errorf("spapi: obtaining app token: %w", err)
	}

	tok.SetAuthHeader(req)

	return nil
}

// NewAppAuthorizer builds a BearerAuthorizer for SharePoint app-only access
// to the given site. ctx must outlive the authorizer: the oauth2 token
// source binds it for silent token refresh.
func NewAppAuthorizer(ctx context.Context, siteURL string, creds AppCredentials) (*BearerAuthorizer, error) {
	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("spapi: parsing site URL %q: %w", siteURL, err)
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://accounts.accesscontrol.windows.net/%s/tokens/OAuth/2", creds.TenantID)
	}

	cfg := clientcredentials.Config{
		ClientID:     fmt.Sprintf("%s@%s", creds.ClientID, creds.TenantID),
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		EndpointParams: url.Values{
			"resource": {fmt.Sprintf("%s/%s@%s", sharePointPrincipal, site.Host, creds.TenantID)},
		},
	}

	return &BearerAuthorizer{src: cfg.TokenSource(ctx)}, nil
}
