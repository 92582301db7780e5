package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Credentials holds the exchange login material. A non-empty CertPath
// selects the certificate-based login variant over the interactive one
// (§9: "interactive vs certificate login is modelled as a variant with two
// constructors; which one is used is determined by the presence of a
// certificate path in configuration").
type Credentials struct {
	Username    string
	Password    string
	AppKey      string
	CertPath    string
	CertKeyPath string
}

// sessionResponseDTO is the upstream login endpoint's response envelope.
type sessionResponseDTO struct {
	SessionToken string `json:"sessionToken"`
	LoginStatus  string `json:"loginStatus"`
}

// authenticator obtains a fresh session token. Exactly one of the two
// constructors below is used per gateway instance, chosen by NewAuthenticator.
type authenticator struct {
	creds    Credentials
	loginURL string
	http     *http.Client
	certMode bool
}

// NewAuthenticator picks the certificate or interactive login variant based
// on whether creds carries a certificate path (§9).
func NewAuthenticator(creds Credentials, loginURL string) (*authenticator, error) {
	if creds.CertPath != "" {
		return newCertificateAuthenticator(creds, loginURL)
	}
	return newInteractiveAuthenticator(creds, loginURL)
}

// newInteractiveAuthenticator logs in with username/password/app-key over a
// plain HTTPS POST.
func newInteractiveAuthenticator(creds Credentials, loginURL string) (*authenticator, error) {
	return &authenticator{
		creds:    creds,
		loginURL: loginURL,
		http:     &http.Client{},
		certMode: false,
	}, nil
}

// newCertificateAuthenticator logs in using mutual-TLS client certificate
// authentication, required by exchanges that mandate non-interactive
// sessions for automated clients.
func newCertificateAuthenticator(creds Credentials, loginURL string) (*authenticator, error) {
	cert, err := tls.LoadX509KeyPair(creds.CertPath, creds.CertKeyPath)
	if err != nil {
		return nil, fmt.Errorf("gateway: load client certificate: %w", err)
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
	}
	return &authenticator{
		creds:    creds,
		loginURL: loginURL,
		http:     &http.Client{Transport: transport},
		certMode: true,
	}, nil
}

// Login performs the login handshake and returns a fresh session token
// (§4.1). The exact wire shape of the handshake is an external collaborator
// per the scope note in §1; this implements only the contract the rest of
// the gateway depends on.
func (a *authenticator) Login(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("username", a.creds.Username)
	form.Set("password", a.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("gateway: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Application", a.creds.AppKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", &Error{Kind: ErrServiceUnavailable, Op: "auth.Login", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &Error{Kind: classifyStatus(resp.StatusCode), Op: "auth.Login"}
	}

	var out sessionResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gateway: decode login response: %w", err)
	}
	if out.SessionToken == "" {
		return "", &Error{Kind: ErrInvalidSession, Op: "auth.Login"}
	}
	return out.SessionToken, nil
}
