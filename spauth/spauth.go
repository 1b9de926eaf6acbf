// Package spauth builds the certificate-authenticated SharePoint REST client and the
// Microsoft Graph credential from one app registration.
package spauth

import (
	"fmt"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/auth/azurecert"
)

// Config identifies the app registration and its certificate.
type Config struct {
	SiteURL      string
	TenantID     string
	ClientID     string
	CertPath     string
	CertPassword string
}

// FromEnv reads the SP_* variables. godotenv has already populated the environment.
func FromEnv() (Config, error) {
	cfg := Config{CertPassword: os.Getenv("SP_CERT_PASSWORD")}
	required := []struct {
		env string
		dst *string
	}{
		{"SP_SITE_URL", &cfg.SiteURL},
		{"SP_TENANT_ID", &cfg.TenantID},
		{"SP_CLIENT_ID", &cfg.ClientID},
		{"SP_CERT_PATH", &cfg.CertPath},
	}

	var missing []string
	for _, r := range required {
		*r.dst = strings.TrimSpace(os.Getenv(r.env))
		if *r.dst == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("missing SharePoint settings: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// NewClient returns the gosip client used for ad-hoc SharePoint REST requests.
func NewClient(cfg Config) (*gosip.SPClient, error) {
	if cfg.SiteURL == "" {
		return nil, fmt.Errorf("site URL is required")
	}
	return &gosip.SPClient{AuthCnfg: &azurecert.AuthCnfg{
		SiteURL:  cfg.SiteURL,
		TenantID: cfg.TenantID,
		ClientID: cfg.ClientID,
		CertPath: cfg.CertPath,
		CertPass: cfg.CertPassword,
	}}, nil
}

// NewGraphCredential loads the same certificate for Microsoft Graph.
func NewGraphCredential(cfg Config) (*azidentity.ClientCertificateCredential, error) {
	data, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate %s: %w", cfg.CertPath, err)
	}

	var password []byte
	if cfg.CertPassword != "" {
		password = []byte(cfg.CertPassword)
	}
	certs, key, err := azidentity.ParseCertificates(data, password)
	if err != nil {
		return nil, fmt.Errorf("parse certificate %s: %w", cfg.CertPath, err)
	}

	cred, err := azidentity.NewClientCertificateCredential(cfg.TenantID, cfg.ClientID, certs, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create graph credential: %w", err)
	}
	return cred, nil
}
