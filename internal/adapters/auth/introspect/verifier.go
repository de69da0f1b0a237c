package introspect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pawpal/internal/platform/httpclient"
	"pawpal/internal/platform/logger"
	"pawpal/internal/ports/auth"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrNotConfigured = errors.New("introspection not configured")
	ErrUnauthorized  = errors.New("token rejected")
	ErrUpstream      = errors.New("introspection upstream error")
)

const (
	DefaultPath         = "/v1/tokens/verify"
	DefaultAPIKeyHeader = "X-Api-Key"
	DefaultCacheTTL     = time.Minute
	defaultCacheSize    = 1024
)

// Config del endpoint de introspección (IAM externo).
type Config struct {
	BaseURL      string
	Path         string // default DefaultPath
	APIKey       string
	APIKeyHeader string // default X-Api-Key
	Timeout      time.Duration

	// CacheTTL: cuánto se reusan claims de un token ya verificado. <0 desactiva.
	CacheTTL time.Duration
}

// Verifier implementa auth.AuthVerifier contra el endpoint de introspección.
// Los tokens aceptados se cachean por hash; los rechazados no.
type Verifier struct {
	http   *httpclient.Client
	path   string
	apiKey string
	header string
	cache  *expirable.LRU[string, auth.Claims]
	log    logger.Logger
}

func New(cfg Config, log logger.Logger) (*Verifier, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	hc, err := httpclient.New(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	v := &Verifier{
		http:   hc,
		path:   strings.TrimSpace(cfg.Path),
		apiKey: strings.TrimSpace(cfg.APIKey),
		header: strings.TrimSpace(cfg.APIKeyHeader),
		log:    log,
	}
	if v.path == "" {
		v.path = DefaultPath
	}
	if v.header == "" {
		v.header = DefaultAPIKeyHeader
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > 0 {
		v.cache = expirable.NewLRU[string, auth.Claims](defaultCacheSize, nil, ttl)
	}
	return v, nil
}

type verifyResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	key := tokenKey(token)
	if v.cache != nil {
		if c, ok := v.cache.Get(key); ok {
			return c, nil
		}
	}

	var out verifyResponse
	err := v.http.DoJSON(ctx, http.MethodPost, v.path,
		map[string]string{
			v.header:        v.apiKey,
			"Authorization": "Bearer " + token,
		},
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrUnauthorized
		}
		v.log.Warn("token introspection failed", map[string]any{"error": err})
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	claims := auth.Claims{
		UserID: strings.TrimSpace(out.UserID),
		Email:  strings.TrimSpace(out.Email),
	}
	if claims.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}

	if v.cache != nil {
		v.cache.Add(key, claims)
	}
	return claims, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
