// Package signing signs outgoing requests with AWS Signature Version 4.
package signing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// Credentials configures SigV4 signing.
type Credentials struct {
	Key          string `yaml:"key"`
	Secret       string `yaml:"secret"`
	SessionToken string `yaml:"token"`
	Service      string `yaml:"service"`
	Region       string `yaml:"region"`
}

// ErrIncomplete reports credentials missing a required part.
var ErrIncomplete = errors.New("signing: key, secret, service and region are required")

// Signer signs requests in place.
type Signer struct {
	creds   aws.Credentials
	service string
	region  string
	signer  *v4.Signer
	now     func() time.Time
}

// New validates c and returns a Signer.
func New(c Credentials) (*Signer, error) {
	if c.Key == "" || c.Secret == "" || c.Service == "" || c.Region == "" {
		return nil, ErrIncomplete
	}
	return &Signer{
		creds: aws.Credentials{
			AccessKeyID:     c.Key,
			SecretAccessKey: c.Secret,
			SessionToken:    c.SessionToken,
			Source:          "httpbrowser",
		},
		service: c.Service,
		region:  c.Region,
		signer:  v4.NewSigner(),
		now:     time.Now,
	}, nil
}

// WithClock returns a copy of s that signs with the given clock.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Sign adds the Authorization, X-Amz-Date and, with temporary credentials,
// X-Amz-Security-Token headers. The body stays readable afterwards.
func (s *Signer) Sign(ctx context.Context, req *http.Request) error {
	payload, err := rewindBody(req)
	if err != nil {
		return fmt.Errorf("read body for signing: %w", err)
	}
	sum := sha256.Sum256(payload)
	if err := s.signer.SignHTTP(ctx, s.creds, req, hex.EncodeToString(sum[:]), s.service, s.region, s.now().UTC()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}

func rewindBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	b, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return b, nil
}
