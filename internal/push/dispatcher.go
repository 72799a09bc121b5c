package push

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeRejected  Outcome = "rejected" // 4xx: endpoint is stale, caller should drop it
	OutcomeError     Outcome = "error"    // 5xx, signing failure or transport error
)

// Target is one (subject, endpoint) pair to deliver to.
type Target struct {
	SubjectID int64
	Endpoint  string
}

// DispatchResult is the per-attempt outcome. Delivery failures are data,
// not errors: one result per attempt, always.
type DispatchResult struct {
	SubjectID  int64
	Endpoint   string
	Outcome    Outcome
	HTTPStatus int
	Err        error
}

type Dispatcher struct {
	client *http.Client
	ttl    int // seconds, TTL header value
}

func NewDispatcher(client *http.Client, ttlSeconds int) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}
	return &Dispatcher{client: client, ttl: ttlSeconds}
}

// Dispatch sends one payload to one endpoint. The returned error is non-nil
// only for a malformed target (empty or unparseable endpoint); everything
// that can happen while delivering lands in the DispatchResult. No retries
// here: retry policy belongs to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, target Target, payload []byte, creds Credentials) (DispatchResult, error) {
	res := DispatchResult{SubjectID: target.SubjectID, Endpoint: target.Endpoint}

	if target.Endpoint == "" {
		return res, fmt.Errorf("push: target without endpoint")
	}
	u, err := url.Parse(target.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return res, fmt.Errorf("push: bad endpoint %q", target.Endpoint)
	}

	// The token audience is the push service origin, not the full endpoint.
	token, err := SignToken(u.Scheme+"://"+u.Host, creds)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = err
		return res, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint, bytes.NewReader(payload))
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = err
		return res, nil
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Urgency", "normal")
	req.Header.Set("Authorization", "vapid t="+token+", k="+creds.PublicKey)
	// Non-canonical casing required by the Web Push surface.
	req.Header["TTL"] = []string{strconv.Itoa(d.ttl)}

	// TODO: body goes out unencrypted despite the aes128gcm header; RFC 8291
	// encryption against the subscriber's p256dh/auth keys is still missing.

	resp, err := d.client.Do(req)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = err
		return res, nil
	}
	defer func() { _ = resp.Body.Close() }()

	res.HTTPStatus = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Outcome = OutcomeDelivered
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		res.Outcome = OutcomeRejected
	default:
		res.Outcome = OutcomeError
	}
	return res, nil
}
