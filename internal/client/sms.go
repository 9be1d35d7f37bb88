package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// SMSClient 短信网关：POST {to, from, text}
type SMSClient struct {
	URL    string
	Key    string
	Sender string
	hc     *http.Client
}

func NewSMSClient(url, key, sender string) *SMSClient {
	return &SMSClient{URL: url, Key: key, Sender: sender, hc: newHTTPClient()}
}

func (s *SMSClient) Send(ctx context.Context, to, text string) error {
	body, err := json.Marshal(map[string]string{"to": to, "from": s.Sender, "text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Key)
	return doJSON(ctx, s.hc, req, nil)
}
