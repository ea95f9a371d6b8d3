package transport

import (
	"context"
	"fmt"
	"net/http"

	"voicebook/pkg/client"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

type smsRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// SMSTransport delivers jobs through an HTTP SMS gateway. 4xx responses
// are permanent (the provider will never accept this message); 5xx and
// network errors are transient.
type SMSTransport struct {
	client *client.HttpClient
	token  string
	log    *logger.Logger
}

func NewSMSTransport(providerURL, providerToken string, log *logger.Logger) *SMSTransport {
	return &SMSTransport{
		client: client.NewHttpClient(providerURL),
		token:  providerToken,
		log:    log,
	}
}

func (t *SMSTransport) Deliver(ctx context.Context, job *model.NotificationJob) (*Result, error) {
	req := smsRequest{
		To:   job.Recipient,
		Body: job.Payload,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + t.token,
	}

	resp, err := t.client.POSTWithHeaders(ctx, "/v1/messages", req, headers)
	if err != nil {
		return nil, fmt.Errorf("sms provider request failed: %w", err)
	}

	var body smsResponse
	if decodeErr := resp.DecodeJSON(&body); decodeErr != nil {
		body = smsResponse{}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Result{ProviderRef: body.MessageID}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return nil, Permanent(fmt.Errorf("sms provider rejected message: status %d: %s", resp.StatusCode, body.Error))
	default:
		return nil, fmt.Errorf("sms provider unavailable: status %d", resp.StatusCode)
	}
}
