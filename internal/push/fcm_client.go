package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// Android notification decorations applied to every message.
const (
	androidIcon  = "ic_notification"
	androidColor = "#007AFF"
	defaultSound = "default"
)

// NewFCMClient builds a Pusher backed by Firebase Cloud Messaging.
func NewFCMClient(ctx context.Context, opts Options) (Pusher, error) {
	if opts.ProjectID == "" {
		return nil, ErrMissingProjectID
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("create messaging client: %w", err)
	}

	return &fcmClient{client: client}, nil
}

type fcmClient struct {
	client *messaging.Client
}

func (c *fcmClient) Send(ctx context.Context, messages []Message) (Report, error) {
	if len(messages) == 0 {
		return Report{}, nil
	}

	payload := make([]*messaging.Message, 0, len(messages))
	for _, msg := range messages {
		badge := msg.Badge
		payload = append(payload, &messaging.Message{
			Token: msg.Token,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
			Android: &messaging.AndroidConfig{
				Notification: &messaging.AndroidNotification{
					Icon:  androidIcon,
					Color: androidColor,
					Sound: defaultSound,
				},
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Badge: &badge,
						Sound: defaultSound,
					},
				},
			},
		})
	}

	batch, err := c.client.SendAll(ctx, payload)
	if err != nil {
		return Report{}, fmt.Errorf("send %d push messages: %w", len(payload), err)
	}

	report := Report{
		SuccessCount: batch.SuccessCount,
		FailureCount: batch.FailureCount,
	}
	for i, resp := range batch.Responses {
		report.Outcomes = append(report.Outcomes, Outcome{
			Token: messages[i].Token,
			Err:   resp.Error,
		})
	}
	return report, nil
}
