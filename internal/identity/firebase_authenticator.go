package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

// Options configures the Firebase-backed authenticator.
type Options struct {
	ProjectID       string
	CredentialsFile string
}

// NewFirebaseAuthenticator builds an Authenticator that verifies Firebase
// Auth ID tokens.
func NewFirebaseAuthenticator(ctx context.Context, opts Options) (Authenticator, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("create auth client: %w", err)
	}

	return &firebaseAuthenticator{client: client}, nil
}

type firebaseAuthenticator struct {
	client *auth.Client
}

func (a *firebaseAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoCredential
	}
	verified, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return verified.UID, nil
}
