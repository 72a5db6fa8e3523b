package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient connects to Cloud Firestore. Credentials resolution
// follows the usual Application Default Credentials chain unless an explicit
// service-account file is configured.
func NewFirestoreClient(ctx context.Context, opts Options) (Client, error) {
	if opts.ProjectID == "" {
		return nil, ErrMissingProjectID
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &firestoreClient{client: client}, nil
}

type firestoreClient struct {
	client *firestore.Client
}

func (c *firestoreClient) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := c.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (c *firestoreClient) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q := c.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, string(f.Op), f.Value)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (c *firestoreClient) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := c.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (c *firestoreClient) Create(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := c.client.Collection(collection).Doc(id).Create(ctx, data)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (c *firestoreClient) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := c.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (c *firestoreClient) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	_, err := c.client.Collection(collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Increment(delta)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("increment %s/%s.%s: %w", collection, id, field, err)
	}
	return nil
}

func (c *firestoreClient) BatchWrite(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	batch := c.client.Batch()
	for _, w := range writes {
		col := c.client.Collection(w.Collection)
		ref := col.NewDoc()
		if w.ID != "" {
			ref = col.Doc(w.ID)
		}
		if w.Merge {
			batch.Set(ref, w.Data, firestore.MergeAll)
		} else {
			batch.Set(ref, w.Data)
		}
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch of %d writes: %w", len(writes), err)
	}
	return nil
}

func (c *firestoreClient) VerifyConnectivity(ctx context.Context) error {
	_, err := c.client.Collections(ctx).Next()
	if err != nil && err != iterator.Done {
		return fmt.Errorf("verify store connectivity: %w", err)
	}
	return nil
}

func (c *firestoreClient) Close() error {
	return c.client.Close()
}
