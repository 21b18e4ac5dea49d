// Package firestorestore keeps cart values as Firestore documents, one document per key.
package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Rahdeg/alt-commmerce/internal/storage"
)

const (
	envEmulatorHost = "FIRESTORE_EMULATOR_HOST"
	// maxUpdateAttempts bounds transaction retries under contention.
	maxUpdateAttempts = 32
)

type document struct {
	Key       string    `firestore:"key"`
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Store implements storage.Storage on a Firestore collection.
type Store struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
	owned      bool
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Updater = (*Store)(nil)
)

// New dials Firestore. When FIRESTORE_EMULATOR_HOST is set the client library talks to the
// emulator without credentials.
func New(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*Store, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("firestorestore: project id is required")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestorestore: new client: %w", err)
	}
	s, err := NewWithClient(client, collection)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewWithClient wraps a client owned by the caller.
func NewWithClient(client *firestore.Client, collection string) (*Store, error) {
	if client == nil {
		return nil, errors.New("firestorestore: client is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, errors.New("firestorestore: collection is required")
	}
	return &Store{
		client:     client,
		collection: collection,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ref, err := s.doc(key)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestorestore: get %s: %w", key, err)
	}
	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestorestore: decode %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ref, err := s.doc(key)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, document{Key: key, Value: string(value), UpdatedAt: s.now()})
	if err != nil {
		return fmt.Errorf("firestorestore: set %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a Firestore transaction; contention retries the whole transaction.
func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	ref, err := s.doc(key)
	if err != nil {
		return err
	}
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current []byte
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var doc document
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("firestorestore: decode %s: %w", key, err)
			}
			current = []byte(doc.Value)
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return tx.Set(ref, document{Key: key, Value: string(next), UpdatedAt: s.now()})
	}, firestore.MaxAttempts(maxUpdateAttempts))
	if errors.Is(err, storage.ErrUnchanged) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("firestorestore: update %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ref, err := s.doc(key)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestorestore: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the client when the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func (s *Store) doc(key string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(key) == "" {
		return nil, storage.ErrInvalidKey
	}
	return s.client.Collection(s.collection).Doc(docID(key)), nil
}

// docID escapes characters Firestore does not allow in document ids.
func docID(key string) string {
	id := url.PathEscape(key)
	if id == "." || id == ".." || strings.HasPrefix(id, "__") {
		id = "k" + id
	}
	return id
}
