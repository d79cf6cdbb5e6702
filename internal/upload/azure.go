package upload

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Store = (*AzureStore)(nil)

// AzureStore keeps documents as block blobs in one container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

func NewAzureStore(accountName, accountKey, serviceURL, container string) (*AzureStore, error) {
	if container == "" {
		return nil, errors.New("container is required")
	}

	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, err
	}

	return NewAzureStoreFromClient(client, container), nil
}

// container must belong to the storage account of client
func NewAzureStoreFromClient(client *azblob.Client, container string) *AzureStore {
	return &AzureStore{client: client, container: container}
}

func (s *AzureStore) blob(key string) *blob.Client {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
}

func (s *AzureStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	ctx, span := tracer.Start(ctx, "AzureStore.Put", trace.WithAttributes(
		attribute.String("container", s.container),
		attribute.String("key", key),
		attribute.Int("size", len(body)),
	))
	defer span.End()

	_, err := s.client.UploadStream(ctx, s.container, key, bytes.NewReader(body), &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload blob")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded blob")
	return nil
}

func (s *AzureStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "AzureStore.Exists", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	_, err := s.blob(key).GetProperties(ctx, nil)
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "no such blob")
		return false, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read blob properties")
		return false, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found blob")
	return true, nil
}

func (s *AzureStore) Location() string {
	return s.container
}

// ReadLink signs a read-only SAS for the blob. It is computed locally from
// the shared key.
func (s *AzureStore) ReadLink(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_, span := tracer.Start(ctx, "AzureStore.ReadLink", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("ttl", ttl.String()),
	))
	defer span.End()

	link, err := s.blob(key).GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(ttl), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to sign blob url")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return link, nil
}
