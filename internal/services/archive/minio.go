// Package archive stores raw gateway notifications in object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type MinioArchive struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

func NewMinioArchive(client *minio.Client, bucket string) *MinioArchive {
	return &MinioArchive{client: client, bucket: bucket, now: time.Now}
}

// Store writes body under notifications/<orderId>/<unix-nanos>-<uuid>.json.
func (a *MinioArchive) Store(ctx context.Context, orderID string, body []byte) error {
	key := ObjectKey(orderID, a.now(), uuid.New())
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func ObjectKey(orderID string, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("notifications/%s/%d-%s.json", orderID, at.UnixNano(), id)
}
