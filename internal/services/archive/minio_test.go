package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.bucket, f.key, f.contentType = bucket, object, opts.ContentType
	f.body, _ = io.ReadAll(r)
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c1b9e-6a53-4f43-9b8e-7c1f7d5b0a11")
	at := time.Unix(0, 1700000000123456789)

	assert.Equal(t, "notifications/TNC-1-ab12/1700000000123456789-6f1c1b9e-6a53-4f43-9b8e-7c1f7d5b0a11.json",
		ObjectKey("TNC-1-ab12", at, id))
}

func TestStore(t *testing.T) {
	putter := &fakePutter{}
	a := &MinioArchive{client: putter, bucket: "payment-notifications", now: time.Now}

	err := a.Store(context.Background(), "TNC-1-ab12", []byte(`{"order_id":"TNC-1-ab12"}`))

	require.NoError(t, err)
	assert.Equal(t, "payment-notifications", putter.bucket)
	assert.Contains(t, putter.key, "notifications/TNC-1-ab12/")
	assert.Equal(t, "application/json", putter.contentType)
	assert.JSONEq(t, `{"order_id":"TNC-1-ab12"}`, string(putter.body))
}

func TestStore_Error(t *testing.T) {
	a := &MinioArchive{client: &fakePutter{err: errors.New("access denied")}, bucket: "b", now: time.Now}

	assert.Error(t, a.Store(context.Background(), "TNC-1-ab12", []byte("{}")))
}
