package source

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gigapi/gigagroup/df"
	"github.com/gigapi/gigagroup/frame"
	"github.com/gigapi/gigagroup/tasks"
)

// S3Config points at a set of parquet objects under one prefix.
type S3Config struct {
	URL    string
	Key    string
	Secret string
	Bucket string
	Region string
	Prefix string
	Secure bool
}

// ReadS3 lists the parquet objects under the prefix and wraps each as
// one lazy partition: the object is downloaded and decoded only when
// its partition task runs. The caller supplies the schema, so no
// object is touched at construction time.
func ReadS3(ctx context.Context, cfg S3Config, schema *frame.Schema) (*df.Table, error) {
	client, err := minio.New(cfg.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Key, cfg.Secret, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	var parts []*tasks.Task
	for obj := range client.ListObjects(ctx, cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    cfg.Prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if !strings.HasSuffix(obj.Key, ".parquet") {
			continue
		}
		key := obj.Key
		parts = append(parts, tasks.Defer(func(ctx context.Context, inputs []any) (any, error) {
			return fetchObject(ctx, client, cfg.Bucket, key)
		}))
	}
	if len(parts) == 0 {
		empty, err := schema.EmptyChunk()
		if err != nil {
			return nil, err
		}
		parts = append(parts, tasks.Value(empty))
	}
	return df.New(schema, parts...), nil
}

func fetchObject(ctx context.Context, client *minio.Client, bucket, key string) (*frame.Chunk, error) {
	uid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	tmpFileName := path.Join(os.TempDir(), uid.String()+".parquet")
	if err := client.FGetObject(ctx, bucket, key, tmpFileName, minio.GetObjectOptions{}); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer os.Remove(tmpFileName)

	tbl, err := ReadParquet(tmpFileName)
	if err != nil {
		return nil, err
	}
	return tbl.Collect(ctx)
}
