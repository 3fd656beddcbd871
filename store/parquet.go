// Package store persists result chunks as parquet, locally or to S3.
package store

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gigapi/gigagroup/frame"
)

// WriteParquet writes one chunk to a parquet file.
func WriteParquet(filename string, chunk *frame.Chunk) error {
	record, err := chunk.Record(nil)
	if err != nil {
		return err
	}
	defer record.Release()

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	writerProps := parquet.NewWriterProperties(
		parquet.WithMaxRowGroupLength(8124),
	)
	arrprops := pqarrow.NewArrowWriterProperties()
	writer, err := pqarrow.NewFileWriter(chunk.ArrowSchema(), f, writerProps, arrprops)
	if err != nil {
		return err
	}
	defer writer.Close()
	return writer.Write(record)
}

// FSSave drops result files under one directory, named by uuid.
type FSSave struct {
	Path string
}

func (s *FSSave) Save(chunk *frame.Chunk) (string, error) {
	uid, err := uuid.NewUUID()
	if err != nil {
		return "", err
	}
	filename := path.Join(s.Path, uid.String()+".parquet")
	if err := WriteParquet(filename, chunk); err != nil {
		return "", err
	}
	return filename, nil
}

// S3Save writes the chunk to a temp file and uploads it.
type S3Save struct {
	URL    string
	Key    string
	Secret string
	Bucket string
	Region string
	Path   string
	Secure bool
}

func (s *S3Save) Save(ctx context.Context, chunk *frame.Chunk) (string, error) {
	uid, err := uuid.NewUUID()
	if err != nil {
		return "", err
	}
	tmpFileName := path.Join(os.TempDir(), uid.String()+".parquet")
	if err := WriteParquet(tmpFileName, chunk); err != nil {
		return "", err
	}
	defer os.Remove(tmpFileName)

	key, err := s.upload(ctx, tmpFileName)
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Save) upload(ctx context.Context, filePath string) (string, error) {
	minioClient, err := minio.New(s.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(s.Key, s.Secret, ""),
		Secure: s.Secure,
		Region: s.Region,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create minio client: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	s3Key := path.Join(s.Path, path.Base(filePath))
	_, err = minioClient.PutObject(ctx, s.Bucket, s3Key, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return s3Key, nil
}
