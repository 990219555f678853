package sync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Destination(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	d := &S3Destination{client: fake, bucket: "backups", key: "taskgrid/backup.jsonl"}

	if d.Name() != "s3://backups/taskgrid/backup.jsonl" {
		t.Errorf("Name() = %q", d.Name())
	}
	if _, err := d.Open(ctx); err == nil {
		t.Fatal("expected error opening missing object")
	}
	if err := d.Write(ctx, []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rc, err := d.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "payload" {
		t.Errorf("content = %q", got)
	}

	fake.putErr = errors.New("access denied")
	if err := d.Write(ctx, []byte("x")); err == nil || !strings.Contains(err.Error(), "s3 put object") {
		t.Errorf("expected wrapped put error, got %v", err)
	}
}
