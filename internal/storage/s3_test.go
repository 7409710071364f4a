package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3 implements S3API for testing.
type mockS3 struct {
	getFunc    func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	putFunc    func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	copyFunc   func(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	deleteFunc func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, params, optFns...)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	if m.copyFunc != nil {
		return m.copyFunc(ctx, params, optFns...)
	}
	return &s3.CopyObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, params, optFns...)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Get(t *testing.T) {
	var captured *s3.GetObjectInput
	store := NewS3Store(&mockS3{
		getFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			captured = params
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("raw message"))}, nil
		},
	}, "email-bucket")

	data, err := store.Get(context.Background(), "inbound/msg-1")
	if err != nil {
		t.Fatalf("Get error = %v, want nil", err)
	}

	if string(data) != "raw message" {
		t.Errorf("data = %q, want %q", data, "raw message")
	}
	if *captured.Bucket != "email-bucket" || *captured.Key != "inbound/msg-1" {
		t.Errorf("input = %s/%s, want email-bucket/inbound/msg-1", *captured.Bucket, *captured.Key)
	}
}

func TestS3Store_Get_NoSuchKey(t *testing.T) {
	store := NewS3Store(&mockS3{
		getFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &types.NoSuchKey{}
		},
	}, "email-bucket")

	_, err := store.Get(context.Background(), "inbound/missing")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("error = %v, want ErrObjectNotFound", err)
	}
}

func TestS3Store_Put(t *testing.T) {
	var captured *s3.PutObjectInput
	var body string
	store := NewS3Store(&mockS3{
		putFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			captured = params
			data, _ := io.ReadAll(params.Body)
			body = string(data)
			return &s3.PutObjectOutput{}, nil
		},
	}, "email-bucket")

	meta := map[string]string{"contentType": "text/plain", "filename": "a.txt"}
	if err := store.Put(context.Background(), "inbound/msg-1/att-1", []byte("hello"), meta); err != nil {
		t.Fatalf("Put error = %v, want nil", err)
	}

	if body != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
	if *captured.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5", *captured.ContentLength)
	}
	if *captured.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want text/plain", *captured.ContentType)
	}
	if captured.Metadata["filename"] != "a.txt" {
		t.Errorf("Metadata = %v, want filename a.txt", captured.Metadata)
	}
}

func TestS3Store_Copy(t *testing.T) {
	var captured *s3.CopyObjectInput
	store := NewS3Store(&mockS3{
		copyFunc: func(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			captured = params
			return &s3.CopyObjectOutput{}, nil
		},
	}, "email-bucket")

	if err := store.Copy(context.Background(), "inbound/msg 1", "received/e/msg 1"); err != nil {
		t.Fatalf("Copy error = %v, want nil", err)
	}

	if *captured.CopySource != "email-bucket/inbound/msg%201" {
		t.Errorf("CopySource = %q, want %q", *captured.CopySource, "email-bucket/inbound/msg%201")
	}
	if *captured.Key != "received/e/msg 1" {
		t.Errorf("Key = %q, want %q", *captured.Key, "received/e/msg 1")
	}
}

func TestS3Store_Delete_Error(t *testing.T) {
	s3Err := errors.New("access denied")
	store := NewS3Store(&mockS3{
		deleteFunc: func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			return nil, s3Err
		},
	}, "email-bucket")

	if err := store.Delete(context.Background(), "inbound/msg-1"); !errors.Is(err, s3Err) {
		t.Errorf("error = %v, want %v", err, s3Err)
	}
}
