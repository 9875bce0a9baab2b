package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	body []byte
	meta map[string]string
	etag string
}

// fakeS3 honours If-Match / If-None-Match like a real bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	seq     int
	// beforePut runs once before the next PutObject is evaluated.
	beforePut func()
	putErr    error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(o.body)), Metadata: o.meta, ETag: aws.String(o.etag)}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &s3.HeadObjectOutput{Metadata: o.meta, ETag: aws.String(o.etag)}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if hook := f.beforePut; hook != nil {
		f.beforePut = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}

	key := aws.ToString(in.Key)
	cur, exists := f.objects[key]
	if in.IfNoneMatch != nil && exists {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	if in.IfMatch != nil && (!exists || cur.etag != aws.ToString(in.IfMatch)) {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}

	body, _ := io.ReadAll(in.Body)
	f.seq++
	f.objects[key] = fakeObject{body: body, meta: in.Metadata, etag: fmt.Sprintf("etag-%d", f.seq)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3_PutGet(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3(fake, "fhegame")

	e, err := s.Get(ctx, "game_keys")
	require.NoError(t, err)
	assert.Equal(t, Entry{}, e)

	v, err := s.Put(ctx, Mutation{TxID: "tx-1", Key: "game_keys", Value: []byte(`["a"]`), Signer: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = s.Put(ctx, Mutation{TxID: "tx-2", Key: "game_keys", Value: []byte(`["a","b"]`), Signer: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	e, err = s.Get(ctx, "game_keys")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a","b"]`), e.Value)
	assert.Equal(t, uint64(2), e.Version)

	obj := fake.objects["ledger/game_keys"]
	assert.Equal(t, "0xabc", obj.meta["signer"])
	assert.Equal(t, "tx-2", obj.meta["txid"])
}

func TestS3_PutIfVersion(t *testing.T) {
	ctx := context.Background()
	s := newS3(newFakeS3(), "fhegame")

	v, err := s.PutIfVersion(ctx, Mutation{Key: "k", Value: []byte("a")}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	_, err = s.PutIfVersion(ctx, Mutation{Key: "k", Value: []byte("b")}, 0)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	v, err = s.PutIfVersion(ctx, Mutation{Key: "k", Value: []byte("b")}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}

func TestS3_PutIfVersion_RaceLosesOnPrecondition(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3(fake, "fhegame")

	_, err := s.Put(ctx, Mutation{Key: "k", Value: []byte("a")})
	require.NoError(t, err)

	fake.beforePut = func() {
		_, err := s.Put(ctx, Mutation{Key: "k", Value: []byte("other")})
		require.NoError(t, err)
	}

	_, err = s.PutIfVersion(ctx, Mutation{Key: "k", Value: []byte("mine")}, 1)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	e, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), e.Value)
}

func TestS3_PutError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	s := newS3(fake, "fhegame")

	_, err := s.Put(context.Background(), Mutation{Key: "k", Value: []byte("a")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrVersionConflict)
}

func TestOpenS3_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var endpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		endpoint = aws.ToString(o.BaseEndpoint)
		return &s3.Client{}
	}

	s, err := OpenS3(context.Background(), S3Config{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		BaseEndpoint: "http://127.0.0.1:9000",
		Bucket:       "fhegame",
	})
	require.NoError(t, err)
	assert.Equal(t, "fhegame", s.bucket)
	assert.Equal(t, "http://127.0.0.1:9000", endpoint)
}

func TestOpenS3_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}
	_, err := OpenS3(context.Background(), S3Config{})
	require.Error(t, err)
}
