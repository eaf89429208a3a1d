package s3source

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddionrails/providers"
	"ddionrails/storage"
)

type memoryBucket map[string]string

func (m memoryBucket) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := m[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func (m memoryBucket) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := m[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m memoryBucket) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range m {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestSource(t *testing.T) {
	objects := memoryBucket{
		"soep/ddionrails/study.md":                  "---\n---\n",
		"soep/ddionrails/instruments/q1.json":       "{}",
		"soep/ddionrails/instruments/q2.json":       "{}",
		"soep/ddionrails/instruments/old/q0.json":   "{}",
		"soep/ddionrails/instruments/readme.md":     "",
		"soep-is/ddionrails/instruments/other.json": "{}",
	}
	src := NewSource(storage.NewBucket(objects, "imports"), "soep", "ddionrails")
	ctx := context.Background()

	ok, err := src.Exists(ctx, "study.md")
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := src.Open(ctx, "study.md")
	require.NoError(t, err)
	f.Close()

	_, err = src.Open(ctx, "topics.csv")
	assert.ErrorIs(t, err, providers.ErrNotExist)

	names, err := src.List(ctx, "instruments", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"instruments/q1.json", "instruments/q2.json"}, names)
}
