package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 hält Objekte im Speicher; ListObjectsV2 liefert pageSize Schlüssel pro Seite.
type fakeS3 struct {
	objects  map[string]string
	pageSize int
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var matching []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) && key > aws.ToString(in.ContinuationToken) {
			matching = append(matching, key)
		}
	}
	sort.Strings(matching)
	out := &s3.ListObjectsV2Output{}
	if len(matching) > f.pageSize {
		matching = matching[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(matching[len(matching)-1])
	}
	for _, key := range matching {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func TestBucket(t *testing.T) {
	fake := &fakeS3{pageSize: 1, objects: map[string]string{
		"soep/ddionrails/periods.csv":         "name\n",
		"soep/ddionrails/datasets/a.json":     "[]",
		"soep/ddionrails/datasets/b.json":     "[]",
		"other/ddionrails/datasets/c.json":    "[]",
		"soep/ddionrails/datasets/subfolder/": "",
	}}
	bucket := NewBucket(fake, "imports")
	ctx := context.Background()

	body, err := bucket.Get(ctx, "soep/ddionrails/periods.csv")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "name\n", string(data))

	_, err = bucket.Get(ctx, "soep/ddionrails/missing.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	ok, err := bucket.Exists(ctx, "soep/ddionrails/periods.csv")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = bucket.Exists(ctx, "soep/ddionrails/missing.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := bucket.List(ctx, "soep/ddionrails/datasets/")
	require.NoError(t, err)
	assert.Equal(t, []string{"soep/ddionrails/datasets/a.json", "soep/ddionrails/datasets/b.json"}, keys)
}
