package remote

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/aouyang1/albumflow/album"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedLister struct {
	pages  [][]string
	inputs []*s3.ListObjectsV2Input
	err    error
}

func (l *pagedLister) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	l.inputs = append(l.inputs, in)
	if l.err != nil {
		return nil, l.err
	}
	page := len(l.inputs) - 1
	out := &s3.ListObjectsV2Output{}
	for _, key := range l.pages[page] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	if page+1 < len(l.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{
		URL:    "https://bucket.example.com/" + url.PathEscape(aws.ToString(in.Key)) + "?sig=1",
		Method: "GET",
	}, nil
}

func TestPhotos(t *testing.T) {
	lister := &pagedLister{pages: [][]string{
		{"trips/a.jpg", "trips/notes.txt", "trips/b.PNG"},
		{"trips/c.webp", "trips/a.jpg"},
	}}
	src := NewSourceWithClients(lister, fakePresigner{}, Options{Bucket: "frames", Prefix: "trips/"})

	photos, err := src.Photos(context.Background())
	require.NoError(t, err)

	require.Len(t, photos, 3)
	assert.Equal(t, "s3-0", photos[0].ID)
	assert.Equal(t, "https://bucket.example.com/trips%2Fa.jpg?sig=1", photos[0].URL)
	assert.Equal(t, "s3-2", photos[2].ID)
	assert.Contains(t, photos[2].URL, "c.webp")

	require.Len(t, lister.inputs, 2)
	assert.Equal(t, "trips/", aws.ToString(lister.inputs[0].Prefix))
	assert.Equal(t, "next", aws.ToString(lister.inputs[1].ContinuationToken))
}

func TestPhotosEmpty(t *testing.T) {
	lister := &pagedLister{pages: [][]string{{"readme.md"}}}
	src := NewSourceWithClients(lister, fakePresigner{}, Options{Bucket: "frames"})

	_, err := src.Photos(context.Background())
	assert.ErrorIs(t, err, album.ErrNoPhotosFound)
}

func TestPhotosListError(t *testing.T) {
	lister := &pagedLister{err: errors.New("access denied")}
	src := NewSourceWithClients(lister, fakePresigner{}, Options{Bucket: "frames"})

	_, err := src.Photos(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestNewSourceRequiresBucket(t *testing.T) {
	_, err := NewSource(context.Background(), Options{})
	assert.Error(t, err)
}
