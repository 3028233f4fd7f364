package objectstore

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/photostory/internal/config"
)

func testAWSConfig() aws.Config {
	return aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
}

func TestS3Issuer_PathStyleEndpoint(t *testing.T) {
	issuer := NewS3IssuerFromConfig(testAWSConfig(), &config.ObjectStorageConfig{
		Bucket:    "photos",
		Prefix:    "uploads",
		Endpoint:  "http://localhost:9000",
		URLExpiry: 5 * time.Minute,
	})
	issuer.newKey = func() string { return "fixed-key" }

	raw, err := issuer.UploadURL(context.Background())
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/photos/uploads/fixed-key", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.True(t, strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "AKIDEXAMPLE/"))
}

func TestS3Issuer_DefaultsAndUniqueKeys(t *testing.T) {
	issuer := NewS3IssuerFromConfig(testAWSConfig(), &config.ObjectStorageConfig{
		Bucket: "photos",
		Prefix: "uploads",
	})
	ctx := context.Background()

	first, err := issuer.UploadURL(ctx)
	require.NoError(t, err)
	second, err := issuer.UploadURL(ctx)
	require.NoError(t, err)

	u1, err := url.Parse(first)
	require.NoError(t, err)
	u2, err := url.Parse(second)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u1.Host, "photos.s3."), u1.Host)
	assert.True(t, strings.HasSuffix(u1.Host, ".amazonaws.com"), u1.Host)
	assert.True(t, strings.HasPrefix(u1.Path, "/uploads/"))
	assert.NotEqual(t, u1.Path, u2.Path)
	assert.Equal(t, "900", u1.Query().Get("X-Amz-Expires"))
}
