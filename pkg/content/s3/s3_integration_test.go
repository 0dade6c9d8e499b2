//go:build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	contenttesting "github.com/dcnetdisk/dcdisk/pkg/content/testing"
	"github.com/stretchr/testify/require"
)

// TestS3ContentStore_Integration runs the byte store suite against a real
// S3-compatible service (Localstack).
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/content/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3ContentStore_Integration(t *testing.T) {
	client := newLocalstackClient(t)

	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			bucket := createBucket(t, client)
			store, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
				Client:    client,
				Bucket:    bucket,
				KeyPrefix: "test/",
				SpoolDir:  t.TempDir(),
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func newLocalstackClient(t *testing.T) *s3.Client {
	t.Helper()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", // AccessKeyID
			"test", // SecretAccessKey
			"",     // SessionToken
		)),
	)
	require.NoError(t, err, "load AWS config")

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // Required for Localstack
	})
}

// createBucket creates a uniquely named bucket and empties and deletes it
// when the test finishes.
func createBucket(t *testing.T, client *s3.Client) string {
	t.Helper()
	ctx := context.Background()

	bucket := fmt.Sprintf("dcdisk-test-%d", time.Now().UnixNano())
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err, "create test bucket")

	t.Cleanup(func() {
		list, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
		if list != nil {
			for _, obj := range list.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{
					Bucket: aws.String(bucket),
					Key:    obj.Key,
				})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	})

	return bucket
}
