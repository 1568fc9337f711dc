package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ArtifactURLExpiry is how long presigned artifact URLs stay valid.
const ArtifactURLExpiry = 3600 * time.Second

// ArtifactStore issues presigned GET URLs for run artifacts (logs, diffs,
// exports) stored in an S3-compatible bucket. Objects are keyed
// <owner_id>/<run_id>/<filename> so presigning is always owner-scoped.
type ArtifactStore struct {
	logger  zerolog.Logger
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

func NewArtifactStore(logger zerolog.Logger, endpoint, region, accessKey, secretKey, bucket string) *ArtifactStore {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})
	return &ArtifactStore{
		logger:  logger.With().Str("component", "artifact-store").Logger(),
		bucket:  bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
	}
}

// Key builds the owner-scoped object key for a run artifact. Filenames are
// flattened to their base name so callers cannot traverse out of the run
// prefix.
func Key(ownerID, runID, filename string) string {
	return ownerID + "/" + runID + "/" + path.Base(strings.TrimSpace(filename))
}

// SignGet returns a presigned GET URL for the given object key.
func (s *ArtifactStore) SignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ArtifactURLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign artifact %s: %w", key, err)
	}
	return req.URL, nil
}

// SignArtifact presigns one artifact file belonging to a run.
func (s *ArtifactStore) SignArtifact(ctx context.Context, ownerID, runID, filename string) (string, error) {
	return s.SignGet(ctx, Key(ownerID, runID, filename))
}
