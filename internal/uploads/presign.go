// Package uploads issues time-limited URLs authorizing direct uploads
// to object storage. The service only mints the URL; the storage
// provider fulfils it.
package uploads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const SignedURLTTL = 15 * time.Minute

type SignedUpload struct {
	SignedURL string `json:"signedUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
}

type Signer interface {
	SignUpload(ctx context.Context, fileName, fileType, folder string) (*SignedUpload, error)
}

type S3Signer struct {
	presigner  *s3.PresignClient
	bucket     string
	cdnBaseURL string
}

func NewS3Signer(ctx context.Context, region, bucket, cdnBaseURL string) (*S3Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Signer{
		presigner:  s3.NewPresignClient(client),
		bucket:     bucket,
		cdnBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
	}, nil
}

func (s *S3Signer) SignUpload(ctx context.Context, fileName, fileType, folder string) (*SignedUpload, error) {
	key := objectKey(fileName, folder)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}, s3.WithPresignExpires(SignedURLTTL))
	if err != nil {
		return nil, fmt.Errorf("presign put object: %w", err)
	}

	return &SignedUpload{
		SignedURL: req.URL,
		PublicURL: s.cdnBaseURL + "/" + key,
		Key:       key,
	}, nil
}

// StaticSigner mints predictable URLs without touching AWS. Used in
// tests and local development.
type StaticSigner struct{}

func (StaticSigner) SignUpload(_ context.Context, fileName, _, folder string) (*SignedUpload, error) {
	key := objectKey(fileName, folder)
	return &SignedUpload{
		SignedURL: "https://mock-s3.amazonaws.com/" + key + "?signature=mock",
		PublicURL: "https://mock-cdn.com/" + key,
		Key:       key,
	}, nil
}

func objectKey(fileName, folder string) string {
	if folder == "" {
		folder = "projects"
	}
	return folder + "/" + fileName
}
