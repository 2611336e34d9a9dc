package objectstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hardng/arca/internal/domain"
)

// SDK is the in-process transport: the AWS SDK pointed at the custom
// endpoint. Path-style addressing is used unless the endpoint is already
// virtual-hosted, matching how MinIO-style deployments are addressed.
type SDK struct {
	endpoint   Endpoint
	prefix     string
	client     *s3.Client
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

func NewSDK(endpoint Endpoint, prefix string) *SDK {
	return &SDK{endpoint: endpoint, prefix: prefix}
}

// Configure builds the client. Nothing is sent to the server here.
func (s *SDK) Configure(ctx context.Context) error {
	if s.endpoint.BaseURL == "" {
		return &domain.ConfigError{Reason: "object store endpoint url is required"}
	}
	if s.endpoint.AccessKey == "" || s.endpoint.SecretKey == "" {
		return &domain.ConfigError{Reason: "object store credentials are required"}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.endpoint.AccessKey, s.endpoint.SecretKey, ""),
		),
	)
	if err != nil {
		return &domain.ConfigError{Reason: fmt.Sprintf("failed to load s3 client config: %v", err)}
	}

	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.endpoint.BaseURL)
		o.UsePathStyle = !s.endpoint.VirtualHosted()
	})
	s.uploader = s3manager.NewUploader(s.client)
	s.downloader = s3manager.NewDownloader(s.client)

	return nil
}

func (s *SDK) Upload(ctx context.Context, localPath, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &domain.UploadError{Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.endpoint.Bucket),
		Key:    aws.String(s.endpoint.KeyPath(remoteName)),
		Body:   file,
	})
	if err != nil {
		return &domain.UploadError{Err: fmt.Errorf("failed to upload to s3: %w", err)}
	}

	return nil
}

func (s *SDK) List(ctx context.Context) ([]domain.Object, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.endpoint.Bucket)}
	if prefix := s.endpoint.KeyPath(""); prefix != "" {
		input.Prefix = aws.String(prefix + "/")
	}

	var objects []domain.Object
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3 objects: %w", err)
		}

		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !domain.MatchesConvention(name, s.prefix) {
				continue
			}

			o := domain.Object{Name: name, Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			objects = append(objects, o)
		}
	}

	return objects, nil
}

func (s *SDK) Remove(ctx context.Context, remoteName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.endpoint.Bucket),
		Key:    aws.String(s.endpoint.KeyPath(remoteName)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}

// RemoveOlderThan has no server-side equivalent in the SDK, so it lists
// the convention-matching objects and deletes by the timestamp embedded
// in their names. Best-effort: one failed deletion does not stop the
// rest.
func (s *SDK) RemoveOlderThan(ctx context.Context, days int) error {
	objects, err := s.List(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var failed int
	var firstErr error
	for _, obj := range objects {
		artifact, err := domain.ParseArtifactName(obj.Name)
		if err != nil || !artifact.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Remove(ctx, obj.Name); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("%d deletions failed: %w", failed, firstErr)
	}

	return nil
}

func (s *SDK) Download(ctx context.Context, remoteName, localPath string) error {
	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	_, err = s.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.endpoint.Bucket),
		Key:    aws.String(s.endpoint.KeyPath(remoteName)),
	})
	if err != nil {
		return fmt.Errorf("failed to download from s3: %w", err)
	}

	return nil
}

func (s *SDK) Location(remoteName string) string {
	return "s3://" + path.Join(s.endpoint.Bucket, s.endpoint.KeyPath(remoteName))
}
