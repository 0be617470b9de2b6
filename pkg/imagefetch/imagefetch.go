// Package imagefetch resolves a vm.image value naming an S3 object
// (s3://bucket/key) into a local file the hypervisor driver can load,
// downloading it into a cache directory keyed by bucket/key. A failed
// GetObject is retried only for transient S3 errors; a failure while writing
// the downloaded body to disk is retried as well, within the same attempt
// limit.
package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/nfio-go/nfiofs/internal/logger"
)

// Resolver downloads s3:// vm.image references into a local cache
// directory and reports the local path back to the caller.
type Resolver struct {
	client   *s3.Client
	cacheDir string
}

// New builds a Resolver using the default AWS credential chain for region.
// cacheDir is created if missing.
func New(ctx context.Context, region, cacheDir string) (*Resolver, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "nfiofs-images")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create image cache dir: %w", err)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Resolver{
		client:   s3.NewFromConfig(cfg),
		cacheDir: cacheDir,
	}, nil
}

// IsS3Reference reports whether image names an S3 object rather than a
// local path or an image tag the hypervisor driver resolves itself.
func IsS3Reference(image string) bool {
	return strings.HasPrefix(image, "s3://")
}

// Resolve downloads the object named by an s3://bucket/key image reference
// into the cache directory (skipping the download if already present) and
// returns the local file path. Images that do not name an S3 object are
// returned unchanged, so callers can pass every vm.image value through
// Resolve without checking IsS3Reference themselves.
func (r *Resolver) Resolve(ctx context.Context, image string) (string, error) {
	if !IsS3Reference(image) {
		return image, nil
	}

	bucket, key, err := parseS3Reference(image)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(r.cacheDir, bucket, key)
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("create image cache subdir: %w", err)
	}

	tmp := localPath + ".downloading"
	if err := r.download(ctx, bucket, key, tmp); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, localPath); err != nil {
		return "", fmt.Errorf("finalize cached image: %w", err)
	}

	logger.Info("resolved S3 vm.image to local file", logger.Image(image))
	return localPath, nil
}

func (r *Resolver) download(ctx context.Context, bucket, key, dest string) error {
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
		}

		out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			lastErr = err
			if !isRetryableError(err) {
				return fmt.Errorf("get s3 object s3://%s/%s: %w", bucket, key, err)
			}
			continue
		}

		err = writeBody(dest, out.Body)
		out.Body.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("get s3 object s3://%s/%s after %d attempts: %w", bucket, key, maxAttempts, lastErr)
}

func writeBody(dest string, body io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create local image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("write local image file: %w", err)
	}
	return nil
}

// isRetryableError reports whether a failed GetObject is worth retrying:
// network timeouts and AWS throttling/5xx errors are, everything else is
// surfaced immediately.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"InternalError", "ServiceUnavailable", "ServiceException":
			return true
		}
	}
	return false
}

func parseS3Reference(image string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(image, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed s3 image reference %q, want s3://bucket/key", image)
	}
	return parts[0], parts[1], nil
}
