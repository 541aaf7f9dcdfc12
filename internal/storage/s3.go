package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	ErrNotFound       = errors.New("image not found")
	ErrUnsafeFilename = errors.New("illegal file name")
)

// AcceptedExtensions are the image formats the store accepts, without the
// leading dot.
var AcceptedExtensions = []string{"png", "jpg", "jpeg", "gif", "svg", "bmp"}

var safeFilename = regexp.MustCompile(
	`^[a-zA-Z0-9][a-zA-Z0-9_()\-.]*\.(` + strings.Join(AcceptedExtensions, "|") + `)$`)

// ImageStore keeps uploaded images and avatars in an S3 bucket. Keys are
// `{folder}/{filename}`; per-user images live under `user_{id}/`, avatars
// under `avatars/`.
type ImageStore struct {
	client *s3.Client
	bucket string
}

// NewImageStore creates an image store against an S3-compatible endpoint.
func NewImageStore(endpoint, region, bucket, accessKeyID, secretAccessKey string) (*ImageStore, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID && endpoint != "" {
			return aws.Endpoint{
				URL:           endpoint,
				SigningRegion: region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, secretAccessKey, "",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &ImageStore{client: client, bucket: bucket}, nil
}

// IsFilenameSafe reports whether a filename matches the allow-list: it
// must start with an alphanumeric, contain only conservative punctuation,
// and end in an accepted image extension.
func IsFilenameSafe(filename string) bool {
	return safeFilename.MatchString(filename)
}

// Extension returns the file extension including the dot.
func Extension(filename string) string {
	return filepath.Ext(filename)
}

// Upload stores an image under folder, resolving filename conflicts by
// appending _1, _2, ... before the extension. Returns the final filename.
func (s *ImageStore) Upload(ctx context.Context, folder, filename string, reader io.Reader) (string, error) {
	if !IsFilenameSafe(filename) {
		return "", ErrUnsafeFilename
	}

	name, err := s.resolveConflict(ctx, folder, filename)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(folder + "/" + name),
		Body:        reader,
		ContentType: aws.String(ContentType(name)),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return name, nil
}

// Put stores an image under an exact key, overwriting any existing object.
// Used for avatars, whose names are fixed.
func (s *ImageStore) Put(ctx context.Context, folder, filename string, reader io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(folder + "/" + filename),
		Body:        reader,
		ContentType: aws.String(ContentType(filename)),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	return nil
}

// Get returns the image bytes and content type.
func (s *ImageStore) Get(ctx context.Context, folder, filename string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(folder + "/" + filename),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get image: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	contentType := ContentType(filename)
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return data, contentType, nil
}

// Delete removes an image. Reports ErrNotFound when the object does not
// exist, since S3 deletes are otherwise silently idempotent.
func (s *ImageStore) Delete(ctx context.Context, folder, filename string) error {
	exists, err := s.exists(ctx, folder+"/"+filename)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(folder + "/" + filename),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// FindAvatar probes `avatars/user_{id}.{ext}` across the accepted
// extensions and returns the filename of the first match.
func (s *ImageStore) FindAvatar(ctx context.Context, userID int64) (string, error) {
	for _, ext := range AcceptedExtensions {
		name := fmt.Sprintf("user_%d.%s", userID, ext)
		exists, err := s.exists(ctx, "avatars/"+name)
		if err != nil {
			return "", err
		}
		if exists {
			return name, nil
		}
	}
	return "", ErrNotFound
}

func (s *ImageStore) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check image: %w", err)
	}
	return true, nil
}

// resolveConflict finds the first free name in the sequence name.ext,
// name_1.ext, name_2.ext, ...
func (s *ImageStore) resolveConflict(ctx context.Context, folder, filename string) (string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	name := filename
	for i := 1; ; i++ {
		exists, err := s.exists(ctx, folder+"/"+name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

// ContentType returns the MIME type for an image filename based on its
// extension.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
