package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const avatarUploadExpiry = 5 * time.Minute

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// AvatarConfig configures profile picture storage
type AvatarConfig struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string
	PublicBaseURL string
}

// AvatarService hands out pre-signed URLs for profile picture uploads
type AvatarService struct {
	presign       *s3.PresignClient
	bucket        string
	publicBaseURL string
}

// NewAvatarService creates a new avatar service
func NewAvatarService(ctx context.Context, cfg AvatarConfig) (*AvatarService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &AvatarService{
		presign:       s3.NewPresignClient(s3Client),
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

// AvatarUpload represents the response with pre-signed URL
type AvatarUpload struct {
	UploadURL  string `json:"upload_url"`
	ProfilePic string `json:"profile_pic"`
	ExpiresIn  int    `json:"expires_in"`
}

// PresignUpload generates a pre-signed URL for uploading a profile picture.
// The returned profile_pic is the URL to store with UpdateProfile once the
// upload completes.
func (s *AvatarService) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (*AvatarUpload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedImageType
	}

	// Generate S3 key: avatars/{user_id}/{object_id}.{ext}
	key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.New(), ext)

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarUploadExpiry
	})
	if err != nil {
		return nil, internalError("failed to generate pre-signed URL", err)
	}

	return &AvatarUpload{
		UploadURL:  request.URL,
		ProfilePic: s.publicBaseURL + "/" + key,
		ExpiresIn:  int(avatarUploadExpiry.Seconds()),
	}, nil
}
