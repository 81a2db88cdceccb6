package aws

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var s3Client *s3.Client

func GetS3Client() *s3.Client {
	if s3Client != nil {
		return s3Client
	}
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	s3Client = s3.NewFromConfig(cfg)
	return s3Client
}

func NewS3Client(c *s3.Client) {
	s3Client = c
}

// PresignAssetURL resolves a stored object key (event image) to a
// time-limited GET URL. Returns nil when the key cannot be resolved; event
// reads degrade to no image rather than failing.
func PresignAssetURL(key string) *string {
	client := GetS3Client()
	if client == nil {
		return nil
	}
	assetsBucket := os.Getenv("S3_ASSETS_BUCKET")
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(assetsBucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = time.Duration(3600 * time.Second)
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return nil
	}
	return &r.URL
}
