package output

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/disintegration/imaging"
)

const defaultAwsRegion = `eu-west-2`

// deleteBatch is the most keys S3 accepts in one DeleteObjects call
const deleteBatch = 1000

// S3Sink uploads crops as PNG objects under Bucket/Prefix/<target>/.
// Opening a target deletes whatever was stored under it before.
type S3Sink struct {
	Client s3iface.S3API
	Bucket string
	Prefix string
}

// NewS3Sink sets up an aws session for the region and returns a sink
func NewS3Sink(region, bucket, prefix string) (*S3Sink, error) {
	if region == "" {
		region = defaultAwsRegion
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up aws session: %w", err)
	}
	return &S3Sink{Client: s3.New(sess), Bucket: bucket, Prefix: prefix}, nil
}

func (s *S3Sink) Open(ctx context.Context, target string) (Batch, error) {
	target, err := cleanName(target)
	if err != nil {
		return nil, err
	}
	prefix := path.Join(s.Prefix, target) + "/"

	keys, err := s.list(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("could not list %s: %w", prefix, err)
	}
	if err := s.delete(ctx, keys); err != nil {
		return nil, fmt.Errorf("could not clear %s: %w", prefix, err)
	}
	return &s3Batch{sink: s, prefix: prefix}, nil
}

func (s *S3Sink) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, r := range page.Contents {
			keys = append(keys, *r.Key)
		}
		return true
	})
	return keys, err
}

func (s *S3Sink) delete(ctx context.Context, keys []string) error {
	for len(keys) > 0 {
		n := min(len(keys), deleteBatch)
		objs := make([]*s3.ObjectIdentifier, 0, n)
		for _, k := range keys[:n] {
			objs = append(objs, &s3.ObjectIdentifier{Key: aws.String(k)})
		}
		_, err := s.Client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.Bucket),
			Delete: &s3.Delete{
				Objects: objs,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return err
		}
		keys = keys[n:]
	}
	return nil
}

type s3Batch struct {
	sink   *S3Sink
	prefix string
}

func (b *s3Batch) Put(ctx context.Context, name string, img image.Image) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("could not encode %s: %w", name, err)
	}

	_, err = b.sink.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.sink.Bucket),
		Key:         aws.String(b.prefix + name + ".png"),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/png"),
	})
	return err
}

func (b *s3Batch) Close() error {
	return nil
}

// Abort leaves uploaded objects in place; the target was already cleared
// on Open.
func (b *s3Batch) Abort() error {
	return nil
}
