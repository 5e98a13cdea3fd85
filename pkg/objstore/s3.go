package objstore

import (
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
	"github.com/serverlessresearch/s3connector/pkg/byterange"
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPartSize    = 10 * 1024 * 1024
	DefaultConcurrency = 100
)

type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint points the client at an S3 compatible service. Requests then
	// use path style addressing.
	Endpoint string

	// PartSize and Concurrency bound a multipart upload to
	// PartSize*Concurrency bytes in flight.
	PartSize    int64
	Concurrency int
}

type S3Store struct {
	client   s3iface.S3API
	uploader s3manageriface.UploaderAPI
	bucket   string
	logger   logrus.FieldLogger
}

func NewS3Store(cfg S3Config, logger logrus.FieldLogger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("no bucket configured")
	}
	if cfg.PartSize == 0 {
		cfg.PartSize = DefaultPartSize
	}
	if cfg.PartSize < s3manager.MinUploadPartSize {
		return nil, errors.Errorf("part size %d is below the S3 minimum of %d", cfg.PartSize, s3manager.MinUploadPartSize)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create AWS session")
	}
	client := s3.New(sess)
	uploader := s3manager.NewUploaderWithClient(client, func(u *s3manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
	})

	logger.WithFields(logrus.Fields{
		"bucket":      cfg.Bucket,
		"region":      cfg.Region,
		"partSize":    cfg.PartSize,
		"concurrency": cfg.Concurrency,
	}).Info("using S3 store")
	return NewS3StoreWithClient(client, uploader, cfg.Bucket, logger), nil
}

// NewS3StoreWithClient wraps clients that were built elsewhere.
func NewS3StoreWithClient(client s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket string, logger logrus.FieldLogger) *S3Store {
	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		logger:   logger,
	}
}

func (s *S3Store) Probe(ctx context.Context, key string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(byterange.Probe()),
	}
	s.logger.WithField("key", key).Debug("s3.GetObject probe")
	out, err := s.client.GetObjectWithContext(ctx, input)
	if err == nil {
		out.Body.Close()
		return aws.StringValue(out.VersionId), nil
	}

	// An empty object has no byte 0, so the probe range cannot be satisfied.
	if classify(ctx, err) == connerr.InvalidRange {
		head, herr := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if herr != nil {
			return "", wrapStoreErr(ctx, "probe", herr)
		}
		return aws.StringValue(head.VersionId), nil
	}
	return "", wrapStoreErr(ctx, "probe", err)
}

func (s *S3Store) OpenRange(ctx context.Context, key, version, rangeSpec string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if rangeSpec != "" {
		input.Range = aws.String(rangeSpec)
	}
	if version != "" {
		input.VersionId = aws.String(version)
	}
	s.logger.WithFields(logrus.Fields{"key": key, "version": version, "range": rangeSpec}).Debug("s3.GetObject")
	out, err := s.client.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, wrapStoreErr(ctx, "read", err)
	}
	return out.Body, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader) error {
	s.logger.WithField("key", key).Debug("s3manager.Upload")
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	return wrapStoreErr(ctx, "upload", err)
}

func (s *S3Store) ListPage(ctx context.Context, q ListQuery) (*ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(q.Prefix),
	}
	if q.Delimiter != "" {
		input.Delimiter = aws.String(q.Delimiter)
	}
	if q.ContinuationToken != "" {
		input.ContinuationToken = aws.String(q.ContinuationToken)
	}
	if q.MaxKeys > 0 {
		input.MaxKeys = aws.Int64(q.MaxKeys)
	}
	s.logger.WithFields(logrus.Fields{"prefix": q.Prefix, "token": q.ContinuationToken}).Debug("s3.ListObjectsV2")
	out, err := s.client.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, wrapStoreErr(ctx, "list", err)
	}

	page := &ListPage{
		Truncated: aws.BoolValue(out.IsTruncated),
		NextToken: aws.StringValue(out.NextContinuationToken),
	}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          aws.StringValue(obj.Key),
			Size:         aws.Int64Value(obj.Size),
			LastModified: aws.TimeValue(obj.LastModified),
		})
	}
	for _, p := range out.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, aws.StringValue(p.Prefix))
	}
	return page, nil
}

// wrapStoreErr classifies err and keeps the store's own message, without the
// code and request id the SDK adds to Error(), for RPC callers.
func wrapStoreErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	e := &connerr.Error{Kind: classify(ctx, err), Op: op, Err: err}
	if aerr, ok := err.(awserr.Error); ok {
		e.Msg = aerr.Message()
		if e.Msg == "" {
			e.Msg = aerr.Code()
		}
	}
	return e
}

// classify maps SDK errors onto connerr kinds. The context is consulted first
// because the SDK reports both cancellation and deadline as RequestCanceled.
func classify(ctx context.Context, err error) connerr.Kind {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return connerr.Timeout
	case context.Canceled:
		return connerr.StreamAborted
	}

	aerr, ok := err.(awserr.Error)
	if !ok {
		return connerr.StoreUnavailable
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NoSuchVersion", "NotFound":
		return connerr.NotFound
	case "InvalidRange":
		return connerr.InvalidRange
	case request.CanceledErrorCode:
		return connerr.StreamAborted
	case "ReadRequestBody":
		// the upload body is the RPC stream, so this is the caller going away
		return connerr.StreamAborted
	}
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case http.StatusNotFound:
			return connerr.NotFound
		case http.StatusRequestedRangeNotSatisfiable:
			return connerr.InvalidRange
		}
	}
	return connerr.StoreUnavailable
}
