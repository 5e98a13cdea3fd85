// Package connector implements the HostedDrive RPC service on top of an
// object store. Each call owns its own session; the store handle and the
// configuration are shared read only between calls.
package connector

import (
	"context"
	"io"
	"time"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/serverlessresearch/s3connector/pkg/byterange"
	"github.com/serverlessresearch/s3connector/pkg/chunk"
	pb "github.com/serverlessresearch/s3connector/pkg/connectorpb"
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"github.com/serverlessresearch/s3connector/pkg/listing"
	"github.com/serverlessresearch/s3connector/pkg/objstore"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// SegmentSize is the largest payload of an outbound chunk.
	SegmentSize int
	// MaskReadFailures ends a failed ranged read with a terminal chunk
	// instead of failing the call.
	MaskReadFailures bool
	// DetailedCodes reports each error kind with its own gRPC code instead
	// of InvalidArgument.
	DetailedCodes bool
	// OperationTimeout bounds probes, listing pages and metadata lookups.
	OperationTimeout time.Duration
	// TransferTimeout bounds a single ranged read or a whole upload.
	TransferTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		SegmentSize:      chunk.DefaultSegmentSize,
		MaskReadFailures: true,
		OperationTimeout: 30 * time.Second,
	}
}

type Service struct {
	store  objstore.Store
	cfg    Config
	logger logrus.FieldLogger
}

var _ pb.HostedDriveServer = (*Service)(nil)

func NewService(store objstore.Store, cfg Config, logger logrus.FieldLogger) *Service {
	return &Service{store: store, cfg: cfg, logger: logger}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *Service) GetCapabilities(ctx context.Context, _ *empty.Empty) (*pb.Capabilities, error) {
	s.logger.Debug("get capabilities")
	return &pb.Capabilities{SupportsRandomRead: true}, nil
}

// Download serves one file. Requests are handled strictly in arrival order:
// a range request is only looked at after the selection before it has been
// probed and acknowledged, and the next request is only read once the
// previous range has been sent in full.
func (s *Service) Download(stream pb.HostedDrive_DownloadServer) error {
	sess := s.newSession("download")
	ctx := stream.Context()
	sess.logger.Debug("download started")

	for {
		req, err := stream.Recv()
		if err == io.EOF {
			sess.logger.Debug("download stream closed")
			return nil
		}
		if err != nil {
			return s.fail(sess, connerr.Wrap(connerr.StreamAborted, "download", err))
		}

		switch {
		case req.GetFile() != nil:
			if err := s.selectDownload(ctx, sess, req.GetFile().GetName()); err != nil {
				return s.fail(sess, err)
			}
			if err := stream.Send(&pb.DownloadResponse{Response: &empty.Empty{}}); err != nil {
				return s.fail(sess, connerr.Wrap(connerr.StreamAborted, "download", err))
			}
		case req.GetChunk() != nil:
			if err := sess.requireFile("download"); err != nil {
				return s.fail(sess, err)
			}
			if err := s.sendRange(ctx, sess, req.GetChunk(), stream); err != nil {
				return s.fail(sess, err)
			}
		default:
			sess.logger.Warn("ignoring download request without file or chunk")
		}
	}
}

func (s *Service) selectDownload(ctx context.Context, sess *session, name string) error {
	if err := sess.requireNoFile(name); err != nil {
		return err
	}
	probeCtx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	version, err := s.store.Probe(probeCtx, name)
	if err != nil {
		return err
	}
	sess.logger.WithField("version", version).Debug("file located")
	return sess.selectFile(name, version)
}

type downloadSender struct {
	stream pb.HostedDrive_DownloadServer
}

func (d downloadSender) Send(c chunk.Chunk) error {
	return d.stream.Send(&pb.DownloadResponse{Chunk: &pb.Chunk{Data: c.Data, Last: c.Last}})
}

func (s *Service) sendRange(ctx context.Context, sess *session, r *pb.ByteRange, stream pb.HostedDrive_DownloadServer) error {
	spec, err := byterange.MustSpec(byterange.Range{Start: r.GetStart(), Length: r.GetLength()})
	if err != nil {
		return err
	}
	logger := sess.logger.WithField("range", spec)

	readCtx, cancel := withTimeout(ctx, s.cfg.TransferTimeout)
	defer cancel()

	body, err := s.store.OpenRange(readCtx, sess.file, sess.version, spec)
	if err != nil {
		if !s.cfg.MaskReadFailures || connerr.Is(err, connerr.StreamAborted) {
			return err
		}
		logger.WithField("error", err).Warn("read failed before streaming, ending range early")
		return downloadSender{stream}.Send(chunk.Final())
	}

	sess.phase = phaseStreaming
	pump := chunk.Pump{SegmentSize: s.cfg.SegmentSize, Policy: chunk.PropagateFailures}
	if s.cfg.MaskReadFailures {
		pump.Policy = chunk.MaskFailures
	}
	res, err := pump.Transfer(readCtx, body, downloadSender{stream})
	if err != nil {
		return err
	}
	if res.ReadErr != nil {
		logger.WithFields(logrus.Fields{"error": res.ReadErr, "bytes": res.Bytes}).Warn("read failed while streaming, ended range early")
		return nil
	}
	logger.WithField("bytes", res.Bytes).Debug("range sent")
	return nil
}

// uploadBody feeds the data of an upload call to the store. It remembers
// the first failure so the call reports what actually went wrong rather than
// the store's view of a broken body.
type uploadBody struct {
	stream pb.HostedDrive_UploadServer
	err    error
}

func (u *uploadBody) Next() (chunk.Chunk, error) {
	for {
		req, err := u.stream.Recv()
		if err == io.EOF {
			return chunk.Chunk{}, io.EOF
		}
		if err != nil {
			u.err = connerr.Wrap(connerr.StreamAborted, "upload", err)
			return chunk.Chunk{}, u.err
		}
		if req.GetFile() != nil {
			u.err = connerr.Errorf(connerr.ProtocolViolation, "upload", "file %q selected during a transfer", req.GetFile().GetName())
			return chunk.Chunk{}, u.err
		}
		if c := req.GetChunk(); c != nil {
			return chunk.Chunk{Data: c.GetData(), Last: c.GetLast()}, nil
		}
	}
}

// Upload writes one file. The first request must select it; the transfer
// ends when the caller closes its side of the stream.
func (s *Service) Upload(stream pb.HostedDrive_UploadServer) error {
	sess := s.newSession("upload")

	req, err := stream.Recv()
	if err == io.EOF {
		return s.fail(sess, connerr.New(connerr.ProtocolViolation, "upload", "stream ended before a file was selected"))
	}
	if err != nil {
		return s.fail(sess, connerr.Wrap(connerr.StreamAborted, "upload", err))
	}
	if req.GetFile() == nil {
		return s.fail(sess, connerr.New(connerr.ProtocolViolation, "upload", "chunk received before a file was selected"))
	}
	if err := sess.selectFile(req.GetFile().GetName(), ""); err != nil {
		return s.fail(sess, err)
	}

	ctx, cancel := withTimeout(stream.Context(), s.cfg.TransferTimeout)
	defer cancel()

	body := &uploadBody{stream: stream}
	reader := chunk.NewReader(body)
	sess.phase = phaseWriting
	sess.logger.Debug("upload started")

	err = s.store.Upload(ctx, sess.file, reader)
	if body.err != nil {
		err = body.err
	}
	if err != nil {
		return s.fail(sess, err)
	}

	sess.phase = phaseAcked
	sess.logger.WithField("bytes", reader.Total()).Info("upload complete")
	return stream.SendAndClose(&empty.Empty{})
}

// timedLister bounds every listing page by the operation timeout.
type timedLister struct {
	store   objstore.Store
	timeout time.Duration
}

func (t timedLister) ListPage(ctx context.Context, q objstore.ListQuery) (*objstore.ListPage, error) {
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()
	return t.store.ListPage(ctx, q)
}

// List streams every object below the requested prefix, one message per
// object, as each store page arrives.
func (s *Service) List(req *pb.ListRequest, stream pb.HostedDrive_ListServer) error {
	sess := s.newSession("list")
	logger := sess.logger.WithField("prefix", req.GetPathPattern())

	pages := listing.New(timedLister{s.store, s.cfg.OperationTimeout}, req.GetPathPattern(), objstore.DefaultDelimiter)
	sent := 0
	err := pages.Each(stream.Context(), func(e listing.Entry) error {
		item := &pb.ListItem{
			Name:     e.Name,
			IsFolder: e.IsFolder,
			Meta:     &pb.FileMeta{Size: e.Meta.Size, LastUpdated: e.Meta.LastUpdated},
		}
		if err := stream.Send(item); err != nil {
			return connerr.Wrap(connerr.StreamAborted, "list", err)
		}
		sent++
		return nil
	})
	if err != nil {
		return s.fail(sess, err)
	}
	logger.WithFields(logrus.Fields{"items": sent, "queries": pages.Queries()}).Debug("list complete")
	return nil
}

// Metadata reports the size and modification time of the object named by
// the request. An object whose key equals the name wins over other keys that
// merely start with it.
func (s *Service) Metadata(ctx context.Context, req *pb.MetadataRequest) (*pb.FileMeta, error) {
	sess := s.newSession("metadata")
	name := req.GetFileName()

	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	page, err := s.store.ListPage(ctx, objstore.ListQuery{Prefix: name})
	if err != nil {
		return nil, s.fail(sess, err)
	}
	if len(page.Objects) == 0 {
		return nil, s.fail(sess, connerr.New(connerr.NotFound, "metadata", "No object matching supplied path"))
	}

	// Stores list keys in ascending order, so an exact match is the first
	// key under its own prefix and always lands on the first page.
	obj := page.Objects[0]
	for _, o := range page.Objects {
		if o.Key == name {
			obj = o
			break
		}
	}
	meta := obj.Metadata()
	sess.logger.WithFields(logrus.Fields{"key": obj.Key, "size": meta.Size}).Debug("metadata")
	return &pb.FileMeta{Size: meta.Size, LastUpdated: meta.LastUpdated}, nil
}
