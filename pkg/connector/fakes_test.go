package connector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"sync"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/serverlessresearch/s3connector/pkg/byterange"
	pb "github.com/serverlessresearch/s3connector/pkg/connectorpb"
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"github.com/serverlessresearch/s3connector/pkg/objstore"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

type readCall struct {
	key, version, spec string
}

// memStore is an in-memory objstore.Store that records how it was called.
type memStore struct {
	mu sync.Mutex

	objects map[string][]byte
	version string

	probes  []string
	reads   []readCall
	queries []objstore.ListQuery
	pages   []*objstore.ListPage

	probeErr  error
	openErr   error
	uploadErr error
	listErr   error
	// listFailAt is the first query, counted from 1, that fails with listErr.
	listFailAt int
	// failAfter makes range reads fail once that many bytes were served.
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, version: "v1"}
}

func (m *memStore) Probe(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, key)
	if m.probeErr != nil {
		return "", m.probeErr
	}
	if _, ok := m.objects[key]; !ok {
		return "", connerr.New(connerr.NotFound, "probe", "The specified key does not exist.")
	}
	return m.version, nil
}

func (m *memStore) OpenRange(ctx context.Context, key, version, spec string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, readCall{key, version, spec})
	if m.openErr != nil {
		return nil, m.openErr
	}
	data := m.objects[key]
	start, end, err := byterange.Parse(spec, int64(len(data)))
	if err != nil {
		return nil, err
	}
	slice := data[start:end]
	if m.failAfter > 0 && m.failAfter < len(slice) {
		return ioutil.NopCloser(&brokenReader{data: slice[:m.failAfter]}), nil
	}
	return ioutil.NopCloser(bytes.NewReader(slice)), nil
}

func (m *memStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := ioutil.ReadAll(body)
	if err != nil {
		return connerr.Wrap(connerr.StreamAborted, "upload", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) ListPage(ctx context.Context, q objstore.ListQuery) (*objstore.ListPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.listErr != nil && len(m.queries) >= m.listFailAt {
		return nil, m.listErr
	}
	if len(m.pages) == 0 {
		return &objstore.ListPage{}, nil
	}
	return m.pages[len(m.queries)-1], nil
}

type brokenReader struct {
	data []byte
}

func (b *brokenReader) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, errors.New("unexpected EOF from store")
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

// fakeDownloadStream replays requests and records responses. Like the other
// fake streams it embeds grpc.ServerStream only to satisfy the interface.
type fakeDownloadStream struct {
	grpc.ServerStream
	ctx  context.Context
	reqs []*pb.DownloadRequest
	sent []*pb.DownloadResponse
	// onRecv runs before each request is handed out
	onRecv func(i int)
	recvd  int
}

func (f *fakeDownloadStream) Context() context.Context {
	if f.ctx == nil {
		return context.Background()
	}
	return f.ctx
}

func (f *fakeDownloadStream) Recv() (*pb.DownloadRequest, error) {
	if f.onRecv != nil {
		f.onRecv(f.recvd)
	}
	if f.recvd == len(f.reqs) {
		return nil, io.EOF
	}
	r := f.reqs[f.recvd]
	f.recvd++
	return r, nil
}

func (f *fakeDownloadStream) Send(m *pb.DownloadResponse) error {
	f.sent = append(f.sent, m)
	return nil
}

type fakeUploadStream struct {
	grpc.ServerStream
	reqs   []*pb.UploadRequest
	recvd  int
	acks   int
	events []string
}

func (f *fakeUploadStream) Context() context.Context {
	return context.Background()
}

func (f *fakeUploadStream) Recv() (*pb.UploadRequest, error) {
	if f.recvd == len(f.reqs) {
		f.events = append(f.events, "eof")
		return nil, io.EOF
	}
	r := f.reqs[f.recvd]
	f.recvd++
	return r, nil
}

func (f *fakeUploadStream) SendAndClose(*empty.Empty) error {
	f.acks++
	f.events = append(f.events, "ack")
	return nil
}

type fakeListStream struct {
	grpc.ServerStream
	sent []*pb.ListItem
}

func (f *fakeListStream) Context() context.Context {
	return context.Background()
}

func (f *fakeListStream) Send(m *pb.ListItem) error {
	f.sent = append(f.sent, m)
	return nil
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}

func fileReq(name string) *pb.DownloadRequest {
	return &pb.DownloadRequest{File: &pb.FileReference{Name: name}}
}

func rangeReq(start, length int64) *pb.DownloadRequest {
	return &pb.DownloadRequest{Chunk: &pb.ByteRange{Start: start, Length: length}}
}

// transfers splits the chunk responses of a download at each terminal chunk.
func transfers(sent []*pb.DownloadResponse) [][]*pb.Chunk {
	var all [][]*pb.Chunk
	var cur []*pb.Chunk
	for _, m := range sent {
		if m.GetChunk() == nil {
			continue
		}
		cur = append(cur, m.GetChunk())
		if m.GetChunk().GetLast() {
			all = append(all, cur)
			cur = nil
		}
	}
	if cur != nil {
		all = append(all, cur)
	}
	return all
}

func joinData(chunks []*pb.Chunk) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c.GetData()...)
	}
	return out
}
