package connector

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net"
	"os"
	"testing"
	"time"

	"github.com/golang/protobuf/ptypes/empty"
	pb "github.com/serverlessresearch/s3connector/pkg/connectorpb"
	"github.com/serverlessresearch/s3connector/pkg/objstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type testServer struct {
	client pb.HostedDriveClient
	close  func()
}

func startServer(t *testing.T) *testServer {
	root, err := ioutil.TempDir("", "connector")
	require.NoError(t, err)
	store, err := objstore.NewDirStore(root, quietLogger())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.SegmentSize = 1024
	srv := grpc.NewServer()
	pb.RegisterHostedDriveServer(srv, NewService(store, cfg, quietLogger()))

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure())
	require.NoError(t, err)

	return &testServer{
		client: pb.NewHostedDriveClient(conn),
		close: func() {
			conn.Close()
			srv.Stop()
			os.RemoveAll(root)
		},
	}
}

func upload(t *testing.T, client pb.HostedDriveClient, name string, data []byte, partSize int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.Upload(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&pb.UploadRequest{File: &pb.FileReference{Name: name}}))
	for off := 0; off < len(data); off += partSize {
		end := off + partSize
		if end > len(data) {
			end = len(data)
		}
		require.NoError(t, stream.Send(&pb.UploadRequest{Chunk: &pb.Chunk{Data: data[off:end], Last: end == len(data)}}))
	}
	_, err = stream.CloseAndRecv()
	require.NoError(t, err)
}

// readRanges selects name and reads each range in turn.
func readRanges(t *testing.T, client pb.HostedDriveClient, name string, ranges ...[2]int64) [][]byte {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.Download(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&pb.DownloadRequest{File: &pb.FileReference{Name: name}}))
	ack, err := stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, ack.GetResponse())

	var out [][]byte
	for _, r := range ranges {
		require.NoError(t, stream.Send(&pb.DownloadRequest{Chunk: &pb.ByteRange{Start: r[0], Length: r[1]}}))
		var buf bytes.Buffer
		for {
			resp, err := stream.Recv()
			require.NoError(t, err)
			buf.Write(resp.GetChunk().GetData())
			if resp.GetChunk().GetLast() {
				break
			}
		}
		out = append(out, buf.Bytes())
	}
	require.NoError(t, stream.CloseSend())
	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
	return out
}

func TestOverGRPC(t *testing.T) {
	ts := startServer(t)
	defer ts.close()
	ctx := context.Background()

	caps, err := ts.client.GetCapabilities(ctx, &empty.Empty{})
	require.NoError(t, err)
	assert.True(t, caps.GetSupportsRandomRead())

	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	upload(t, ts.client, "exports/sales.qvd", data, 3000)
	upload(t, ts.client, "exports/empty.qvd", nil, 1)

	meta, err := ts.client.Metadata(ctx, &pb.MetadataRequest{FileName: "exports/sales.qvd"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.GetSize())
	assert.InDelta(t, time.Now().Unix(), meta.GetLastUpdated(), 60)

	list, err := ts.client.List(ctx, &pb.ListRequest{PathPattern: "exports/"})
	require.NoError(t, err)
	var names []string
	for {
		item, err := list.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.False(t, item.GetIsFolder())
		names = append(names, item.GetName())
	}
	assert.Equal(t, []string{"exports/empty.qvd", "exports/sales.qvd"}, names)

	parts := readRanges(t, ts.client, "exports/sales.qvd", [2]int64{0, 4096}, [2]int64{9990, 100}, [2]int64{20000, 5})
	assert.Equal(t, data[:4096], parts[0])
	assert.Equal(t, data[9990:], parts[1])
	assert.Empty(t, parts[2])

	parts = readRanges(t, ts.client, "exports/empty.qvd", [2]int64{0, 10})
	assert.Empty(t, parts[0])
}

func TestOverGRPCMetadataExactKey(t *testing.T) {
	ts := startServer(t)
	defer ts.close()

	upload(t, ts.client, "exports/a.csv.bak", make([]byte, 300), 100)
	upload(t, ts.client, "exports/a.csv", make([]byte, 7), 100)
	upload(t, ts.client, "exports/a.csv2", make([]byte, 50), 100)

	meta, err := ts.client.Metadata(context.Background(), &pb.MetadataRequest{FileName: "exports/a.csv"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), meta.GetSize())
}

func TestOverGRPCErrors(t *testing.T) {
	ts := startServer(t)
	defer ts.close()
	ctx := context.Background()

	_, err := ts.client.Metadata(ctx, &pb.MetadataRequest{FileName: "nope"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, "No object matching supplied path", status.Convert(err).Message())

	stream, err := ts.client.Download(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&pb.DownloadRequest{File: &pb.FileReference{Name: "nope"}}))
	_, err = stream.Recv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	up, err := ts.client.Upload(ctx)
	require.NoError(t, err)
	require.NoError(t, up.Send(&pb.UploadRequest{Chunk: &pb.Chunk{Data: []byte("x")}}))
	_, err = up.CloseAndRecv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
