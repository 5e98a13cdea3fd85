package chunk

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"io/ioutil"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records everything sent to it, like the RPC stream would.
type collector struct {
	chunks []Chunk
	failAt int
}

func (c *collector) Send(ch Chunk) error {
	if c.failAt > 0 && len(c.chunks)+1 == c.failAt {
		return errors.New("transport is closing")
	}
	c.chunks = append(c.chunks, ch)
	return nil
}

func (c *collector) lastCount() int {
	n := 0
	for _, ch := range c.chunks {
		if ch.Last {
			n++
		}
	}
	return n
}

// failingReader returns data, then an error in place of EOF.
type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

type sliceSource struct {
	chunks []Chunk
}

func (s *sliceSource) Next() (Chunk, error) {
	if len(s.chunks) == 0 {
		return Chunk{}, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func randomBytes(t *testing.T, n int) []byte {
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

func TestFraming(t *testing.T) {
	c := Encode([]byte("abc"))
	assert.False(t, c.Last)
	assert.Equal(t, []byte("abc"), Decode(c))

	f := Final()
	assert.True(t, f.Last)
	assert.Empty(t, f.Data)

	// Last on an inbound chunk carries no meaning for the decoder.
	assert.Equal(t, []byte("xyz"), Decode(Chunk{Data: []byte("xyz"), Last: true}))
}

func TestRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 10*1024*1024 + 17} {
		data := randomBytes(t, size)

		out := &collector{}
		p := Pump{SegmentSize: 1024 * 1024}
		res, err := p.Transfer(context.Background(), ioutil.NopCloser(bytes.NewReader(data)), out)
		require.NoError(t, err, "size %d", size)
		assert.Nil(t, res.ReadErr)
		assert.Equal(t, int64(size), res.Bytes)

		require.NotEmpty(t, out.chunks)
		assert.Equal(t, 1, out.lastCount())
		assert.True(t, out.chunks[len(out.chunks)-1].Last)

		inbound := out.chunks[:len(out.chunks)-1]
		got, err := ioutil.ReadAll(NewReader(&sliceSource{chunks: inbound}))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got), "size %d did not round trip", size)
	}
}

func TestEncodeDecodeBuffers(t *testing.T) {
	var chunks []Chunk
	var want []byte
	for _, size := range []int{0, 1, 10*1024*1024 + 1} {
		buf := randomBytes(t, size)
		want = append(want, buf...)
		chunks = append(chunks, Encode(buf))
	}
	chunks = append(chunks, Final())

	got, err := ioutil.ReadAll(NewReader(&sliceSource{chunks: chunks[:len(chunks)-1]}))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, got))
}

func TestMaskedReadFailure(t *testing.T) {
	src := &failingReader{data: []byte("partial"), err: errors.New("connection reset by peer")}
	out := &collector{}

	res, err := Pump{SegmentSize: 4}.Transfer(context.Background(), ioutil.NopCloser(src), out)
	require.NoError(t, err)
	require.Error(t, res.ReadErr)
	assert.Equal(t, int64(7), res.Bytes)

	assert.Equal(t, 1, out.lastCount())
	assert.True(t, out.chunks[len(out.chunks)-1].Last)
	assert.Empty(t, out.chunks[len(out.chunks)-1].Data)
}

func TestPropagatedReadFailure(t *testing.T) {
	src := &failingReader{data: []byte("partial"), err: errors.New("connection reset by peer")}
	out := &collector{}

	_, err := Pump{SegmentSize: 4, Policy: PropagateFailures}.Transfer(context.Background(), ioutil.NopCloser(src), out)
	require.Error(t, err)
	assert.Equal(t, 0, out.lastCount())
}

func TestSendFailureAborts(t *testing.T) {
	data := randomBytes(t, 64)
	out := &collector{failAt: 2}

	_, err := Pump{SegmentSize: 8}.Transfer(context.Background(), ioutil.NopCloser(bytes.NewReader(data)), out)
	require.Error(t, err)
	assert.Equal(t, connerr.StreamAborted, connerr.KindOf(err))
	assert.Equal(t, 0, out.lastCount())
}

func TestCanceledTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	_, err := Pump{}.Transfer(ctx, pr, &collector{})
	require.Error(t, err)
	assert.Equal(t, connerr.StreamAborted, connerr.KindOf(err))
}

func TestReaderStopsOnSourceError(t *testing.T) {
	calls := 0
	src := SourceFunc(func() (Chunk, error) {
		calls++
		if calls == 1 {
			return Encode([]byte("ab")), nil
		}
		return Chunk{}, errors.New("stream reset")
	})

	r := NewReader(src)
	buf := make([]byte, 1)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	// the second byte is served from the buffered chunk
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)

	_, err = r.Read(buf)
	assert.EqualError(t, err, "stream reset")
	assert.Equal(t, int64(2), r.Total())
}

// countingReader counts the bytes handed to the pump.
type countingReader struct {
	r      io.Reader
	served int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	atomic.AddInt64(&c.served, int64(n))
	return n, err
}

// gatedSender blocks every Send until release is closed.
type gatedSender struct {
	first   chan struct{}
	release chan struct{}
	once    sync.Once
	bytes   int64
}

func (g *gatedSender) Send(c Chunk) error {
	g.once.Do(func() { close(g.first) })
	<-g.release
	g.bytes += int64(len(c.Data))
	return nil
}

func TestSlowSenderStallsReads(t *testing.T) {
	const segment = 16
	src := &countingReader{r: bytes.NewReader(randomBytes(t, 1000))}
	dst := &gatedSender{first: make(chan struct{}), release: make(chan struct{})}

	type result struct {
		res Result
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := Pump{SegmentSize: segment}.Transfer(context.Background(), ioutil.NopCloser(src), dst)
		done <- result{res, err}
	}()

	<-dst.first
	// give the reader every chance to run ahead of the stuck sender
	time.Sleep(50 * time.Millisecond)
	// one segment is in the sender, at most one more waits to be handed over
	assert.True(t, atomic.LoadInt64(&src.served) <= 2*segment, "read %d bytes ahead", atomic.LoadInt64(&src.served))

	close(dst.release)
	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, int64(1000), r.res.Bytes)
	assert.Equal(t, int64(1000), atomic.LoadInt64(&src.served))
}

func TestReaderPullsAfterConsumption(t *testing.T) {
	consumed := 0
	var pulledAt []int
	src := &sliceSource{chunks: []Chunk{Encode([]byte("abcd")), Encode([]byte("efgh"))}}
	r := NewReader(SourceFunc(func() (Chunk, error) {
		pulledAt = append(pulledAt, consumed)
		return src.Next()
	}))

	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		consumed += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	// a chunk is only requested once every byte of the previous one was read
	assert.Equal(t, []int{0, 4, 8}, pulledAt)
	assert.Equal(t, 8, consumed)
}
