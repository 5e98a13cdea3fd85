package chunk

import "io"

// Source yields inbound chunks. io.EOF ends the transfer; any other error
// aborts it.
type Source interface {
	Next() (Chunk, error)
}

type SourceFunc func() (Chunk, error)

func (f SourceFunc) Next() (Chunk, error) {
	return f()
}

// Reader presents a Source as a byte stream. A chunk is only requested from
// the Source once the bytes of the previous one have been consumed.
type Reader struct {
	src   Source
	buf   []byte
	err   error
	total int64
}

func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		c, err := r.src.Next()
		if err != nil {
			r.err = err
			continue
		}
		r.buf = Decode(c)
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	r.total += int64(n)
	return n, nil
}

// Total is the number of bytes handed out so far.
func (r *Reader) Total() int64 {
	return r.total
}

var _ io.Reader = (*Reader)(nil)
