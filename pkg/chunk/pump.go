package chunk

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"golang.org/x/sync/errgroup"
)

const DefaultSegmentSize = 256 * 1024

// Sender accepts outbound chunks. Send must not return before the chunk has
// been handed to the transport.
type Sender interface {
	Send(Chunk) error
}

type SenderFunc func(Chunk) error

func (f SenderFunc) Send(c Chunk) error {
	return f(c)
}

// FailurePolicy decides what the caller sees when the source fails after the
// transfer has started.
type FailurePolicy int

const (
	// MaskFailures ends the transfer with the terminal chunk, so the caller
	// sees a short but cleanly terminated transfer.
	MaskFailures FailurePolicy = iota
	// PropagateFailures returns the read error instead of a terminal chunk.
	PropagateFailures
)

// Result describes a finished transfer. ReadErr is set when the source failed
// and the failure was masked.
type Result struct {
	Bytes    int64
	Segments int
	ReadErr  error
}

type Pump struct {
	SegmentSize int
	Policy      FailurePolicy
}

// Transfer copies src to dst, one chunk per segment, followed by exactly one
// terminal chunk unless an error is returned. src is closed before Transfer
// returns.
func (p Pump) Transfer(ctx context.Context, src io.ReadCloser, dst Sender) (Result, error) {
	size := p.SegmentSize
	if size <= 0 {
		size = DefaultSegmentSize
	}

	g, gctx := errgroup.WithContext(ctx)
	outcomes := make(chan Outcome)

	g.Go(func() error {
		defer close(outcomes)
		return readSegments(gctx, src, size, outcomes)
	})

	var res Result
	g.Go(func() error {
		var err error
		res, err = p.send(gctx, outcomes, dst)
		if err != nil {
			// unblocks a Read stuck in the producer
			src.Close()
		}
		return err
	})

	err := g.Wait()
	src.Close()
	return res, err
}

func readSegments(ctx context.Context, src io.Reader, size int, out chan<- Outcome) error {
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			select {
			case out <- Ok(Encode(buf[:n])):
			case <-ctx.Done():
				return nil
			}
		}
		switch err {
		case nil:
			continue
		case io.EOF, io.ErrUnexpectedEOF:
			return nil
		default:
			select {
			case out <- Failed(err):
			case <-ctx.Done():
			}
			return nil
		}
	}
}

func (p Pump) send(ctx context.Context, in <-chan Outcome, dst Sender) (Result, error) {
	var res Result
	for {
		select {
		case <-ctx.Done():
			return res, connerr.Wrap(connerr.StreamAborted, "transfer", ctx.Err())
		case o, ok := <-in:
			if !ok {
				if err := ctx.Err(); err != nil {
					return res, connerr.Wrap(connerr.StreamAborted, "transfer", err)
				}
				return res, sendFinal(dst)
			}
			if o.Failed() {
				if p.Policy == PropagateFailures {
					return res, errors.Wrap(o.Err, "reading object")
				}
				res.ReadErr = o.Err
				return res, sendFinal(dst)
			}
			if err := dst.Send(o.Chunk); err != nil {
				return res, connerr.Wrap(connerr.StreamAborted, "transfer", err)
			}
			res.Bytes += int64(len(o.Chunk.Data))
			res.Segments++
		}
	}
}

func sendFinal(dst Sender) error {
	if err := dst.Send(Final()); err != nil {
		return connerr.Wrap(connerr.StreamAborted, "transfer", err)
	}
	return nil
}
