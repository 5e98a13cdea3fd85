// Package chunk frames byte streams as wire chunks and back.
//
// Downloads go through a Pump, which reads the store stream one segment at a
// time and hands each segment to a Sender that blocks until the RPC layer has
// accepted it, so a slow caller stalls the store read. Uploads go through a
// Reader, which only pulls the next inbound chunk when its consumer asks for
// more bytes.
package chunk

import "fmt"

type Chunk struct {
	Data []byte
	Last bool
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk{%d bytes, last=%t}", len(c.Data), c.Last)
}

// Encode wraps one segment of a transfer.
func Encode(buf []byte) Chunk {
	return Chunk{Data: buf}
}

// Final is the terminal chunk of a transfer. Exactly one is sent per transfer
// and nothing follows it.
func Final() Chunk {
	return Chunk{Data: []byte{}, Last: true}
}

// Decode strips the framing of an inbound chunk. Last is not inspected; the
// end of an inbound transfer is the end of the request stream.
func Decode(c Chunk) []byte {
	return c.Data
}

// Outcome is one step of a transfer as seen by the store side: either a chunk
// ready for the wire or the reason the source failed.
type Outcome struct {
	Chunk Chunk
	Err   error
}

func Ok(c Chunk) Outcome {
	return Outcome{Chunk: c}
}

func Failed(err error) Outcome {
	return Outcome{Err: err}
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}
