// Package byterange converts requested (start, length) pairs into HTTP range
// specs and back.
//
// Ranges are half open: a request for length bytes at start covers
// [start, start+length). HTTP range specs name the last byte inclusively, so
// the range spec for that request is "bytes=start-(start+length-1)".
package byterange

import (
	"math"
	"strconv"
	"strings"

	"github.com/serverlessresearch/s3connector/pkg/connerr"
)

// Range is a requested slice of an object. A negative Start means no start
// was given; a Length that is not positive means no length was given.
type Range struct {
	Start  int64
	Length int64
}

// ToSpec returns the range spec for r, or ok=false when r has no usable
// bounds or its end lies beyond the largest possible offset.
func ToSpec(r Range) (spec string, ok bool) {
	if r.Length <= 0 {
		return "", false
	}
	start := r.Start
	if start < 0 {
		start = 0
	}
	// the last byte must stay representable
	if r.Length > math.MaxInt64-start {
		return "", false
	}
	return format(start, start+r.Length-1), true
}

// MustSpec is ToSpec for callers that treat a missing range as a request
// error.
func MustSpec(r Range) (string, error) {
	spec, ok := ToSpec(r)
	if !ok {
		return "", connerr.Errorf(connerr.InvalidRange, "range", "no usable range in start=%d length=%d", r.Start, r.Length)
	}
	return spec, nil
}

// Probe is the smallest range a store can serve; it is used to check an
// object exists without transferring it.
func Probe() string {
	return format(0, 0)
}

func format(first, last int64) string {
	return "bytes=" + strconv.FormatInt(first, 10) + "-" + strconv.FormatInt(last, 10)
}

// Parse resolves spec against an object of the given size and returns the
// half open interval it selects. An empty spec selects the whole object.
// Suffix ranges ("bytes=-n") and open ranges ("bytes=n-") are accepted.
func Parse(spec string, size int64) (start, end int64, err error) {
	if spec == "" {
		return 0, size, nil
	}
	if !strings.HasPrefix(spec, "bytes=") || strings.Contains(spec, ",") {
		return 0, 0, connerr.Errorf(connerr.InvalidRange, "range", "unsupported range %q", spec)
	}
	bounds := strings.SplitN(strings.TrimPrefix(spec, "bytes="), "-", 2)
	if len(bounds) != 2 {
		return 0, 0, connerr.Errorf(connerr.InvalidRange, "range", "malformed range %q", spec)
	}

	switch {
	case bounds[0] == "":
		n, perr := strconv.ParseInt(bounds[1], 10, 64)
		if perr != nil || n <= 0 {
			return 0, 0, connerr.Errorf(connerr.InvalidRange, "range", "malformed range %q", spec)
		}
		if n > size {
			n = size
		}
		return size - n, size, nil
	default:
		first, perr := strconv.ParseInt(bounds[0], 10, 64)
		if perr != nil || first < 0 {
			return 0, 0, connerr.Errorf(connerr.InvalidRange, "range", "malformed range %q", spec)
		}
		last := size - 1
		if bounds[1] != "" {
			last, perr = strconv.ParseInt(bounds[1], 10, 64)
			if perr != nil || last < first {
				return 0, 0, connerr.Errorf(connerr.InvalidRange, "range", "malformed range %q", spec)
			}
		}
		if first >= size {
			return 0, 0, connerr.Errorf(connerr.InvalidRange, "range", "range %q not satisfiable for %d bytes", spec, size)
		}
		if last >= size {
			last = size - 1
		}
		return first, last + 1, nil
	}
}
