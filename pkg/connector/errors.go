package connector

import (
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Existing hosts only understand InvalidArgument, so detailed codes are opt in.
var detailedCodes = map[connerr.Kind]codes.Code{
	connerr.NotFound:          codes.NotFound,
	connerr.InvalidRange:      codes.OutOfRange,
	connerr.StoreUnavailable:  codes.Unavailable,
	connerr.ProtocolViolation: codes.FailedPrecondition,
	connerr.StreamAborted:     codes.Canceled,
	connerr.Timeout:           codes.DeadlineExceeded,
}

func (s *Service) wireCode(kind connerr.Kind) codes.Code {
	if !s.cfg.DetailedCodes {
		return codes.InvalidArgument
	}
	if code, ok := detailedCodes[kind]; ok {
		return code
	}
	return codes.Unknown
}

func (s *Service) toStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(s.wireCode(connerr.KindOf(err)), connerr.Message(err))
}
