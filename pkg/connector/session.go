package connector

import (
	"github.com/google/uuid"
	"github.com/serverlessresearch/s3connector/pkg/connerr"
	"github.com/sirupsen/logrus"
)

type phase int

const (
	phaseInit phase = iota
	phaseFileSelected
	phaseStreaming
	phaseWriting
	phaseAcked
	phaseFailed
)

var phaseNames = [...]string{"init", "file-selected", "streaming", "writing", "acked", "failed"}

func (p phase) String() string {
	return phaseNames[p]
}

// session is the state of one download or upload call. It lives exactly as
// long as the call's stream and is never shared.
type session struct {
	id      string
	logger  logrus.FieldLogger
	phase   phase
	file    string
	version string
}

func (s *Service) newSession(call string) *session {
	id := uuid.New().String()
	return &session{
		id:     id,
		logger: s.logger.WithFields(logrus.Fields{"session": id, "call": call}),
	}
}

// requireNoFile rejects a second selection; the file of a call never changes.
func (sess *session) requireNoFile(name string) error {
	if sess.phase != phaseInit {
		return connerr.Errorf(connerr.ProtocolViolation, "select", "file %q already selected, cannot select %q", sess.file, name)
	}
	return nil
}

func (sess *session) selectFile(name, version string) error {
	if err := sess.requireNoFile(name); err != nil {
		return err
	}
	sess.file = name
	sess.version = version
	sess.phase = phaseFileSelected
	sess.logger = sess.logger.WithField("file", name)
	return nil
}

func (sess *session) requireFile(op string) error {
	if sess.phase == phaseInit {
		return connerr.New(connerr.ProtocolViolation, op, "no file selected")
	}
	return nil
}

// fail records err and returns it as an RPC status.
func (s *Service) fail(sess *session, err error) error {
	sess.phase = phaseFailed
	kind := connerr.KindOf(err)
	entry := sess.logger.WithFields(logrus.Fields{"kind": kind, "error": err})
	switch kind {
	case connerr.ProtocolViolation, connerr.StreamAborted:
		entry.Warn("call ended")
	default:
		entry.Error("call failed")
	}
	return s.toStatus(err)
}
