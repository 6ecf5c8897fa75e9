package jobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
)

// Status is the last outcome recorded for a job file.
type Status int

const (
	StatusPending Status = iota
	StatusInvalid
	StatusFailed
	StatusRendered
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusFailed:
		return "failed"
	case StatusRendered:
		return "rendered"
	default:
		return "pending"
	}
}

// Store is a thread-safe record of job outcomes keyed by job path.
//
// The store maintains three independent sync.Maps:
//   - states: job path to Status
//   - digests: job path to the digest of the last written artifacts
//   - errors: job path to the error of the last failed attempt
type Store struct {
	states  sync.Map
	digests sync.Map
	errors  sync.Map
}

// New creates a new, empty store.
func New() *Store {
	return &Store{}
}

// SetStatus records the outcome of the latest attempt at job. Any status
// other than StatusInvalid or StatusFailed clears the recorded error.
func (s *Store) SetStatus(job string, status Status) {
	s.states.Store(job, status)
	if status != StatusInvalid && status != StatusFailed {
		s.errors.Delete(job)
	}
}

// Status returns the recorded status of job, StatusPending if none.
func (s *Store) Status(job string) Status {
	v, ok := s.states.Load(job)
	if !ok {
		return StatusPending
	}
	return v.(Status)
}

// SetError records err as the failure of job and marks it failed or invalid.
func (s *Store) SetError(job string, status Status, err error) {
	s.states.Store(job, status)
	s.errors.Store(job, err)
}

// Error returns the last recorded failure of job, or nil.
func (s *Store) Error(job string) error {
	v, ok := s.errors.Load(job)
	if !ok {
		return nil
	}
	return v.(error)
}

// SetDigest records the digest of the artifacts written for job.
func (s *Store) SetDigest(job, digest string) {
	s.digests.Store(job, digest)
}

// Digest returns the digest last recorded for job, or "".
func (s *Store) Digest(job string) string {
	v, ok := s.digests.Load(job)
	if !ok {
		return ""
	}
	return v.(string)
}

// Jobs returns every job with a recorded status, sorted.
func (s *Store) Jobs() []string {
	var jobs []string
	s.states.Range(func(k, _ any) bool {
		jobs = append(jobs, k.(string))
		return true
	})
	sort.Strings(jobs)
	return jobs
}

// Digest hashes the output directory and every artifact in order.
func Digest(dir string, artifacts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(dir))
	for _, a := range artifacts {
		h.Write([]byte{0})
		h.Write(a)
	}
	return hex.EncodeToString(h.Sum(nil))
}
