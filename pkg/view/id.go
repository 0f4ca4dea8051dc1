package view

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator produces view ids. Ids must be unique within the process.
type IDGenerator interface {
	NextID() string
}

// DefaultIDs is used by views created without an IDGenerator.
var DefaultIDs IDGenerator = UUIDGenerator{Prefix: "view-"}

// UUIDGenerator issues random UUID based ids.
type UUIDGenerator struct {
	Prefix string
}

func (g UUIDGenerator) NextID() string {
	return g.Prefix + uuid.NewString()
}

// Sequence issues ids made of a prefix and an increasing counter, which keeps
// ids stable across test runs. Each Sequence counts independently.
type Sequence struct {
	prefix string
	n      uint64
}

// NewSequence returns a Sequence starting at prefix1.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NextID() string {
	s.n++
	return s.prefix + strconv.FormatUint(s.n, 10)
}
