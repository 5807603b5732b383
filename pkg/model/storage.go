package model

import "flowc/pkg/ident"

// Storage is a named binding to an out-of-scope storage adapter (SQL,
// key-value, blob — see pkg/storageref for reference implementations of the
// contract). Tasks self-register into Tasks when constructed with this
// Storage attached.
type Storage struct {
	Name          string
	ImportPath    string
	ClassName     string
	Configuration map[string]interface{}
	CacheConfig   CacheConfig
	Tasks         []*Task
}

// NodeName implements Node.
func (s *Storage) NodeName() string { return s.Name }

// IsTask implements Node.
func (s *Storage) IsTask() bool { return false }

// IsFlow implements Node.
func (s *Storage) IsFlow() bool { return false }

// RegisterTask attaches task to this storage's back-reference set. Called
// during task construction, mirroring the teacher's
// Storage.register_task-on-construction pattern from the original source.
func (s *Storage) RegisterTask(t *Task) {
	s.Tasks = append(s.Tasks, t)
	t.Storage = s
}

// Validate enforces the identifier invariant on Storage.
func (s *Storage) Validate() error {
	return ident.Check("storage", s.Name)
}
