package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testStore(dimension int) *Store {
	return &Store{dimension: dimension}
}

func TestValidate_RejectsMissingMetadata(t *testing.T) {
	s := testStore(3)
	err := s.validate(Entry{Vector: []float32{1, 2, 3}})
	assert.Error(t, err)
}

func TestValidate_RejectsDimensionMismatch(t *testing.T) {
	s := testStore(3)
	err := s.validate(Entry{EntityID: "e1", ProjectID: "p1", Kind: "function", FilePath: "a.go", Name: "f", Vector: []float32{1, 2}})
	assert.Error(t, err)
}

func TestValidate_AcceptsWellFormedEntry(t *testing.T) {
	s := testStore(3)
	err := s.validate(Entry{EntityID: "e1", ProjectID: "p1", Kind: "function", FilePath: "a.go", Name: "f", Vector: []float32{1, 2, 3}})
	assert.NoError(t, err)
}
