package ordset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionKeepsFirstSeenOrder(t *testing.T) {
	got := Union([]string{"Curitiba", "São Paulo", "Curitiba"}, []string{"Recife", "São Paulo"})
	assert.Equal(t, []string{"Curitiba", "São Paulo", "Recife"}, got)
}

func TestUnionEmpty(t *testing.T) {
	assert.Equal(t, []string{}, Union())
	assert.Equal(t, []string{}, Union(nil, nil))
}

func TestAddDedups(t *testing.T) {
	list := []string{"Música", "Cinema"}
	assert.Equal(t, []string{"Música", "Cinema"}, Add(list, "Música"))
	assert.Equal(t, []string{"Música", "Cinema", "Teatro"}, Add(list, "Teatro"))
}

func TestRemove(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Remove([]string{"a", "b", "c", "b"}, "b"))
	assert.Equal(t, []string{}, Remove(nil, "b"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "B"))
}
