package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

func TestResolve(t *testing.T) {
	c := NewContainer()
	c.Register("greeter", &greeter{name: "小明"})

	g, err := Resolve[*greeter](c, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "小明", g.name)

	_, err = Resolve[*greeter](c, "missing")
	assert.Error(t, err)

	_, err = Resolve[string](c, "greeter")
	assert.Error(t, err)
}

func TestNamesAreSorted(t *testing.T) {
	c := NewContainer()
	c.Register("journey", 1)
	c.Register("config", 2)
	c.Register("archive", 3)

	assert.Equal(t, []string{"archive", "config", "journey"}, c.GetNames())
	assert.True(t, c.Has("config"))

	c.Clear()
	assert.False(t, c.Has("config"))
}
