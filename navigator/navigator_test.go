package navigator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-varma-group/qrgate/navigator"
	"github.com/m-varma-group/qrgate/snapshot"
)

func file(id, name string) snapshot.Entry {
	return snapshot.Entry{ID: id, Name: name, Kind: snapshot.KindFile}
}

func folder(id, name string, children ...snapshot.Entry) snapshot.Entry {
	if children == nil {
		children = []snapshot.Entry{}
	}
	return snapshot.Entry{ID: id, Name: name, Kind: snapshot.KindContainer, Children: children}
}

func getNavigator() *navigator.Navigator {
	root := []snapshot.Entry{
		file("a", "fileA"),
		folder("b", "folderB", file("c", "fileC"), file("d", "fileD")),
	}
	return navigator.New("Site Photos", root)
}

func TestCurrentStartsAtRoot(t *testing.T) {
	nav := getNavigator()

	assert.True(t, nav.AtRoot())
	assert.Equal(t, 2, len(nav.Current()))
	assert.Equal(t, []string{"Site Photos"}, nav.Breadcrumbs())
}

func TestOpenContainer(t *testing.T) {
	nav := getNavigator()

	moved := nav.Open(nav.Current()[1])

	assert.True(t, moved)
	assert.False(t, nav.AtRoot())
	assert.Equal(t, []string{"Site Photos", "folderB"}, nav.Breadcrumbs())

	current := nav.Current()
	assert.Equal(t, 2, len(current))
	assert.Equal(t, "fileC", current[0].Name)
	assert.Equal(t, "fileD", current[1].Name)
}

func TestOpenFileIsNoOp(t *testing.T) {
	nav := getNavigator()

	moved := nav.Open(nav.Current()[0])

	assert.False(t, moved)
	assert.True(t, nav.AtRoot())
	assert.Equal(t, []string{"Site Photos"}, nav.Breadcrumbs())
}

func TestBack(t *testing.T) {
	nav := getNavigator()

	nav.Open(nav.Current()[1])
	moved := nav.Back()

	assert.True(t, moved)
	assert.True(t, nav.AtRoot())
	assert.Equal(t, []string{"Site Photos"}, nav.Breadcrumbs())
	assert.Equal(t, 2, len(nav.Current()))
}

func TestBackBeyondRoot(t *testing.T) {
	nav := getNavigator()

	nav.Open(nav.Current()[1])
	nav.Back()

	// popping an empty stack stays at the root
	moved := nav.Back()

	assert.False(t, moved)
	assert.True(t, nav.AtRoot())
	assert.Equal(t, []string{"Site Photos"}, nav.Breadcrumbs())
}

func TestNestedNavigation(t *testing.T) {
	inner := folder("inner", "inner", file("deep", "deep.txt"))
	root := []snapshot.Entry{folder("outer", "outer", inner)}
	nav := navigator.New("root", root)

	nav.Open(nav.Current()[0])
	nav.Open(nav.Current()[0])

	assert.Equal(t, []string{"root", "outer", "inner"}, nav.Breadcrumbs())
	assert.Equal(t, "deep.txt", nav.Current()[0].Name)

	nav.Back()
	assert.Equal(t, []string{"root", "outer"}, nav.Breadcrumbs())
}

func TestEmptyContainer(t *testing.T) {
	nav := navigator.New("root", []snapshot.Entry{folder("empty", "empty")})

	nav.Open(nav.Current()[0])

	assert.Equal(t, 0, len(nav.Current()))
	assert.Equal(t, []string{"root", "empty"}, nav.Breadcrumbs())
}
