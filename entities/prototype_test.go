package entities_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/m-varma-group/qrgate/entities"
)

type CodeProto struct {
	entities.Prototype

	Name        entities.Definable[string]
	Password    entities.Definable[string]
	ShowOverlay entities.Definable[bool]
	MaxDepth    entities.Definable[int]

	Node entities.Definable[NodeRecord]

	Tags  entities.Definable[[]string]
	Nodes entities.Definable[[]NodeRecord]
}

type NodeRecord struct {
	Name string
}

func TestPanicNonPointer(t *testing.T) {
	assert.PanicsWithError(t, "MakePrototype must be called with pointer value", func() {
		entities.MakePrototype(CodeProto{})
	})
}

func TestMarshal(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})
	proto.Name.Set("Site Photos")
	proto.MaxDepth.Set(5)
	proto.ShowOverlay.Set(true)
	proto.Tags.Set([]string{"drive", "folder"})

	data, err := json.Marshal(proto)
	str := string(data)

	assert.Nil(t, err)
	assert.Equal(t, "{\"maxDepth\":5,\"name\":\"Site Photos\",\"showOverlay\":true,\"tags\":[\"drive\",\"folder\"]}", str)
}

func TestMarshalEmpty(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	data, err := json.Marshal(proto)
	str := string(data)

	assert.Nil(t, err)
	assert.Equal(t, "{}", str)
}

func TestUnmarshalProp(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	jsonString := "{ \"name\": \"Site Photos\", \"maxDepth\": 3, \"showOverlay\": false, \"tags\": [\"a\", \"b\"] }"

	err := json.Unmarshal([]byte(jsonString), &proto)

	assert.Nil(t, err)
	assert.True(t, proto.Name.IsDefined())
	assert.Equal(t, "Site Photos", proto.Name.Get())
	assert.True(t, proto.MaxDepth.IsDefined())
	assert.Equal(t, 3, proto.MaxDepth.Get())
	assert.True(t, proto.ShowOverlay.IsDefined())
	assert.Equal(t, false, proto.ShowOverlay.Get())
	assert.True(t, proto.Tags.IsDefined())
	assert.Equal(t, []string{"a", "b"}, proto.Tags.Get())
}

func TestUnmarshalEmpty(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	err := json.Unmarshal([]byte("{}"), &proto)

	assert.Nil(t, err)
	assert.Equal(t, "", proto.Name.Get())
	assert.False(t, proto.Name.IsDefined())
	assert.Equal(t, 0, proto.MaxDepth.Get())
	assert.False(t, proto.MaxDepth.IsDefined())
	assert.False(t, proto.ShowOverlay.Get())
	assert.False(t, proto.ShowOverlay.IsDefined())
}

func TestUnmarshalUnknownProp(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	err := json.Unmarshal([]byte("{ \"foo\": \"bar\" }"), &proto)

	assert.Nil(t, err)
	assert.False(t, proto.Name.IsDefined())
}

func TestUnmarshalWrongType(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	err := json.Unmarshal([]byte("{ \"name\": 42 }"), &proto)

	assert.NotNil(t, err)
}

func TestUnmarshalWrongType2(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	err := json.Unmarshal([]byte("{ \"maxDepth\": 42.5 }"), &proto)

	assert.NotNil(t, err)
}

func TestMarshalStruct(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})
	proto.Node.Set(NodeRecord{
		Name: "report.pdf",
	})

	data, err := json.Marshal(proto)
	str := string(data)

	assert.Nil(t, err)
	assert.Equal(t, "{\"node\":{\"Name\":\"report.pdf\"}}", str)
}

func TestUnmarshalStruct(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	jsonString := "{\"node\":{\"Name\":\"report.pdf\"}}"

	err := json.Unmarshal([]byte(jsonString), &proto)

	assert.Nil(t, err)
	assert.False(t, proto.Name.IsDefined())
	assert.True(t, proto.Node.IsDefined())
	assert.Equal(t, NodeRecord{"report.pdf"}, proto.Node.Get())
}

func TestMarshalStructSlice(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})
	proto.Nodes.Set([]NodeRecord{
		{Name: "a.txt"},
		{Name: "b.txt"},
	})

	data, err := json.Marshal(proto)
	str := string(data)

	assert.Nil(t, err)
	assert.Equal(t, "{\"nodes\":[{\"Name\":\"a.txt\"},{\"Name\":\"b.txt\"}]}", str)
}

func TestUnmarshalStructSlice(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	jsonString := "{\"nodes\":[{\"Name\":\"a.txt\"},{\"Name\":\"b.txt\"}]}"

	err := json.Unmarshal([]byte(jsonString), &proto)

	assert.Nil(t, err)
	assert.True(t, proto.Nodes.IsDefined())
	assert.Equal(t, []NodeRecord{{"a.txt"}, {"b.txt"}}, proto.Nodes.Get())
}

func TestToBson(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})
	proto.Name.Set("Site Photos")
	proto.ShowOverlay.Set(true)

	m := entities.ToBson(proto)

	assert.Equal(t, bson.M{
		"name":        "Site Photos",
		"showOverlay": true,
	}, m)
}

func TestToBsonEmpty(t *testing.T) {
	proto := entities.MakePrototype(&CodeProto{})

	m := entities.ToBson(proto)

	assert.Equal(t, bson.M{}, m)
}
