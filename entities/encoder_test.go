package entities_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"

	"github.com/m-varma-group/qrgate/entities"
)

type testEncEmpty struct {
	entities.Prototype
}

type testEnc struct {
	entities.Prototype

	Name     entities.Definable[string] `bson:"name"`
	MaxDepth entities.Definable[int]    `bson:"maxDepth"`
}

func getCustomRegistry() *bsoncodec.Registry {
	r := bson.NewRegistry()

	entities.RegisterEncoders(r)

	return r
}

func getEncoder(buf *bytes.Buffer) (*bson.Encoder, error) {
	vw, err := bsonrw.NewBSONValueWriter(buf)
	if err != nil {
		return nil, err
	}
	enc, err := bson.NewEncoder(vw)
	if err != nil {
		return nil, err
	}
	enc.SetRegistry(getCustomRegistry())
	return enc, nil
}

func TestEncodeEmpty(t *testing.T) {
	v := testEncEmpty{}
	expected := bson.M{}
	doTest(t, v, expected)
}

func TestEncodeAllDefined(t *testing.T) {
	v := testEnc{}
	v.Name.Set("Blueprints")
	v.MaxDepth.Set(5)

	expected := bson.M{
		"name":     "Blueprints",
		"maxDepth": int32(5),
	}

	doTest(t, v, expected)
}

func TestEncodeSomeDefined(t *testing.T) {
	v := testEnc{}
	v.MaxDepth.Set(3)

	expected := bson.M{
		"maxDepth": int32(3),
	}

	doTest(t, v, expected)
}

func TestEncodeNoneDefined(t *testing.T) {
	v := testEnc{}

	expected := bson.M{}

	doTest(t, v, expected)
}

func doTest[T entities.Prototype](t *testing.T, v T, expected bson.M) {
	buf := new(bytes.Buffer)
	enc, err := getEncoder(buf)
	if err != nil {
		t.Fatal(err)
	}

	err = enc.Encode(v)
	if err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()

	var result bson.M
	err = bson.Unmarshal(data, &result)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, expected, result)
}
