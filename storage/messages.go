package storage

import (
	"github.com/hamba/avro/v2"
)

const StorageTopicPrefix = "qrgate.storage."
const StorageUploadTopicPrefix = "qrgate.storage_upload."

type ItemInfo struct {
	ID          string `avro:"id"`
	Name        string `avro:"name"`
	IsContainer bool   `avro:"isContainer"`
	Size        int64  `avro:"size"`
	ModTime     int64  `avro:"modTime"`
}

var ItemInfoSchema avro.Schema

type ListChildrenRequest struct {
	ContainerID string `avro:"containerId"`
}

var ListChildrenRequestSchema avro.Schema

type ListChildrenResponse struct {
	Error string     `avro:"error"`
	Items []ItemInfo `avro:"items"`
}

var ListChildrenResponseSchema avro.Schema

type StatRequest struct {
	ItemID string `avro:"itemId"`
}

var StatRequestSchema avro.Schema

type StatResponse struct {
	Error string   `avro:"error"`
	Item  ItemInfo `avro:"item"`
}

var StatResponseSchema avro.Schema

type CreateContainerRequest struct {
	ParentID string `avro:"parentId"`
	Name     string `avro:"name"`
}

var CreateContainerRequestSchema avro.Schema

type CreateContainerResponse struct {
	ContainerID string `avro:"containerId"`
	Error       string `avro:"error"`
}

var CreateContainerResponseSchema avro.Schema

type DeleteRequest struct {
	ItemID string `avro:"itemId"`
}

var DeleteRequestSchema avro.Schema

type DeleteResponse struct {
	Error string `avro:"error"`
}

var DeleteResponseSchema avro.Schema

type OpenUploadRequest struct {
	ContainerID string `avro:"containerId"`
	Name        string `avro:"name"`
}

var OpenUploadRequestSchema avro.Schema

type OpenUploadResponse struct {
	UploadID string `avro:"uploadId"`
	Error    string `avro:"error"`
}

var OpenUploadResponseSchema avro.Schema

type UploadChunkRequest struct {
	Payload []byte `avro:"payload"`
}

var UploadChunkRequestSchema avro.Schema

type UploadChunkResponse struct {
	Len   int    `avro:"len"`
	Error string `avro:"error"`
}

var UploadChunkResponseSchema avro.Schema

type UploadCommitRequest struct {
}

var UploadCommitRequestSchema avro.Schema

type UploadCommitResponse struct {
	ItemID string `avro:"itemId"`
	Error  string `avro:"error"`
}

var UploadCommitResponseSchema avro.Schema

type UploadAbortRequest struct {
}

var UploadAbortRequestSchema avro.Schema

type UploadAbortResponse struct {
	Error string `avro:"error"`
}

var UploadAbortResponseSchema avro.Schema

type StorageRequest struct {
	Uid     string `avro:"uid"`
	Request any    `avro:"request"`
}

var StorageRequestSchema avro.Schema

type StorageResponse struct {
	Uid      string `avro:"uid"`
	Response any    `avro:"response"`
}

var StorageResponseSchema avro.Schema

type StorageUploadRequest struct {
	Uid      string `avro:"uid"`
	UploadID string `avro:"uploadId"`
	Request  any    `avro:"request"`
}

var StorageUploadRequestSchema avro.Schema

type StorageUploadResponse struct {
	Uid      string `avro:"uid"`
	Response any    `avro:"response"`
}

var StorageUploadResponseSchema avro.Schema

func init() {
	ItemInfoSchema = avro.MustParse(`{
		"type": "record",
		"name": "ItemInfo",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "id", "type": "string"},
			{"name": "name", "type": "string"},
			{"name": "isContainer", "type": "boolean"},
			{"name": "size", "type": "long"},
			{"name": "modTime", "type": "long"}
		]
	}`)

	ListChildrenRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "ListChildrenRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "containerId", "type": "string"}
		]
	}`)

	ListChildrenResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "ListChildrenResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "error", "type": "string"},
			{"name": "items", "type": {"type": "array", "items": "ItemInfo"}}
		]
	}`)

	StatRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "StatRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "itemId", "type": "string"}
		]
	}`)

	StatResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "StatResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "error", "type": "string"},
			{"name": "item", "type": "ItemInfo"}
		]
	}`)

	CreateContainerRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "CreateContainerRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "parentId", "type": "string"},
			{"name": "name", "type": "string"}
		]
	}`)

	CreateContainerResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "CreateContainerResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "containerId", "type": "string"},
			{"name": "error", "type": "string"}
		]
	}`)

	DeleteRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "DeleteRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "itemId", "type": "string"}
		]
	}`)

	DeleteResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "DeleteResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "error", "type": "string"}
		]
	}`)

	OpenUploadRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "OpenUploadRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "containerId", "type": "string"},
			{"name": "name", "type": "string"}
		]
	}`)

	OpenUploadResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "OpenUploadResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "uploadId", "type": "string"},
			{"name": "error", "type": "string"}
		]
	}`)

	UploadChunkRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "UploadChunkRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "payload", "type": "bytes"}
		]
	}`)

	UploadChunkResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "UploadChunkResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "len", "type": "int"},
			{"name": "error", "type": "string"}
		]
	}`)

	UploadCommitRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "UploadCommitRequest",
		"namespace": "qrgate.storage",
		"fields": [
		]
	}`)

	UploadCommitResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "UploadCommitResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "itemId", "type": "string"},
			{"name": "error", "type": "string"}
		]
	}`)

	UploadAbortRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "UploadAbortRequest",
		"namespace": "qrgate.storage",
		"fields": [
		]
	}`)

	UploadAbortResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "UploadAbortResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "error", "type": "string"}
		]
	}`)

	StorageRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "StorageRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "uid", "type": "string"},
			{"name": "request", "type": [
				"ListChildrenRequest",
				"StatRequest",
				"CreateContainerRequest",
				"DeleteRequest",
				"OpenUploadRequest"
			]}
		]
	}`)

	StorageResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "StorageResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "uid", "type": "string"},
			{"name": "response", "type": [
				"ListChildrenResponse",
				"StatResponse",
				"CreateContainerResponse",
				"DeleteResponse",
				"OpenUploadResponse"
			]}
		]
	}`)

	StorageUploadRequestSchema = avro.MustParse(`{
		"type": "record",
		"name": "StorageUploadRequest",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "uid", "type": "string"},
			{"name": "uploadId", "type": "string"},
			{"name": "request", "type": [
				"UploadChunkRequest",
				"UploadCommitRequest",
				"UploadAbortRequest"
			]}
		]
	}`)

	StorageUploadResponseSchema = avro.MustParse(`{
		"type": "record",
		"name": "StorageUploadResponse",
		"namespace": "qrgate.storage",
		"fields": [
			{"name": "uid", "type": "string"},
			{"name": "response", "type": [
				"UploadChunkResponse",
				"UploadCommitResponse",
				"UploadAbortResponse"
			]}
		]
	}`)
}

func NewMessageApi() avro.API {
	api := avro.Config{
		UnionResolutionError:       true,
		PartialUnionTypeResolution: false,
	}.Freeze()

	//Request types
	api.Register("qrgate.storage.ListChildrenRequest", ListChildrenRequest{})
	api.Register("qrgate.storage.StatRequest", StatRequest{})
	api.Register("qrgate.storage.CreateContainerRequest", CreateContainerRequest{})
	api.Register("qrgate.storage.DeleteRequest", DeleteRequest{})
	api.Register("qrgate.storage.OpenUploadRequest", OpenUploadRequest{})

	//Response types
	api.Register("qrgate.storage.ItemInfo", ItemInfo{})
	api.Register("qrgate.storage.ListChildrenResponse", ListChildrenResponse{})
	api.Register("qrgate.storage.StatResponse", StatResponse{})
	api.Register("qrgate.storage.CreateContainerResponse", CreateContainerResponse{})
	api.Register("qrgate.storage.DeleteResponse", DeleteResponse{})
	api.Register("qrgate.storage.OpenUploadResponse", OpenUploadResponse{})

	//Upload request types
	api.Register("qrgate.storage.UploadChunkRequest", UploadChunkRequest{})
	api.Register("qrgate.storage.UploadCommitRequest", UploadCommitRequest{})
	api.Register("qrgate.storage.UploadAbortRequest", UploadAbortRequest{})

	//Upload response types
	api.Register("qrgate.storage.UploadChunkResponse", UploadChunkResponse{})
	api.Register("qrgate.storage.UploadCommitResponse", UploadCommitResponse{})
	api.Register("qrgate.storage.UploadAbortResponse", UploadAbortResponse{})

	//Message types
	api.Register("qrgate.storage.StorageRequest", StorageRequest{})
	api.Register("qrgate.storage.StorageResponse", StorageResponse{})
	api.Register("qrgate.storage.StorageUploadRequest", StorageUploadRequest{})
	api.Register("qrgate.storage.StorageUploadResponse", StorageUploadResponse{})

	return api
}
