// Package connectorpb holds the message types and gRPC stubs of the HostedDrive
// contract described in connector.proto. The types are maintained by hand and
// carry the protobuf struct tags golang/protobuf needs to marshal them, so the
// wire format matches any generated client of the same schema.
package connectorpb

import (
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/empty"
)

type Capabilities struct {
	SupportsRandomRead bool `protobuf:"varint,1,opt,name=supportsRandomRead,proto3" json:"supportsRandomRead,omitempty"`
}

func (m *Capabilities) Reset()         { *m = Capabilities{} }
func (m *Capabilities) String() string { return proto.CompactTextString(m) }
func (*Capabilities) ProtoMessage()    {}

func (m *Capabilities) GetSupportsRandomRead() bool {
	if m != nil {
		return m.SupportsRandomRead
	}
	return false
}

type FileReference struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
}

func (m *FileReference) Reset()         { *m = FileReference{} }
func (m *FileReference) String() string { return proto.CompactTextString(m) }
func (*FileReference) ProtoMessage()    {}

func (m *FileReference) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

type ByteRange struct {
	Start  int64 `protobuf:"varint,1,opt,name=start,proto3" json:"start,omitempty"`
	Length int64 `protobuf:"varint,2,opt,name=length,proto3" json:"length,omitempty"`
}

func (m *ByteRange) Reset()         { *m = ByteRange{} }
func (m *ByteRange) String() string { return proto.CompactTextString(m) }
func (*ByteRange) ProtoMessage()    {}

func (m *ByteRange) GetStart() int64 {
	if m != nil {
		return m.Start
	}
	return 0
}

func (m *ByteRange) GetLength() int64 {
	if m != nil {
		return m.Length
	}
	return 0
}

type Chunk struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
	Last bool   `protobuf:"varint,2,opt,name=last,proto3" json:"last,omitempty"`
}

func (m *Chunk) Reset()         { *m = Chunk{} }
func (m *Chunk) String() string { return proto.CompactTextString(m) }
func (*Chunk) ProtoMessage()    {}

func (m *Chunk) GetData() []byte {
	if m != nil {
		return m.Data
	}
	return nil
}

func (m *Chunk) GetLast() bool {
	if m != nil {
		return m.Last
	}
	return false
}

type DownloadRequest struct {
	File  *FileReference `protobuf:"bytes,1,opt,name=file,proto3" json:"file,omitempty"`
	Chunk *ByteRange     `protobuf:"bytes,2,opt,name=chunk,proto3" json:"chunk,omitempty"`
}

func (m *DownloadRequest) Reset()         { *m = DownloadRequest{} }
func (m *DownloadRequest) String() string { return proto.CompactTextString(m) }
func (*DownloadRequest) ProtoMessage()    {}

func (m *DownloadRequest) GetFile() *FileReference {
	if m != nil {
		return m.File
	}
	return nil
}

func (m *DownloadRequest) GetChunk() *ByteRange {
	if m != nil {
		return m.Chunk
	}
	return nil
}

type DownloadResponse struct {
	Response *empty.Empty `protobuf:"bytes,1,opt,name=response,proto3" json:"response,omitempty"`
	Chunk    *Chunk       `protobuf:"bytes,2,opt,name=chunk,proto3" json:"chunk,omitempty"`
}

func (m *DownloadResponse) Reset()         { *m = DownloadResponse{} }
func (m *DownloadResponse) String() string { return proto.CompactTextString(m) }
func (*DownloadResponse) ProtoMessage()    {}

func (m *DownloadResponse) GetResponse() *empty.Empty {
	if m != nil {
		return m.Response
	}
	return nil
}

func (m *DownloadResponse) GetChunk() *Chunk {
	if m != nil {
		return m.Chunk
	}
	return nil
}

type UploadRequest struct {
	File  *FileReference `protobuf:"bytes,1,opt,name=file,proto3" json:"file,omitempty"`
	Chunk *Chunk         `protobuf:"bytes,2,opt,name=chunk,proto3" json:"chunk,omitempty"`
}

func (m *UploadRequest) Reset()         { *m = UploadRequest{} }
func (m *UploadRequest) String() string { return proto.CompactTextString(m) }
func (*UploadRequest) ProtoMessage()    {}

func (m *UploadRequest) GetFile() *FileReference {
	if m != nil {
		return m.File
	}
	return nil
}

func (m *UploadRequest) GetChunk() *Chunk {
	if m != nil {
		return m.Chunk
	}
	return nil
}

type ListRequest struct {
	PathPattern string `protobuf:"bytes,1,opt,name=pathPattern,proto3" json:"pathPattern,omitempty"`
}

func (m *ListRequest) Reset()         { *m = ListRequest{} }
func (m *ListRequest) String() string { return proto.CompactTextString(m) }
func (*ListRequest) ProtoMessage()    {}

func (m *ListRequest) GetPathPattern() string {
	if m != nil {
		return m.PathPattern
	}
	return ""
}

type FileMeta struct {
	Size        int64 `protobuf:"varint,1,opt,name=size,proto3" json:"size,omitempty"`
	LastUpdated int64 `protobuf:"varint,2,opt,name=lastUpdated,proto3" json:"lastUpdated,omitempty"`
}

func (m *FileMeta) Reset()         { *m = FileMeta{} }
func (m *FileMeta) String() string { return proto.CompactTextString(m) }
func (*FileMeta) ProtoMessage()    {}

func (m *FileMeta) GetSize() int64 {
	if m != nil {
		return m.Size
	}
	return 0
}

func (m *FileMeta) GetLastUpdated() int64 {
	if m != nil {
		return m.LastUpdated
	}
	return 0
}

type ListItem struct {
	Name     string    `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	IsFolder bool      `protobuf:"varint,2,opt,name=isFolder,proto3" json:"isFolder,omitempty"`
	Meta     *FileMeta `protobuf:"bytes,3,opt,name=meta,proto3" json:"meta,omitempty"`
}

func (m *ListItem) Reset()         { *m = ListItem{} }
func (m *ListItem) String() string { return proto.CompactTextString(m) }
func (*ListItem) ProtoMessage()    {}

func (m *ListItem) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

func (m *ListItem) GetIsFolder() bool {
	if m != nil {
		return m.IsFolder
	}
	return false
}

func (m *ListItem) GetMeta() *FileMeta {
	if m != nil {
		return m.Meta
	}
	return nil
}

type MetadataRequest struct {
	FileName string `protobuf:"bytes,1,opt,name=fileName,proto3" json:"fileName,omitempty"`
}

func (m *MetadataRequest) Reset()         { *m = MetadataRequest{} }
func (m *MetadataRequest) String() string { return proto.CompactTextString(m) }
func (*MetadataRequest) ProtoMessage()    {}

func (m *MetadataRequest) GetFileName() string {
	if m != nil {
		return m.FileName
	}
	return ""
}
