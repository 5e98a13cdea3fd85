package connectorpb

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "qlik.filehosting.HostedDrive"

// HostedDriveClient is the client API for the HostedDrive service.
type HostedDriveClient interface {
	GetCapabilities(ctx context.Context, in *empty.Empty, opts ...grpc.CallOption) (*Capabilities, error)
	Download(ctx context.Context, opts ...grpc.CallOption) (HostedDrive_DownloadClient, error)
	Upload(ctx context.Context, opts ...grpc.CallOption) (HostedDrive_UploadClient, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (HostedDrive_ListClient, error)
	Metadata(ctx context.Context, in *MetadataRequest, opts ...grpc.CallOption) (*FileMeta, error)
}

type hostedDriveClient struct {
	cc *grpc.ClientConn
}

func NewHostedDriveClient(cc *grpc.ClientConn) HostedDriveClient {
	return &hostedDriveClient{cc}
}

func (c *hostedDriveClient) GetCapabilities(ctx context.Context, in *empty.Empty, opts ...grpc.CallOption) (*Capabilities, error) {
	out := new(Capabilities)
	err := c.cc.Invoke(ctx, "/"+serviceName+"/GetCapabilities", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hostedDriveClient) Download(ctx context.Context, opts ...grpc.CallOption) (HostedDrive_DownloadClient, error) {
	stream, err := c.cc.NewStream(ctx, &_HostedDrive_serviceDesc.Streams[0], "/"+serviceName+"/Download", opts...)
	if err != nil {
		return nil, err
	}
	return &hostedDriveDownloadClient{stream}, nil
}

type HostedDrive_DownloadClient interface {
	Send(*DownloadRequest) error
	Recv() (*DownloadResponse, error)
	grpc.ClientStream
}

type hostedDriveDownloadClient struct {
	grpc.ClientStream
}

func (x *hostedDriveDownloadClient) Send(m *DownloadRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *hostedDriveDownloadClient) Recv() (*DownloadResponse, error) {
	m := new(DownloadResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *hostedDriveClient) Upload(ctx context.Context, opts ...grpc.CallOption) (HostedDrive_UploadClient, error) {
	stream, err := c.cc.NewStream(ctx, &_HostedDrive_serviceDesc.Streams[1], "/"+serviceName+"/Upload", opts...)
	if err != nil {
		return nil, err
	}
	return &hostedDriveUploadClient{stream}, nil
}

type HostedDrive_UploadClient interface {
	Send(*UploadRequest) error
	CloseAndRecv() (*empty.Empty, error)
	grpc.ClientStream
}

type hostedDriveUploadClient struct {
	grpc.ClientStream
}

func (x *hostedDriveUploadClient) Send(m *UploadRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *hostedDriveUploadClient) CloseAndRecv() (*empty.Empty, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(empty.Empty)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *hostedDriveClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (HostedDrive_ListClient, error) {
	stream, err := c.cc.NewStream(ctx, &_HostedDrive_serviceDesc.Streams[2], "/"+serviceName+"/List", opts...)
	if err != nil {
		return nil, err
	}
	x := &hostedDriveListClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type HostedDrive_ListClient interface {
	Recv() (*ListItem, error)
	grpc.ClientStream
}

type hostedDriveListClient struct {
	grpc.ClientStream
}

func (x *hostedDriveListClient) Recv() (*ListItem, error) {
	m := new(ListItem)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *hostedDriveClient) Metadata(ctx context.Context, in *MetadataRequest, opts ...grpc.CallOption) (*FileMeta, error) {
	out := new(FileMeta)
	err := c.cc.Invoke(ctx, "/"+serviceName+"/Metadata", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HostedDriveServer is the server API for the HostedDrive service.
type HostedDriveServer interface {
	GetCapabilities(context.Context, *empty.Empty) (*Capabilities, error)
	Download(HostedDrive_DownloadServer) error
	Upload(HostedDrive_UploadServer) error
	List(*ListRequest, HostedDrive_ListServer) error
	Metadata(context.Context, *MetadataRequest) (*FileMeta, error)
}

// UnimplementedHostedDriveServer can be embedded to have forward compatible implementations.
type UnimplementedHostedDriveServer struct {
}

func (*UnimplementedHostedDriveServer) GetCapabilities(context.Context, *empty.Empty) (*Capabilities, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCapabilities not implemented")
}
func (*UnimplementedHostedDriveServer) Download(HostedDrive_DownloadServer) error {
	return status.Errorf(codes.Unimplemented, "method Download not implemented")
}
func (*UnimplementedHostedDriveServer) Upload(HostedDrive_UploadServer) error {
	return status.Errorf(codes.Unimplemented, "method Upload not implemented")
}
func (*UnimplementedHostedDriveServer) List(*ListRequest, HostedDrive_ListServer) error {
	return status.Errorf(codes.Unimplemented, "method List not implemented")
}
func (*UnimplementedHostedDriveServer) Metadata(context.Context, *MetadataRequest) (*FileMeta, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Metadata not implemented")
}

func RegisterHostedDriveServer(s *grpc.Server, srv HostedDriveServer) {
	s.RegisterService(&_HostedDrive_serviceDesc, srv)
}

func _HostedDrive_GetCapabilities_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HostedDriveServer).GetCapabilities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/GetCapabilities",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HostedDriveServer).GetCapabilities(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _HostedDrive_Download_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(HostedDriveServer).Download(&hostedDriveDownloadServer{stream})
}

type HostedDrive_DownloadServer interface {
	Send(*DownloadResponse) error
	Recv() (*DownloadRequest, error)
	grpc.ServerStream
}

type hostedDriveDownloadServer struct {
	grpc.ServerStream
}

func (x *hostedDriveDownloadServer) Send(m *DownloadResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *hostedDriveDownloadServer) Recv() (*DownloadRequest, error) {
	m := new(DownloadRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _HostedDrive_Upload_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(HostedDriveServer).Upload(&hostedDriveUploadServer{stream})
}

type HostedDrive_UploadServer interface {
	SendAndClose(*empty.Empty) error
	Recv() (*UploadRequest, error)
	grpc.ServerStream
}

type hostedDriveUploadServer struct {
	grpc.ServerStream
}

func (x *hostedDriveUploadServer) SendAndClose(m *empty.Empty) error {
	return x.ServerStream.SendMsg(m)
}

func (x *hostedDriveUploadServer) Recv() (*UploadRequest, error) {
	m := new(UploadRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _HostedDrive_List_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ListRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(HostedDriveServer).List(m, &hostedDriveListServer{stream})
}

type HostedDrive_ListServer interface {
	Send(*ListItem) error
	grpc.ServerStream
}

type hostedDriveListServer struct {
	grpc.ServerStream
}

func (x *hostedDriveListServer) Send(m *ListItem) error {
	return x.ServerStream.SendMsg(m)
}

func _HostedDrive_Metadata_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MetadataRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HostedDriveServer).Metadata(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Metadata",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HostedDriveServer).Metadata(ctx, req.(*MetadataRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _HostedDrive_serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*HostedDriveServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetCapabilities",
			Handler:    _HostedDrive_GetCapabilities_Handler,
		},
		{
			MethodName: "Metadata",
			Handler:    _HostedDrive_Metadata_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Download",
			Handler:       _HostedDrive_Download_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "Upload",
			Handler:       _HostedDrive_Upload_Handler,
			ClientStreams: true,
		},
		{
			StreamName:    "List",
			Handler:       _HostedDrive_List_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "connector.proto",
}
