package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xsdhash.v1.Fingerprinter"

const (
	methodFingerprint  = "/" + ServiceName + "/Fingerprint"
	methodCanonicalize = "/" + ServiceName + "/Canonicalize"
	methodRegister     = "/" + ServiceName + "/Register"
	methodLookup       = "/" + ServiceName + "/Lookup"
)

// FingerprinterServer is the server API for the Fingerprinter service.
//
// Fingerprint and Register take a schema document and return its hex
// fingerprint. Canonicalize returns the canonical encoding. Lookup takes a
// fingerprint and returns the stored canonical encoding.
type FingerprinterServer interface {
	Fingerprint(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Canonicalize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Register(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Lookup(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedFingerprinterServer can be embedded to have forward compatible implementations.
type UnimplementedFingerprinterServer struct{}

func (UnimplementedFingerprinterServer) Fingerprint(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Fingerprint not implemented")
}
func (UnimplementedFingerprinterServer) Canonicalize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Canonicalize not implemented")
}
func (UnimplementedFingerprinterServer) Register(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedFingerprinterServer) Lookup(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Lookup not implemented")
}

// RegisterFingerprinterServer registers the service on a gRPC server.
func RegisterFingerprinterServer(s grpc.ServiceRegistrar, srv FingerprinterServer) {
	s.RegisterService(&Fingerprinter_ServiceDesc, srv)
}

// FingerprinterClient is the client API for the Fingerprinter service.
type FingerprinterClient interface {
	Fingerprint(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Canonicalize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Register(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Lookup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type fingerprinterClient struct{ cc grpc.ClientConnInterface }

func NewFingerprinterClient(cc grpc.ClientConnInterface) FingerprinterClient {
	return &fingerprinterClient{cc: cc}
}

func (c *fingerprinterClient) Fingerprint(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodFingerprint, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fingerprinterClient) Canonicalize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodCanonicalize, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fingerprinterClient) Register(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodRegister, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fingerprinterClient) Lookup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodLookup, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Fingerprinter_Fingerprint_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FingerprinterServer).Fingerprint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodFingerprint}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FingerprinterServer).Fingerprint(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Fingerprinter_Canonicalize_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FingerprinterServer).Canonicalize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCanonicalize}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FingerprinterServer).Canonicalize(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Fingerprinter_Register_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FingerprinterServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRegister}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FingerprinterServer).Register(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Fingerprinter_Lookup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FingerprinterServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodLookup}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FingerprinterServer).Lookup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Fingerprinter_ServiceDesc is the grpc.ServiceDesc for the Fingerprinter service.
var Fingerprinter_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FingerprinterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fingerprint", Handler: _Fingerprinter_Fingerprint_Handler},
		{MethodName: "Canonicalize", Handler: _Fingerprinter_Canonicalize_Handler},
		{MethodName: "Register", Handler: _Fingerprinter_Register_Handler},
		{MethodName: "Lookup", Handler: _Fingerprinter_Lookup_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xsdhash/v1/fingerprinter.proto",
}
