// Package grpcapi serves fingerprinting and the schema registry over gRPC
// using protobuf well-known wrapper messages.
package grpcapi

import (
	"context"
	"log/slog"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/xsdhash"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/model"
	"xdao.co/xsdhash/registry"
)

// ErrorDomain is the ErrorInfo domain attached to failed calls.
const ErrorDomain = "xsdhash"

// Server implements FingerprinterServer. Register and Lookup answer
// Unavailable when Registry is nil.
type Server struct {
	UnimplementedFingerprinterServer

	Registry  *registry.Registry
	Algorithm digest.Algorithm
	Logger    *slog.Logger
}

func (s *Server) Fingerprint(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	fp, err := xsdhash.FingerprintBytesWith(in.GetValue(), xsdhash.Options{Algorithm: s.Algorithm})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.String(fp), nil
}

func (s *Server) Canonicalize(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	canon, err := xsdhash.CanonicalBytes(in.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Bytes(canon), nil
}

func (s *Server) Register(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s.Registry == nil {
		return nil, status.Error(codes.Unavailable, "schema store not configured")
	}
	entry, err := s.Registry.Register(ctx, in.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.String(entry.Fingerprint), nil
}

func (s *Server) Lookup(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s.Registry == nil {
		return nil, status.Error(codes.Unavailable, "schema store not configured")
	}
	b, err := s.Registry.Lookup(ctx, in.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Bytes(b), nil
}

// toStatus converts err into a status carrying an ErrorInfo whose Reason is
// the model error code.
func (s *Server) toStatus(ctx context.Context, err error) error {
	coded := model.FromError(err)
	code := grpcCode(coded.Code)
	if code == codes.Internal && s.Logger != nil {
		s.Logger.ErrorContext(ctx, "rpc failed", slog.Any("error", err))
	}
	st := status.New(code, coded.Message)
	info := &errdetails.ErrorInfo{Reason: string(coded.Code), Domain: ErrorDomain}
	if coded.RuleID != "" {
		info.Metadata = map[string]string{"ruleId": coded.RuleID}
	}
	if withInfo, derr := st.WithDetails(info); derr == nil {
		st = withInfo
	}
	return st.Err()
}

func grpcCode(code model.ErrorCode) codes.Code {
	switch code {
	case model.ErrInvalidRequest, model.ErrParse, model.ErrInvalidKey,
		model.ErrInvalidFingerprint, model.ErrInvalidCID:
		return codes.InvalidArgument
	case model.ErrLocator, model.ErrAmbiguousMetadata:
		return codes.FailedPrecondition
	case model.ErrNotFound:
		return codes.NotFound
	case model.ErrCIDMismatch:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}
