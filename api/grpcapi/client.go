package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/xsdhash/model"
	"xdao.co/xsdhash/storage"
)

// Client wraps FingerprinterClient with plain Go types. Failed calls return a
// *model.CodedError rebuilt from the status details.
type Client struct {
	rpc FingerprinterClient
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{rpc: NewFingerprinterClient(cc)}
}

func (c *Client) Fingerprint(ctx context.Context, doc []byte) (string, error) {
	out, err := c.rpc.Fingerprint(ctx, wrapperspb.Bytes(doc))
	if err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

func (c *Client) Canonicalize(ctx context.Context, doc []byte) ([]byte, error) {
	out, err := c.rpc.Canonicalize(ctx, wrapperspb.Bytes(doc))
	if err != nil {
		return nil, fromStatus(err)
	}
	return out.GetValue(), nil
}

func (c *Client) Register(ctx context.Context, doc []byte) (string, error) {
	out, err := c.rpc.Register(ctx, wrapperspb.Bytes(doc))
	if err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

func (c *Client) Lookup(ctx context.Context, fingerprint string) ([]byte, error) {
	out, err := c.rpc.Lookup(ctx, wrapperspb.String(fingerprint))
	if err != nil {
		return nil, fromStatus(err)
	}
	return out.GetValue(), nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		coded := &model.CodedError{
			Code:    model.ErrorCode(info.GetReason()),
			RuleID:  info.GetMetadata()["ruleId"],
			Message: st.Message(),
		}
		if st.Code() == codes.NotFound {
			return fmt.Errorf("%w: %w", storage.ErrNotFound, coded)
		}
		return coded
	}
	return err
}
