package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/SyedDaiam9101/window-predictor/internal/codec"
	"github.com/SyedDaiam9101/window-predictor/internal/window"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "window.v1.WindowService"

// Empty is the request of methods that take no arguments.
type Empty struct{}

// SetSlotRequest writes one observation. Value is the raw user input.
type SetSlotRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

// ClearSlotRequest empties one observation.
type ClearSlotRequest struct {
	Index int `json:"index"`
}

// StageActualRequest stages the observed 16th value. Value is the raw user input.
type StageActualRequest struct {
	Value string `json:"value"`
}

// WindowResponse carries the window after an operation.
type WindowResponse struct {
	Window window.Snapshot `json:"window"`
}

// PredictResponse carries a new prediction and the window it was made for.
type PredictResponse struct {
	Prediction float64         `json:"prediction"`
	Window     window.Snapshot `json:"window"`
}

// ModelInfoResponse describes the served model.
type ModelInfoResponse struct {
	Path    string   `json:"path"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// WindowServiceServer is the server API for the window service.
type WindowServiceServer interface {
	GetWindow(context.Context, *Empty) (*WindowResponse, error)
	SetSlot(context.Context, *SetSlotRequest) (*WindowResponse, error)
	ClearSlot(context.Context, *ClearSlotRequest) (*WindowResponse, error)
	StageActual(context.Context, *StageActualRequest) (*WindowResponse, error)
	Predict(context.Context, *Empty) (*PredictResponse, error)
	Shift(context.Context, *Empty) (*WindowResponse, error)
	ModelInfo(context.Context, *Empty) (*ModelInfoResponse, error)
}

// RegisterWindowServiceServer registers srv on s.
func RegisterWindowServiceServer(s grpc.ServiceRegistrar, srv WindowServiceServer) {
	s.RegisterService(&WindowServiceDesc, srv)
}

// WindowServiceDesc describes the window service. Messages are JSON encoded
// by the codec package.
var WindowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WindowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetWindow", func(s WindowServiceServer, ctx context.Context, in *Empty) (any, error) {
			return s.GetWindow(ctx, in)
		}),
		unaryMethod("SetSlot", func(s WindowServiceServer, ctx context.Context, in *SetSlotRequest) (any, error) {
			return s.SetSlot(ctx, in)
		}),
		unaryMethod("ClearSlot", func(s WindowServiceServer, ctx context.Context, in *ClearSlotRequest) (any, error) {
			return s.ClearSlot(ctx, in)
		}),
		unaryMethod("StageActual", func(s WindowServiceServer, ctx context.Context, in *StageActualRequest) (any, error) {
			return s.StageActual(ctx, in)
		}),
		unaryMethod("Predict", func(s WindowServiceServer, ctx context.Context, in *Empty) (any, error) {
			return s.Predict(ctx, in)
		}),
		unaryMethod("Shift", func(s WindowServiceServer, ctx context.Context, in *Empty) (any, error) {
			return s.Shift(ctx, in)
		}),
		unaryMethod("ModelInfo", func(s WindowServiceServer, ctx context.Context, in *Empty) (any, error) {
			return s.ModelInfo(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "window/v1",
}

func unaryMethod[Req any](name string, call func(WindowServiceServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(WindowServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls the window service using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetWindow(ctx context.Context, opts ...grpc.CallOption) (*WindowResponse, error) {
	return invoke[WindowResponse](ctx, c.cc, "GetWindow", &Empty{}, opts)
}

func (c *Client) SetSlot(ctx context.Context, in *SetSlotRequest, opts ...grpc.CallOption) (*WindowResponse, error) {
	return invoke[WindowResponse](ctx, c.cc, "SetSlot", in, opts)
}

func (c *Client) ClearSlot(ctx context.Context, in *ClearSlotRequest, opts ...grpc.CallOption) (*WindowResponse, error) {
	return invoke[WindowResponse](ctx, c.cc, "ClearSlot", in, opts)
}

func (c *Client) StageActual(ctx context.Context, in *StageActualRequest, opts ...grpc.CallOption) (*WindowResponse, error) {
	return invoke[WindowResponse](ctx, c.cc, "StageActual", in, opts)
}

func (c *Client) Predict(ctx context.Context, opts ...grpc.CallOption) (*PredictResponse, error) {
	return invoke[PredictResponse](ctx, c.cc, "Predict", &Empty{}, opts)
}

func (c *Client) Shift(ctx context.Context, opts ...grpc.CallOption) (*WindowResponse, error) {
	return invoke[WindowResponse](ctx, c.cc, "Shift", &Empty{}, opts)
}

func (c *Client) ModelInfo(ctx context.Context, opts ...grpc.CallOption) (*ModelInfoResponse, error) {
	return invoke[ModelInfoResponse](ctx, c.cc, "ModelInfo", &Empty{}, opts)
}
