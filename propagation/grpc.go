package propagation

import (
	"context"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/operation"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryServerInterceptor maps inbound gRPC metadata into an ambient Grid
// context and tracks each call as one operation. Use with the message
// propagator from NewMessage.
func UnaryServerInterceptor(p *Propagator, factory *operation.Factory) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			md = metadata.MD{}
		}

		gc := p.ExtractContext(MetadataCarrier(md)).WithCancellation(ctx)
		ctx, scope := gc.BeginScope(ctx)
		defer scope.End()

		op := factory.Begin(gc, info.FullMethod)
		defer op.End(&err)

		resp, err = handler(ctx, req)
		return resp, err
	}
}

// UnaryClientInterceptor derives a child context for the outbound hop,
// injects it into the call metadata, and tracks the call as one
// operation. Calls issued outside any ambient scope go out as fresh
// roots.
func UnaryClientInterceptor(p *Propagator, factory *operation.Factory, node *grid.NodeContext) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) (err error) {
		gc := grid.Current(ctx)
		if gc == nil {
			gc = grid.NewRoot(node)
		} else {
			gc = gc.CreateChildContext("")
		}

		md, ok := metadata.FromOutgoingContext(ctx)
		if ok {
			md = md.Copy()
		} else {
			md = metadata.MD{}
		}
		p.InjectContext(gc, MetadataCarrier(md))
		ctx = metadata.NewOutgoingContext(ctx, md)

		op := factory.Begin(gc, method)
		defer op.End(&err)

		err = invoker(ctx, method, req, reply, cc, opts...)
		return err
	}
}
