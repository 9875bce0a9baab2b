package ledgergrpc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a read-only ledger over a gRPC connection. Writer binds it to
// a signer.
type Client struct {
	conn   *grpc.ClientConn
	logger logging.Logger
}

// NewClient connects lazily to addr; extra options are appended to the
// defaults (insecure transport, tracing, call logging).
func NewClient(addr string, l logging.Logger, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{logger: l.With("module", "grpc_client")}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(c.loggingInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial ledger %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) loggingInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)
	c.logger.Debug(ctx, "ledger call", "method", method, "code", status.Code(err).String(), "elapsed", time.Since(start))
	return err
}

// WaitReady blocks until the node's health check reports SERVING or ctx
// ends.
func (c *Client) WaitReady(ctx context.Context) error {
	hc := healthpb.NewHealthClient(c.conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := hc.Check(callCtx, &healthpb.HealthCheckRequest{Service: ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}
		if err != nil {
			c.logger.Debug(ctx, "waiting for ledger health", "error", err)
		} else {
			c.logger.Debug(ctx, "waiting for ledger health", "status", resp.GetStatus().String())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: wait for health: %w", common.ErrUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

// IsAvailable reports false, not an error, when the node cannot be reached.
func (c *Client) IsAvailable(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(ctx, methodIsAvailable, &emptypb.Empty{}, out); err != nil {
		err = mapError(err)
		if errors.Is(err, common.ErrUnavailable) {
			return false, nil
		}
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Read(ctx context.Context, key string) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, methodGetData, wrapperspb.String(key), out); err != nil {
		return nil, mapError(err)
	}
	if out.GetValue() == nil {
		return []byte{}, nil
	}
	return out.GetValue(), nil
}

func (c *Client) ReadVersioned(ctx context.Context, key string) ([]byte, uint64, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodGetVersioned, wrapperspb.String(key), out); err != nil {
		return nil, 0, mapError(err)
	}
	fields := out.GetFields()
	v, err := base64.StdEncoding.DecodeString(fields[fieldValue].GetStringValue())
	if err != nil {
		return nil, 0, fmt.Errorf("ledger response for %q: %w", key, err)
	}
	ver, err := strconv.ParseUint(fields[fieldVersion].GetStringValue(), 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger version for %q: %w", key, err)
	}
	return v, ver, nil
}

// Writer returns a signed writer. Each write is authorized by signer
// before it leaves the process.
func (c *Client) Writer(signer ledger.Signer) *Writer {
	return &Writer{client: c, signer: signer}
}

// Writer is the signed-write capability over gRPC.
type Writer struct {
	client *Client
	signer ledger.Signer
}

func (w *Writer) Write(ctx context.Context, key string, value []byte) (models.Commit, error) {
	return w.write(ctx, key, value, "")
}

func (w *Writer) WriteIfVersion(ctx context.Context, key string, value []byte, expected uint64) (models.Commit, error) {
	return w.write(ctx, key, value, strconv.FormatUint(expected, 10))
}

func (w *Writer) write(ctx context.Context, key string, value []byte, expected string) (models.Commit, error) {
	if w.signer == nil {
		return models.Commit{}, common.ErrUnauthenticated
	}
	token, err := w.signer.SignWrite(ctx, key, value)
	if err != nil {
		return models.Commit{}, ledger.SignError(err)
	}

	ctx = withWriteHeaders(ctx, key, token, expected)
	out := new(wrapperspb.StringValue)
	if err := w.client.conn.Invoke(ctx, methodSetData, wrapperspb.Bytes(value), out); err != nil {
		return models.Commit{}, mapError(err)
	}
	return models.Commit{TxID: out.GetValue(), Key: key}, nil
}

func withWriteHeaders(ctx context.Context, key, token, expected string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.LedgerKeyHeaderName, key)
	md.Set(common.LedgerSignatureHeaderName, token)
	md.Delete(common.LedgerVersionHeaderName)
	if expected != "" {
		md.Set(common.LedgerVersionHeaderName, expected)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrWriteRejected, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrUnauthenticated, st.Message())
	case codes.Aborted:
		return common.ErrVersionConflict
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
