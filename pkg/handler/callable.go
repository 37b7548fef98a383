package handler

import (
	"context"
	"encoding/json"

	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/auth"
	"github.com/nightchill/checkin-service/pkg/checkin"
	"github.com/nightchill/checkin-service/pkg/common"
	"github.com/nightchill/checkin-service/pkg/reward"
	"github.com/nightchill/checkin-service/pkg/voucher"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const CallableServiceName = "nightchill.callable.v1.CallableService"

// CallableService is the internal gRPC API used by sibling services
type CallableService interface {
	LogCheckIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RedeemOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCoffeeVoucher(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportUserData(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Callable implements CallableService on top of the domain services
type Callable struct {
	checkIns CheckInService
	rewards  RewardService
	verifier TokenVerifier
}

// NewCallable creates the callable gRPC service
func NewCallable(checkIns CheckInService, rewards RewardService, verifier TokenVerifier) *Callable {
	return &Callable{
		checkIns: checkIns,
		rewards:  rewards,
		verifier: verifier,
	}
}

// RegisterCallable registers svc on the server
func RegisterCallable(server grpc.ServiceRegistrar, svc CallableService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: CallableServiceName,
		HandlerType: (*CallableService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "LogCheckIn", Handler: unaryHandler("LogCheckIn", svc.LogCheckIn)},
			{MethodName: "RedeemOffer", Handler: unaryHandler("RedeemOffer", svc.RedeemOffer)},
			{MethodName: "CreateCoffeeVoucher", Handler: unaryHandler("CreateCoffeeVoucher", svc.CreateCoffeeVoucher)},
			{MethodName: "ExportUserData", Handler: unaryHandler("ExportUserData", svc.ExportUserData)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "nightchill/callable/v1/callable.proto",
	}, svc)
}

type structMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + CallableServiceName + "/" + name,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return method(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

// LogCheckIn records a check-in for the caller
func (c *Callable) LogCheckIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Callable.LogCheckIn")
	defer scope.Finish()

	userID, err := c.authenticate(scope.Ctx)
	if err != nil {
		return nil, err
	}
	scope.SetUser(userID)

	result, err := c.checkIns.PerformCheckIn(scope.Ctx, checkin.Request{
		UserID:     userID,
		LocationID: stringField(req, "locationId"),
		Mood:       stringField(req, "mood"),
		Note:       stringField(req, "note"),
	})
	if err != nil {
		return nil, grpcError(scope, err)
	}
	return toStruct(scope, result)
}

// RedeemOffer redeems a reward by id, or a voucher by its QR token
func (c *Callable) RedeemOffer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Callable.RedeemOffer")
	defer scope.Finish()

	userID, err := c.authenticate(scope.Ctx)
	if err != nil {
		return nil, err
	}
	scope.SetUser(userID)

	locationID := stringField(req, "locationId")
	if token := stringField(req, "token"); token != "" {
		redemption, err := c.rewards.RedeemByQR(scope.Ctx, token, userID, locationID)
		if err != nil {
			return nil, grpcError(scope, err)
		}
		return toStruct(scope, redemption)
	}

	offerID := stringField(req, "offerId")
	if offerID == "" {
		return nil, status.Error(codes.InvalidArgument, "offerId or token is required")
	}
	redeemed, err := c.rewards.Redeem(scope.Ctx, offerID, userID, locationID)
	if err != nil {
		return nil, grpcError(scope, err)
	}
	return toStruct(scope, map[string]interface{}{
		"message": "Reward redeemed successfully",
		"reward":  redeemed,
	})
}

// CreateCoffeeVoucher sponsors a coffee on behalf of the caller
func (c *Callable) CreateCoffeeVoucher(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Callable.CreateCoffeeVoucher")
	defer scope.Finish()

	userID, err := c.authenticate(scope.Ctx)
	if err != nil {
		return nil, err
	}
	scope.SetUser(userID)

	created, err := c.rewards.CreateCoffeeVoucher(scope.Ctx, reward.CoffeeVoucherRequest{
		SponsorID:   userID,
		RecipientID: stringField(req, "recipientId"),
		Amount:      req.GetFields()["amount"].GetNumberValue(),
		Anonymous:   req.GetFields()["anonymous"].GetBoolValue(),
		Message:     stringField(req, "message"),
		LocationID:  stringField(req, "locationId"),
	})
	if err != nil {
		return nil, grpcError(scope, err)
	}
	return toStruct(scope, map[string]interface{}{
		"voucher":  created,
		"deepLink": voucher.DeepLink(created.QRCode),
	})
}

// ExportUserData returns everything held about the caller
func (c *Callable) ExportUserData(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Callable.ExportUserData")
	defer scope.Finish()

	userID, err := c.authenticate(scope.Ctx)
	if err != nil {
		return nil, err
	}
	scope.SetUser(userID)

	export, err := c.checkIns.ExportUserData(scope.Ctx, userID)
	if err != nil {
		return nil, grpcError(scope, err)
	}
	return toStruct(scope, export)
}

// authenticate reads the bearer token from the authorization metadata
func (c *Callable) authenticate(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", status.Error(codes.Unauthenticated, "missing credentials")
	}

	token, err := auth.BearerToken(values[0])
	if err != nil {
		return "", status.Error(codes.Unauthenticated, "invalid or missing credentials")
	}
	claims, err := c.verifier.Verify(token)
	if err != nil {
		return "", status.Error(codes.Unauthenticated, "invalid or missing credentials")
	}
	return claims.UserID, nil
}

// GRPCCode maps a domain error to a gRPC status code
func GRPCCode(err error) codes.Code {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidSignature:
		return codes.InvalidArgument
	case apperr.KindUnauthorized:
		return codes.Unauthenticated
	case apperr.KindNotFound:
		return codes.NotFound
	case apperr.KindConflict:
		return codes.AlreadyExists
	case apperr.KindExpired:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func grpcError(scope *common.Scope, err error) error {
	code := GRPCCode(err)
	if code == codes.Internal {
		scope.TraceError(err)
		scope.Log.Errorf("callable request failed: %v", err)
	}
	return status.Error(code, apperr.PublicMessage(err))
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// toStruct converts a JSON-tagged value into a protobuf Struct
func toStruct(scope *common.Scope, v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		scope.Log.Errorf("failed to encode callable response: %v", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}

	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		scope.Log.Errorf("failed to build callable response: %v", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
