package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
	"github.com/danielpatrickdp/turn-governor/internal/lexicon"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// #region harness
func startServer(t *testing.T, g *governor.Governor) (*Server, *Client, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := New(g, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		require.NoError(t, <-done)
	})
	return srv, NewClientWithConn(conn), conn
}

func turn(text string, tier decision.Tier) governor.Turn {
	return governor.Turn{
		ConversationID: "c1",
		Messages:       []decision.Message{{Role: decision.RoleUser, Content: text}},
		Tier:           tier,
	}
}

// #endregion harness

func TestDecide_RoundTrip(t *testing.T) {
	_, client, _ := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))

	plan, err := client.Decide(context.Background(), turn("I can't breathe, I'm panicking, everything is too much", decision.TierFree))
	require.NoError(t, err)
	require.Equal(t, decision.LeadV, plan.Decision.Routing.Lead)
	require.Equal(t, decision.BackendSafety, plan.Selection.Profile)
	require.NotEmpty(t, plan.Decision.ID)
	require.NotEmpty(t, plan.Directive)
}

func TestDecide_InvalidArgument(t *testing.T) {
	_, client, _ := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))

	_, err := client.Decide(context.Background(), turn("hi", "gold"))
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFinalize_WithPlan(t *testing.T) {
	_, client, _ := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))
	tr := turn("I can't breathe, I'm panicking, everything is too much", decision.TierFree)

	plan, err := client.Decide(context.Background(), tr)
	require.NoError(t, err)

	out, err := client.Finalize(context.Background(), tr, &plan, "[[VERA]]I'm here with you.[[/VERA]]", "")
	require.NoError(t, err)
	require.True(t, out.Passed)
	require.Equal(t, plan.Decision.ID, out.TurnID)
	require.True(t, lexicon.EndsWithClosing(out.Text))
}

func TestFinalize_WithoutPlanBackendError(t *testing.T) {
	_, client, _ := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))

	out, err := client.Finalize(context.Background(), turn("Don't sugarcoat it, I'm procrastinating", decision.TierBuild), nil, "", "deadline")
	require.NoError(t, err)
	require.Equal(t, lexicon.SafetyFallback, out.Text)
	require.Equal(t, decision.FailureOutputRisk, out.Failure.Mode)
	require.False(t, out.Passed)
}

func TestFinalize_PlanWithInvalidTurn(t *testing.T) {
	_, client, _ := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))
	_, err := client.Finalize(context.Background(), governor.Turn{Tier: decision.TierFree}, &governor.Plan{}, "x", "")
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSwap_UsesNewGovernor(t *testing.T) {
	srv, client, _ := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))
	tr := turn("Don't sugarcoat it, I'm procrastinating", decision.TierFree)

	plan, err := client.Decide(context.Background(), tr)
	require.NoError(t, err)
	require.Equal(t, decision.LeadN, plan.Decision.Routing.Lead)

	cfg := governor.DefaultConfig()
	cfg.Enabled = false
	srv.Swap(governor.New(cfg, nil, nil))

	plan, err = client.Decide(context.Background(), tr)
	require.NoError(t, err)
	require.Equal(t, decision.LeadV, plan.Decision.Routing.Lead)
	require.Equal(t, decision.BackendSafety, plan.Selection.Profile)
}

func TestHealth_Serving(t *testing.T) {
	_, _, conn := startServer(t, governor.New(governor.DefaultConfig(), nil, nil))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestStructRoundTrip(t *testing.T) {
	in := Request{Messages: []decision.Message{{Role: decision.RoleUser, Content: "hi"}}, Tier: decision.TierFree, Draft: "d"}
	s, err := ToStruct(in)
	require.NoError(t, err)

	var out Request
	require.NoError(t, FromStruct(s, &out))
	require.Equal(t, in, out)
}

func TestFromStruct_BadShape(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"messages": "not a list"})
	require.NoError(t, err)
	var out Request
	require.Error(t, FromStruct(s, &out))
}
