package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/store"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Ambiguous, Classify("list all exported functions in package foo"))
	assert.Equal(t, Ambiguous, Classify("what does it do"))
	assert.Equal(t, RequiresContext, Classify("fix all of that stuff everywhere"))
	assert.Equal(t, RequiresContext, Classify(""))
	assert.Equal(t, RequiresContext, Classify("   "))
}

func TestGenerateQuestionsRound1AsksScopeAndGoal(t *testing.T) {
	qs := GenerateQuestions(Ambiguous, 1, map[string]string{})
	require.Len(t, qs, 2)
	ids := []string{qs[0].ID, qs[1].ID}
	assert.Contains(t, ids, "scope")
	assert.Contains(t, ids, "goal")
}

func TestGenerateQuestionsSuppressesAnsweredIDs(t *testing.T) {
	qs := GenerateQuestions(Ambiguous, 1, map[string]string{"scope": "the entire codebase"})
	require.Len(t, qs, 1)
	assert.Equal(t, "goal", qs[0].ID)
}

func TestGenerateQuestionsRound2ConditionedOnScope(t *testing.T) {
	collected := map[string]string{"scope": "a specific component", "goal": "fix a bug"}
	qs := GenerateQuestions(Ambiguous, 2, collected)
	require.Len(t, qs, 1)
	assert.Equal(t, "component", qs[0].ID)
}

func TestGenerateQuestionsRound2EmptyWhenNotConditioned(t *testing.T) {
	collected := map[string]string{"scope": "the entire codebase", "goal": "fix a bug"}
	qs := GenerateQuestions(Ambiguous, 2, collected)
	assert.Empty(t, qs)
}

func TestGenerateQuestionsRound3CatchAll(t *testing.T) {
	qs := GenerateQuestions(Ambiguous, 3, map[string]string{"scope": "x", "goal": "y"})
	require.Len(t, qs, 1)
	assert.Equal(t, "details", qs[0].ID)
}

type fakeExecutor struct {
	lastQuery string
	response  *gateway.QueryResponse
	err       error
}

func (f *fakeExecutor) ExecuteOneShot(ctx context.Context, query string) (*gateway.QueryResponse, error) {
	f.lastQuery = query
	return f.response, f.err
}

func TestControllerStartReturnsClarifications(t *testing.T) {
	st := store.NewMemoryStore()
	exec := &fakeExecutor{response: &gateway.QueryResponse{Status: gateway.StatusSuccess}}
	ctrl := New(st, exec, nil)

	resp, err := ctrl.Start(context.Background(), "what does it do")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, resp.Round)
	assert.Equal(t, gateway.PhaseAnalyzing, resp.Phase)
	assert.NotEmpty(t, resp.Questions)

	found, err := st.Exists(context.Background(), store.ConversationKey(resp.ConversationID))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestControllerContinueAdvancesRoundThenExecutes(t *testing.T) {
	st := store.NewMemoryStore()
	exec := &fakeExecutor{response: &gateway.QueryResponse{Status: gateway.StatusSuccess}}
	ctrl := New(st, exec, nil)

	start, err := ctrl.Start(context.Background(), "what does it do")
	require.NoError(t, err)
	require.NotNil(t, start)

	// Round 1 answers: scope resolves to "the entire codebase" so round 2
	// has nothing conditioned to ask and should execute immediately.
	convResp, queryResp, err := ctrl.Continue(context.Background(), start.ConversationID, map[string]string{
		"scope": "the entire codebase",
		"goal":  "fix a bug",
	})
	require.NoError(t, err)
	assert.Nil(t, convResp)
	require.NotNil(t, queryResp)
	assert.Equal(t, gateway.StatusSuccess, queryResp.Status)
	assert.Contains(t, exec.lastQuery, "Scope: the entire codebase")
	assert.Contains(t, exec.lastQuery, "Goal: fix a bug")

	found, err := st.Exists(context.Background(), store.ConversationKey(start.ConversationID))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestControllerContinueWithUnknownConversationErrors(t *testing.T) {
	st := store.NewMemoryStore()
	exec := &fakeExecutor{}
	ctrl := New(st, exec, nil)

	_, _, err := ctrl.Continue(context.Background(), "does-not-exist", map[string]string{})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestControllerForcesExecutionAtMaxRounds(t *testing.T) {
	st := store.NewMemoryStore()
	exec := &fakeExecutor{response: &gateway.QueryResponse{Status: gateway.StatusPartial}}
	ctrl := New(st, exec, nil)

	start, err := ctrl.Start(context.Background(), "fix all of that stuff everywhere")
	require.NoError(t, err)
	require.NotNil(t, start)

	// Component is still unresolved, so round 2 keeps clarifying.
	conv2, query2, err := ctrl.Continue(context.Background(), start.ConversationID, map[string]string{
		"scope": "a specific component",
		"goal":  "understand behavior",
	})
	require.NoError(t, err)
	assert.Nil(t, query2)
	require.NotNil(t, conv2)
	assert.Equal(t, 2, conv2.Round)

	// Round 2's component answer still leaves the catch-all round-3
	// question unasked, so round 3 keeps clarifying too.
	conv3, query3, err := ctrl.Continue(context.Background(), start.ConversationID, map[string]string{
		"component": "the auth middleware",
	})
	require.NoError(t, err)
	assert.Nil(t, query3)
	require.NotNil(t, conv3)
	assert.Equal(t, 3, conv3.Round)

	// The conversation is now at maxRounds; the next continuation forces
	// execution regardless of further questions.
	conv4, query4, err := ctrl.Continue(context.Background(), start.ConversationID, map[string]string{
		"details": "none",
	})
	require.NoError(t, err)
	assert.Nil(t, conv4)
	require.NotNil(t, query4)
}

func TestAbortDeletesConversation(t *testing.T) {
	st := store.NewMemoryStore()
	exec := &fakeExecutor{}
	ctrl := New(st, exec, nil)

	start, err := ctrl.Start(context.Background(), "what does it do")
	require.NoError(t, err)
	require.NoError(t, ctrl.Abort(context.Background(), start.ConversationID))

	found, err := st.Exists(context.Background(), store.ConversationKey(start.ConversationID))
	require.NoError(t, err)
	assert.False(t, found)
}
