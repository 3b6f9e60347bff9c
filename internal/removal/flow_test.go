package removal

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/internal/reconcile"
	"github.com/angelmondragon/packfinderz-cartfee/internal/uisync"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRemover struct {
	calls   int
	removed []string
	err     error
}

func (s *stubRemover) Remove(_ context.Context, session string) (reconcile.RemoveResult, error) {
	s.calls++
	if s.err != nil {
		return reconcile.RemoveResult{Session: session}, s.err
	}
	return reconcile.RemoveResult{Session: session, Removed: s.removed}, nil
}

type stubRefresher struct {
	calls int
}

func (s *stubRefresher) Refresh(context.Context, string) uisync.Instructions {
	s.calls++
	return uisync.Instructions{Fragment: &uisync.Fragment{HTML: "<div></div>", Generation: uint64(s.calls)}}
}

func newFlow(t *testing.T, remover *stubRemover) (*Flow, *preference.MemoryStore, *stubRefresher) {
	t.Helper()
	prefs := preference.NewMemoryStore()
	ui := &stubRefresher{}
	flow, err := NewFlow(FlowParams{Remover: remover, Preferences: prefs, UI: ui})
	require.NoError(t, err)
	return flow, prefs, ui
}

func TestOpenIsAlwaysAllowed(t *testing.T) {
	flow, prefs, _ := newFlow(t, &stubRemover{})
	ctx := context.Background()

	for _, pref := range []preference.Value{preference.Unset, preference.WantsFee} {
		require.NoError(t, prefs.Set(ctx, "s", pref))
		out, err := flow.Open(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, enums.RemovalStateOpen, out.State)
		require.NotNil(t, out.Instructions.ScrollLock)
		assert.True(t, *out.Instructions.ScrollLock)
		assert.True(t, out.Instructions.Dialog.Open)
	}
	assert.Equal(t, enums.RemovalStateOpen, flow.State("s"))
}

func TestCancelHasNoSideEffects(t *testing.T) {
	remover := &stubRemover{}
	flow, prefs, ui := newFlow(t, remover)
	ctx := context.Background()
	require.NoError(t, prefs.Set(ctx, "s", preference.WantsFee))

	for _, reason := range []enums.RemovalCancelReason{enums.RemovalCancelButton, enums.RemovalCancelOverlay, enums.RemovalCancelEscape} {
		_, err := flow.Open(ctx, "s")
		require.NoError(t, err)
		out, err := flow.Cancel(ctx, "s", reason)
		require.NoError(t, err)
		assert.Equal(t, enums.RemovalStateClosed, out.State)
		assert.False(t, *out.Instructions.ScrollLock)
	}

	pref, _ := prefs.Get(ctx, "s")
	assert.Equal(t, preference.WantsFee, pref)
	assert.Zero(t, remover.calls)
	assert.Zero(t, ui.calls)
}

func TestConfirmClearsPreferenceAndRemoves(t *testing.T) {
	remover := &stubRemover{removed: []string{"fee"}}
	flow, prefs, ui := newFlow(t, remover)
	ctx := context.Background()
	require.NoError(t, prefs.Set(ctx, "s", preference.WantsFee))

	_, err := flow.Open(ctx, "s")
	require.NoError(t, err)
	out, err := flow.Confirm(ctx, "s")
	require.NoError(t, err)
	require.Nil(t, out.Failure)

	assert.Equal(t, enums.RemovalStateClosed, out.State)
	assert.Equal(t, []string{"fee"}, out.Removed)
	assert.ElementsMatch(t, uisync.Controls(), out.Instructions.UncheckControls)
	assert.NotNil(t, out.Instructions.Fragment)
	assert.False(t, out.Instructions.Dialog.Open)
	assert.Contains(t, out.Instructions.Events, uisync.EventFeeChanged)
	assert.Equal(t, 1, ui.calls)
	assert.Equal(t, enums.RemovalStateClosed, flow.State("s"))

	pref, _ := prefs.Get(ctx, "s")
	assert.Equal(t, preference.Unset, pref)
}

func TestConfirmWithoutFeeStillClearsPreference(t *testing.T) {
	flow, prefs, _ := newFlow(t, &stubRemover{})
	ctx := context.Background()
	require.NoError(t, prefs.Set(ctx, "s", preference.WantsFee))

	_, _ = flow.Open(ctx, "s")
	out, err := flow.Confirm(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, out.Removed)
	assert.Empty(t, out.Instructions.Events)

	pref, _ := prefs.Get(ctx, "s")
	assert.Equal(t, preference.Unset, pref)
}

func TestConfirmFailureKeepsDialogOpen(t *testing.T) {
	remover := &stubRemover{err: pkgerrors.New(pkgerrors.CodeStoreUnavailable, "down")}
	flow, _, _ := newFlow(t, remover)
	ctx := context.Background()

	_, _ = flow.Open(ctx, "s")
	out, err := flow.Confirm(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, pkgerrors.CodeStoreUnavailable, out.Failure.Code)
	assert.Equal(t, enums.RemovalStateOpen, flow.State("s"))

	remover.err = nil
	out, err = flow.Confirm(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, out.Failure)
}

func TestConfirmStopsWhenPreferenceCannotBeCleared(t *testing.T) {
	remover := &stubRemover{}
	flow, prefs, _ := newFlow(t, remover)
	ctx := context.Background()

	_, _ = flow.Open(ctx, "s")
	prefs.Fail(errors.New("redis down"))
	out, err := flow.Confirm(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Zero(t, remover.calls)
}

func TestCancelAndConfirmRequireOpenDialog(t *testing.T) {
	flow, _, _ := newFlow(t, &stubRemover{})
	ctx := context.Background()

	_, err := flow.Confirm(ctx, "s")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = flow.Cancel(ctx, "s", enums.RemovalCancelEscape)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = flow.Cancel(ctx, "s", enums.RemovalCancelReason("swipe"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestConfirmFailureRestoresPreference(t *testing.T) {
	remover := &stubRemover{err: pkgerrors.New(pkgerrors.CodeStoreUnavailable, "down")}
	flow, prefs, ui := newFlow(t, remover)
	ctx := context.Background()
	require.NoError(t, prefs.Set(ctx, "s", preference.WantsFee))

	_, err := flow.Open(ctx, "s")
	require.NoError(t, err)
	out, err := flow.Confirm(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)

	pref, err := prefs.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, preference.WantsFee, pref)
	require.NotNil(t, out.Instructions.Checkbox)
	assert.True(t, out.Instructions.Checkbox.Checked)
	assert.Empty(t, out.Instructions.UncheckControls)
	assert.Zero(t, ui.calls)
	assert.Equal(t, enums.RemovalStateOpen, flow.State("s"))
}

func TestConfirmFailureKeepsUnsetPreferenceUnset(t *testing.T) {
	remover := &stubRemover{err: pkgerrors.New(pkgerrors.CodeStoreUnavailable, "down")}
	flow, prefs, _ := newFlow(t, remover)
	ctx := context.Background()

	_, _ = flow.Open(ctx, "s")
	out, err := flow.Confirm(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Nil(t, out.Instructions.Checkbox)

	pref, _ := prefs.Get(ctx, "s")
	assert.Equal(t, preference.Unset, pref)
}
