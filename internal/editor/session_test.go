package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section(n int) ItemRef { return ItemRef{Kind: KindSection, ID: n, Title: "Topic"} }

func asset(id int) ItemRef { return ItemRef{Kind: KindAsset, ID: id, Title: "Asset"} }

func TestMoveSession_SectionLifecycle(t *testing.T) {
	var s MoveSession
	assert.Equal(t, Idle, s.State().State)

	require.NoError(t, s.StartSection(section(2)))
	st := s.State()
	assert.Equal(t, Moving, st.State)
	assert.Equal(t, SectionMove, st.Mode)
	assert.Equal(t, `Moving "Topic"`, st.Caption())

	items, mode, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, SectionMove, mode)
	assert.Equal(t, []ItemRef{section(2)}, items)
	assert.Equal(t, Committing, s.State().State)

	_, _, err = s.Commit()
	assert.ErrorIs(t, err, ErrMoveInProgress)
	assert.ErrorIs(t, s.StartSection(section(3)), ErrMoveInProgress)
	assert.ErrorIs(t, s.Abort(), ErrMoveInProgress)

	s.Finish()
	assert.Equal(t, Idle, s.State().State)
	assert.Empty(t, s.State().Items)
}

func TestMoveSession_CommitWithoutItems(t *testing.T) {
	var s MoveSession
	_, _, err := s.Commit()
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestMoveSession_AssetSelection(t *testing.T) {
	var s MoveSession

	emptied, err := s.ToggleAsset(asset(10), false)
	require.NoError(t, err)
	assert.False(t, emptied)
	assert.Equal(t, Idle, s.State().State)

	_, err = s.ToggleAsset(asset(10), true)
	require.NoError(t, err)
	_, err = s.ToggleAsset(asset(11), true)
	require.NoError(t, err)
	_, err = s.ToggleAsset(asset(11), true)
	require.NoError(t, err)
	st := s.State()
	assert.Equal(t, AssetMove, st.Mode)
	assert.Len(t, st.Items, 2)
	assert.Equal(t, "Moving 2 objects", st.Caption())

	emptied, err = s.ToggleAsset(asset(10), false)
	require.NoError(t, err)
	assert.False(t, emptied)
	emptied, err = s.ToggleAsset(asset(11), false)
	require.NoError(t, err)
	assert.True(t, emptied)
	assert.Equal(t, Idle, s.State().State)
	assert.Equal(t, NoMode, s.State().Mode)
}

func TestMoveSession_AssetReplacesSection(t *testing.T) {
	var s MoveSession
	require.NoError(t, s.StartSection(section(1)))
	_, err := s.ToggleAsset(asset(10), true)
	require.NoError(t, err)
	st := s.State()
	assert.Equal(t, AssetMove, st.Mode)
	assert.Equal(t, []ItemRef{asset(10)}, st.Items)

	require.NoError(t, s.StartSection(section(1)))
	assert.Equal(t, []ItemRef{section(1)}, s.State().Items)
}

func TestMoveSession_FailThenReset(t *testing.T) {
	var s MoveSession
	require.NoError(t, s.StartSection(section(1)))
	_, _, err := s.Commit()
	require.NoError(t, err)

	gen := s.Fail()
	assert.Equal(t, Aborting, s.State().State)
	assert.True(t, s.State().Active())

	assert.False(t, s.Reset(gen+1))
	assert.True(t, s.Reset(gen))
	assert.Equal(t, Idle, s.State().State)
}

func TestMoveSession_StaleResetIgnored(t *testing.T) {
	var s MoveSession
	require.NoError(t, s.StartSection(section(1)))
	_, _, err := s.Commit()
	require.NoError(t, err)
	gen := s.Fail()

	require.NoError(t, s.StartSection(section(2)))
	assert.False(t, s.Reset(gen))
	assert.Equal(t, Moving, s.State().State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "committing", Committing.String())
	assert.Equal(t, "State(9)", State(9).String())
}
