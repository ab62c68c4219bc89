package defuse_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/defuse"
)

func TestUndefinedUseFailsInvariantCheck(t *testing.T) {
	r := defuse.NewRecorder()
	origin := bytecode.Origin(5)
	r.RecordUse(origin, 7)
	require.Error(t, r.CheckInvariants())
}

func TestParameterOriginsAreImplicitlyDefined(t *testing.T) {
	r := defuse.NewRecorder()
	param := bytecode.Origin(-2)
	r.RecordStackEntry(0, []defuse.OriginSet{defuse.Single(param)})
	r.RecordUse(param, 0)
	require.NoError(t, r.CheckInvariants())
}

func TestUseNotVisibleInEntrySnapshotFailsInvariantCheck(t *testing.T) {
	r := defuse.NewRecorder()
	origin := bytecode.Origin(3)
	r.RecordDef(origin)
	r.RecordStackEntry(4, nil) // pc 4 sees nothing
	r.RecordUse(origin, 4)
	require.Error(t, r.CheckInvariants())
}

func TestUsedByDeduplicatesAndSorts(t *testing.T) {
	r := defuse.NewRecorder()
	origin := bytecode.Origin(1)
	r.RecordDef(origin)
	r.RecordUse(origin, 9)
	r.RecordUse(origin, 2)
	r.RecordUse(origin, 9)
	require.Equal(t, []int{2, 9}, r.UsedBy(origin))
}

func TestUnionGrowsSetAndStaysSorted(t *testing.T) {
	a := defuse.OriginSet{1, 3}
	b := defuse.OriginSet{2, 3}
	merged := defuse.Union(a, b)
	require.Equal(t, defuse.OriginSet{1, 2, 3}, merged)
}

func TestUnionReturnsSameSliceWhenNothingNew(t *testing.T) {
	a := defuse.OriginSet{1, 2}
	b := defuse.OriginSet{1}
	merged := defuse.Union(a, b)
	require.True(t, merged.Equal(a))
}

func TestMergedOriginSetUseRecordsEachMember(t *testing.T) {
	r := defuse.NewRecorder()
	r.RecordDef(1)
	r.RecordDef(2)
	merged := defuse.Union(defuse.Single(1), defuse.Single(2))
	r.RecordStackEntry(10, []defuse.OriginSet{merged})
	r.RecordUseSet(merged, 10)
	require.NoError(t, r.CheckInvariants())
	require.Equal(t, []int{10}, r.UsedBy(1))
	require.Equal(t, []int{10}, r.UsedBy(2))
}
