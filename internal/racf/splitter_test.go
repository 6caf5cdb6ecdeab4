package racf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitListUser(t *testing.T) {
	result, err := Split(sampleListUser, true, []string{"TSO", "OMVS"})
	require.NoError(t, err)

	assert.True(t, result.HasBase)
	assert.Contains(t, result.Base, "USER=JOE")
	assert.Contains(t, result.Base, "SECURITY-LABEL")
	assert.NotContains(t, result.Base, "TSO INFORMATION")

	tso := result.Segments["TSO"]
	assert.True(t, tso.Present)
	assert.Contains(t, tso.Text, "ACCTNUM= ACCT#")
	assert.NotContains(t, tso.Text, "UID=")

	omvs := result.Segments["OMVS"]
	assert.True(t, omvs.Present)
	assert.Contains(t, omvs.Text, "UID= 0000000100")
}

func TestSplitOrderIndependent(t *testing.T) {
	forward, err := Split(sampleListUser, true, []string{"TSO", "OMVS"})
	require.NoError(t, err)
	reversed, err := Split(sampleListUser, true, []string{"omvs", "tso"})
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
}

func TestSplitWithoutBase(t *testing.T) {
	result, err := Split(sampleListUser, false, []string{"OMVS"})
	require.NoError(t, err)

	assert.False(t, result.HasBase)
	assert.Empty(t, result.Base)
	assert.Contains(t, result.Segments["OMVS"].Text, "HOME= /u/joe")
}

func TestSplitBaseOnly(t *testing.T) {
	result, err := Split("USER=JOE  NAME=JOE\n\n", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "USER=JOE  NAME=JOE", result.Base)
	assert.Empty(t, result.Segments)
}

func TestSplitSuppressedSegments(t *testing.T) {
	result, err := Split(sampleListUserRevoked, true, []string{"TSO", "OMVS"})
	require.NoError(t, err)

	assert.Equal(t, SegmentText{Present: false}, result.Segments["TSO"])
	assert.Equal(t, SegmentText{Present: false}, result.Segments["OMVS"])
	assert.NotContains(t, result.Base, "NO TSO")
}

func TestSplitHeadersStartLines(t *testing.T) {
	text := "USER=JOE  NAME=JOE SMITH\n" +
		" INSTALLATION-DATA=OMVS INFORMATION AND NO TSO INFORMATION\n" +
		"SECURITY-LABEL=NONE SPECIFIED\n" +
		"\nTSO INFORMATION\n---------------\n PROC= IKJACCNT\n" +
		"\nOMVS INFORMATION\n----------------\nUID= 0000000100"

	result, err := Split(text, true, []string{"OMVS", "TSO"})
	require.NoError(t, err)

	assert.Contains(t, result.Base, "INSTALLATION-DATA=OMVS INFORMATION AND NO TSO INFORMATION")
	assert.Contains(t, result.Base, "SECURITY-LABEL")

	tso := result.Segments["TSO"]
	assert.True(t, tso.Present)
	assert.Contains(t, tso.Text, "PROC= IKJACCNT")
	assert.NotContains(t, tso.Text, "UID=")

	omvs := result.Segments["OMVS"]
	assert.True(t, omvs.Present)
	assert.Contains(t, omvs.Text, "UID= 0000000100")

	_, err = Split("USER=JOE\n INSTALLATION-DATA=SEE TSO INFORMATION", true, []string{"TSO"})
	require.Error(t, err, "a header inside data is not a segment")
	assert.True(t, IsParseError(err))
}

func TestSplitNoMatch(t *testing.T) {
	_, err := Split("ICH30001I UNABLE TO LOCATE USER ENTRY BOB", true, []string{"TSO"})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	_, err = Split("SOMETHING ELSE ENTIRELY", true, []string{"TSO"})
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Equal(t, "SOMETHING ELSE ENTIRELY", ErrorOutput(err))
}

func TestParseListingSkipsSuppressedSegments(t *testing.T) {
	set := NewGrammarSet()
	require.NoError(t, set.Add(mustGrammar(t, "USER.RACF",
		SegmentRule{Name: "USERID", Pattern: `^USER=(\S+)`},
	)))
	require.NoError(t, set.Add(mustGrammar(t, "USER.TSO",
		SegmentRule{Name: "ACCTNUM", Pattern: `^ ACCTNUM= *(\S+)`},
	)))

	listing, err := ParseListing(set, "user", sampleListUserRevoked, true, []string{"tso"})
	require.NoError(t, err)

	assert.Equal(t, "OLD", listing.Attributes.GetString("RACF.USERID"))
	assert.Equal(t, map[string]bool{"TSO": false}, listing.Segments)
	assert.Equal(t, 1, listing.Attributes.Len())
}

func TestParseListingMissingGrammar(t *testing.T) {
	set := NewGrammarSet()
	require.NoError(t, set.Add(mustGrammar(t, "USER.RACF",
		SegmentRule{Name: "USERID", Pattern: `^USER=(\S+)`},
	)))

	_, err := ParseListing(set, "USER", sampleListUser, true, []string{"TSO"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USER.TSO")
}

func TestClassifyOutput(t *testing.T) {
	notFound := NewEmbeddedCommandError("LISTUSER", "ICH30001I UNABLE TO LOCATE USER ENTRY BOB")
	err := ClassifyOutput("read_user", "BOB", notFound)
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "BOB", err.(*RACFError).Target)

	other := NewEmbeddedCommandError("ALTUSER", "IKJ56702I INVALID OWNER")
	assert.Same(t, other, ClassifyOutput("update_user", "BOB", other))

	plain := errors.New("boom")
	assert.Equal(t, plain, ClassifyOutput("read_user", "BOB", plain))

	assert.NoError(t, ClassifyOutput("read_user", "BOB", nil))
}

func TestIsNotFoundOutput(t *testing.T) {
	assert.True(t, IsNotFoundOutput("ICH51002I NAME NOT FOUND IN RACF DATA SET"))
	assert.True(t, IsNotFoundOutput("invalid group, payroll"))
	assert.False(t, IsNotFoundOutput("READY"))
}
