package racf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a fixed response for every command.
type stubClient struct {
	out  string
	err  error
	sent []string
}

func (s *stubClient) Connect(context.Context) error { return nil }
func (s *stubClient) Close() error                  { return nil }
func (s *stubClient) Ping(context.Context) error    { return nil }
func (s *stubClient) Stats() PoolStats              { return PoolStats{} }

func (s *stubClient) Execute(_ context.Context, cmd []byte) (string, error) {
	s.sent = append(s.sent, string(cmd))
	return s.out, s.err
}

func TestMutate(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		err      error
		accept   func(string) bool
		wantCat  ErrorCategory
		wantNone bool
	}{
		{name: "empty output", out: "", wantNone: true},
		{name: "whitespace output", out: " \n ", wantNone: true},
		{name: "residual output", out: "IKJ56716I EXTRANEOUS INFORMATION WAS IGNORED", wantCat: ErrorCategoryCommandFailed},
		{name: "residual not found", out: "ICH21001I INVALID USERID, JOE", wantCat: ErrorCategoryNotFound},
		{name: "accepted output", out: "CONDITION CODE WAS 0", accept: func(string) bool { return true }, wantNone: true},
		{name: "embedded not found", err: NewEmbeddedCommandError("DELUSER", "ICH01004I INVALID USERID, JOE"), wantCat: ErrorCategoryNotFound},
		{name: "embedded other", err: NewEmbeddedCommandError("ALTUSER", "IKJ56702I INVALID OWNER"), wantCat: ErrorCategoryEmbeddedCommand},
		{name: "timeout", err: NewTimeoutError("ALTUSER", ""), wantCat: ErrorCategoryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := commandRunner{client: &stubClient{out: tt.out, err: tt.err}}
			err := r.mutate(context.Background(), "op", "JOE", []byte("ALTUSER JOE"), tt.accept)
			if tt.wantNone {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCat, GetErrorCategory(err))
		})
	}
}

func TestMutateCommandFailedKeepsOutput(t *testing.T) {
	r := commandRunner{client: &stubClient{out: "IKJ56716I EXTRANEOUS INFORMATION WAS IGNORED"}}
	err := r.mutate(context.Background(), "update_user", "JOE", []byte("ALTUSER JOE PASSWORD(SECRET)"), nil)
	require.Error(t, err)
	assert.Contains(t, ErrorOutput(err), "EXTRANEOUS")
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestQueryClassifiesNotFound(t *testing.T) {
	r := commandRunner{client: &stubClient{err: NewEmbeddedCommandError("LISTUSER", "ICH30001I UNABLE TO LOCATE USER ENTRY JOE")}}
	_, err := r.query(context.Background(), "read_user", "JOE", []byte("LISTUSER JOE"))
	assert.True(t, IsNotFoundError(err))
}

func TestSearch(t *testing.T) {
	stub := &stubClient{out: "JOE\nJANE\n"}
	r := commandRunner{client: stub}

	names, err := r.search(context.Background(), "search", "USER", "j")
	require.NoError(t, err)
	assert.Equal(t, []string{"JOE", "JANE"}, names)
	assert.Equal(t, []string{"SEARCH CLASS(USER) MASK(J)"}, stub.sent)

	stub = &stubClient{err: NewEmbeddedCommandError("SEARCH", "ICH31005I NO ENTRIES MEET SEARCH CRITERIA")}
	names, err = commandRunner{client: stub}.search(context.Background(), "search", "GROUP", "")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, []string{"SEARCH CLASS(GROUP)"}, stub.sent)
}

func TestSearchNames(t *testing.T) {
	assert.Equal(t, []string{"IBMUSER", "JOE"}, searchNames("IBMUSER\n  joe  \n\n"))
	assert.Nil(t, searchNames("ICH31005I NO ENTRIES MEET SEARCH CRITERIA"))
	assert.Equal(t, []string{"SYS1"}, searchNames("SYS1\n***\n"))
}

func TestPlanListing(t *testing.T) {
	available := []string{"RACF", "TSO", "OMVS", "CICS"}

	tests := []struct {
		name      string
		requested []string
		want      ListingPlan
	}{
		{
			name:      "nil requests everything",
			requested: nil,
			want:      ListingPlan{Base: true, Segments: []string{"TSO", "OMVS", "CICS"}},
		},
		{
			name:      "empty requests nothing",
			requested: []string{},
			want:      ListingPlan{},
		},
		{
			name:      "segment fields only",
			requested: []string{"omvs.uid", "OMVS.HOME", "TSO.PROC"},
			want:      ListingPlan{Segments: []string{"OMVS", "TSO"}},
		},
		{
			name:      "bare base field",
			requested: []string{"OWNER"},
			want:      ListingPlan{Base: true},
		},
		{
			name:      "qualified base field",
			requested: []string{"RACF.OWNER", "CICS.OPIDENT"},
			want:      ListingPlan{Base: true, Segments: []string{"CICS"}},
		},
		{
			name:      "membership attribute",
			requested: []string{"GROUPS", "TSO"},
			want:      ListingPlan{Base: true, Segments: []string{"TSO"}},
		},
		{
			name:      "unknown bare name is a base field",
			requested: []string{"DFP"},
			want:      ListingPlan{Base: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanListing(tt.requested, available))
		})
	}
}

func TestListingSuffix(t *testing.T) {
	assert.Equal(t, "", listingSuffix(ListingPlan{Base: true}))
	assert.Equal(t, " TSO OMVS", listingSuffix(ListingPlan{Base: true, Segments: []string{"tso", "OMVS"}}))
	assert.Equal(t, " NORACF OMVS", listingSuffix(ListingPlan{Segments: []string{"OMVS"}}))
}

func TestSegmentEdits(t *testing.T) {
	segments := map[string]map[string]string{
		"tso":  {"unit": "", "proc": "IKJACCNT"},
		"OMVS": {"UID": "100"},
	}

	assert.Equal(t, []AttributeEdit{
		SetEdit("OMVS.UID", "100"),
		SetEdit("TSO.PROC", "IKJACCNT"),
	}, segmentEdits(segments, false))

	assert.Equal(t, []AttributeEdit{
		SetEdit("OMVS.UID", "100"),
		SetEdit("TSO.PROC", "IKJACCNT"),
		DeleteEdit("TSO.UNIT"),
	}, segmentEdits(segments, true))
}

func TestCommand(t *testing.T) {
	assert.Equal(t, []byte("LISTUSER JOE NORACF"), command("LISTUSER", "joe", " NORACF"))
}
