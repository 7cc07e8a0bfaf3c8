package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momento/internal/api"
	"momento/internal/repository"
	"momento/internal/service"
)

func testApp(t *testing.T, handler http.HandlerFunc) *App {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "cli.db"), repository.WithSilentLog())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := api.New(srv.URL)
	return &App{
		sessions:      service.NewSessionService(repository.NewAccountRepository(db), client),
		occasions:     service.NewOccasionService(repository.NewPriorityRepository(db), repository.NewNoteSelectionRepository(db)),
		relationships: service.NewRelationshipService(repository.NewPinRepository(db)),
		pending:       service.NewPendingSets(),
		digest:        service.NewDigestService(14),
		suggestions:   service.NewSuggestionService(),
		gallery:       service.NewGalleryService(),
	}
}

func run(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func backend(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/api/UserAuth/login":
			if body["password"] != "secret" {
				_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"user":"u-9","session":"tok-1"}`))
		case "/api/Occasion/_getOccasions":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[
				{"occasion":"o2","person":"Dad","occasionType":"birthday","date":"2026-09-01"},
				{"occasion":"o1","person":"Mom","occasionType":"anniversary","date":"2026-05-01"}
			]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}
}

func TestLoginWhoamiOccasions(t *testing.T) {
	app := testApp(t, backend(t))

	_, stderr, err := run(t, app, "login", "anna", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, stderr, "Invalid credentials")

	out, _, err := run(t, app, "login", "anna", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "anna")

	out, _, err = run(t, app, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "u-9")

	out, _, err = run(t, app, "occasions")
	require.NoError(t, err)
	mom, dad := strings.Index(out, "Mom"), strings.Index(out, "Dad")
	require.True(t, mom >= 0 && dad >= 0, out)
	assert.Less(t, mom, dad)

	out, _, err = run(t, app, "--json", "occasions")
	require.NoError(t, err)
	var list []api.Occasion
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "o1", list[0].ID)
	assert.Equal(t, "u-9", list[0].Owner.ID)

	out, _, err = run(t, app, "occasions", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "UID:o1@momento")
	assert.Contains(t, out, "SUMMARY:Dad: birthday")

	file := filepath.Join(t.TempDir(), "momento.ics")
	out, _, err = run(t, app, "occasions", "export", "-o", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 occasion(s)")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "RRULE:FREQ=YEARLY")
}

func TestProfilesKeepSeparateSessions(t *testing.T) {
	app := testApp(t, backend(t))

	_, _, err := run(t, app, "login", "anna", "--password", "secret")
	require.NoError(t, err)

	_, stderr, err := run(t, app, "--profile", "work", "whoami")
	require.Error(t, err)
	assert.Contains(t, stderr, `profile "work" is not logged in`)

	_, _, err = run(t, app, "logout")
	require.NoError(t, err)
	_, _, err = run(t, app, "whoami")
	assert.Error(t, err)
}

func TestPrincipalFor(t *testing.T) {
	assert.Equal(t, "cli:default", principalFor(""))
	assert.Equal(t, "cli:work", principalFor(" work "))
}

func TestPositions(t *testing.T) {
	from, to, err := positions("3", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, from)
	assert.Equal(t, 0, to)

	_, _, err = positions("0", "1")
	assert.Error(t, err)
	_, _, err = positions("x", "1")
	assert.Error(t, err)
}

func TestTaskAt(t *testing.T) {
	tasks := []service.TaskItem{{ID: "t1"}, {ID: "t2"}}

	task, err := taskAt(tasks, " 2 ")
	require.NoError(t, err)
	assert.Equal(t, "t2", task.ID)

	_, err = taskAt(tasks, "3")
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
	_, err = taskAt(tasks, "two")
	assert.Error(t, err)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "📋 Momento digest\n&<3", stripTags("📋 <b>Momento digest</b>\n&amp;&lt;3"))
}

func TestFormatViewDegraded(t *testing.T) {
	own := service.Ownership{OccasionID: "o1", State: service.OwnershipDegraded}
	text := formatView(&service.OccasionView{Ownership: own, Workspace: service.NewWorkspace(nil, nil, nil, own)})

	assert.Contains(t, text, "o1")
	assert.Contains(t, text, "owner could not be determined")
	assert.NotContains(t, text, "no tasks yet")
}

func TestFormatInvites(t *testing.T) {
	inv := api.Invite{ID: "i1", OccasionID: "o1", Sender: api.UserRef{Username: "olga"}, Recipient: api.UserRef{ID: "u-2"}, Status: api.InvitePending}

	assert.Contains(t, formatInvites([]api.Invite{inv}, true), "from olga")
	assert.Contains(t, formatInvites([]api.Invite{inv}, false), "to u-2")
	assert.Equal(t, "No pending invitations.", formatInvites(nil, true))
}
