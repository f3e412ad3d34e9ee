package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"mcpreg/internal/domain"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.json")
	return New(path, Options{})
}

func boolPtr(v bool) *bool { return &v }

func githubTools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "create_issue",
			Description: "Create a GitHub issue",
			Parameters: domain.ParameterSchema{
				Type: "object",
				Properties: map[string]domain.ParameterSpec{
					"repository": {Type: domain.KindString},
					"title":      {Type: domain.KindString},
					"labels":     {Type: domain.KindArray},
				},
				Required: []string{"repository", "title"},
			},
		},
		{
			Name:       "search_code",
			Parameters: domain.EmptyParameterSchema(),
		},
	}
}

func TestAddServer(t *testing.T) {
	r := newTestRegistry(t)

	err := r.AddServer(AddServerInput{Name: "github-mcp", URL: "https://example.com/github"})
	require.NoError(t, err)

	rec, ok := r.GetServer("github-mcp")
	require.True(t, ok)
	require.True(t, rec.Enabled)
	require.Equal(t, "https://example.com/github", rec.URL)
	require.False(t, rec.LastUpdated.IsZero())
}

func TestAddServer_MissingName(t *testing.T) {
	r := newTestRegistry(t)

	err := r.AddServer(AddServerInput{URL: "https://example.com"})
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeInvalidArguments))
}

func TestAddServer_DuplicateName(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp"}))

	err := r.AddServer(AddServerInput{Name: "github-mcp"})
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeDuplicateName))
}

func TestAddServer_ExplicitDisabled(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", Enabled: boolPtr(false)}))

	rec, ok := r.GetServer("github-mcp")
	require.True(t, ok)
	require.False(t, rec.Enabled)
}

func TestRemoveServer(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp"}))

	require.NoError(t, r.RemoveServer("github-mcp"))
	_, ok := r.GetServer("github-mcp")
	require.False(t, ok)

	err := r.RemoveServer("github-mcp")
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestEnableDisable_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	r := New(filepath.Join(t.TempDir(), "servers.json"), Options{Clock: clock})
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp"}))

	// A real flip moves LastUpdated.
	now = now.Add(time.Hour)
	require.NoError(t, r.DisableServer("github-mcp"))
	rec, _ := r.GetServer("github-mcp")
	require.False(t, rec.Enabled)
	require.Equal(t, now, rec.LastUpdated)

	// A redundant disable leaves LastUpdated alone.
	flipped := now
	now = now.Add(time.Hour)
	require.NoError(t, r.DisableServer("github-mcp"))
	rec, _ = r.GetServer("github-mcp")
	require.False(t, rec.Enabled)
	require.Equal(t, flipped, rec.LastUpdated)

	require.NoError(t, r.EnableServer("github-mcp"))
	rec, _ = r.GetServer("github-mcp")
	require.True(t, rec.Enabled)

	err := r.EnableServer("missing")
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestListEnabled(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "b-server"}))
	require.NoError(t, r.AddServer(AddServerInput{Name: "a-server"}))
	require.NoError(t, r.AddServer(AddServerInput{Name: "c-server", Enabled: boolPtr(false)}))

	all := r.ListAll()
	require.Len(t, all, 3)
	require.Equal(t, "a-server", all[0].Name)
	require.Equal(t, "b-server", all[1].Name)

	enabled := r.ListEnabled()
	require.Len(t, enabled, 2)
	for _, rec := range enabled {
		require.True(t, rec.Enabled)
	}
}

func TestUpdateEnabledTools(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", AvailableTools: githubTools()}))

	require.NoError(t, r.UpdateEnabledTools("github-mcp", []string{"create_issue"}))
	rec, _ := r.GetServer("github-mcp")
	require.Equal(t, []string{"create_issue"}, rec.EnabledTools)
	require.True(t, rec.ToolEnabled("create_issue"))
	require.False(t, rec.ToolEnabled("search_code"))
}

func TestUpdateEnabledTools_UnknownToolRejectsAtomically(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", AvailableTools: githubTools()}))
	require.NoError(t, r.UpdateEnabledTools("github-mcp", []string{"create_issue"}))

	err := r.UpdateEnabledTools("github-mcp", []string{"search_code", "delete_repo"})
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeInvalidArguments))
	require.Contains(t, err.Error(), "delete_repo")

	// Whole update rejected: previous subset intact.
	rec, _ := r.GetServer("github-mcp")
	require.Equal(t, []string{"create_issue"}, rec.EnabledTools)
}

func TestUpdateEnabledTools_ServerNotFound(t *testing.T) {
	r := newTestRegistry(t)
	err := r.UpdateEnabledTools("missing", []string{"a"})
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestEnabledToolsDefaultToAll(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", AvailableTools: githubTools()}))

	rec, _ := r.GetServer("github-mcp")
	require.Nil(t, rec.EnabledTools)
	require.True(t, rec.ToolEnabled("create_issue"))
	require.True(t, rec.ToolEnabled("search_code"))
	require.Equal(t, []string{"create_issue", "search_code"}, rec.EffectiveEnabledTools())

	// Pinning an empty subset is not the same as never pinning.
	require.NoError(t, r.UpdateEnabledTools("github-mcp", nil))
	rec, _ = r.GetServer("github-mcp")
	require.NotNil(t, rec.EnabledTools)
	require.Empty(t, rec.EnabledTools)
	require.False(t, rec.ToolEnabled("create_issue"))
}

func TestReconcile_CreatesAndCounts(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "local-only"}))

	result, err := r.Reconcile([]domain.RemoteServerDescriptor{
		{Name: "github-mcp", URL: "https://example.com/github", Tools: []string{"create_issue"}},
		{Name: "slack-mcp", URL: "https://example.com/slack", Tools: []string{"send_message"}},
		{Name: ""},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Equal(t, 0, result.Updated)

	// Local-only servers survive every sync.
	_, ok := r.GetServer("local-only")
	require.True(t, ok)

	rec, ok := r.GetServer("github-mcp")
	require.True(t, ok)
	require.True(t, rec.Enabled)
	require.Equal(t, []string{"create_issue"}, rec.ToolNames())
	require.Equal(t, "Tool: create_issue", rec.AvailableTools[0].Description)
}

func TestReconcile_PreservesOverrides(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Reconcile([]domain.RemoteServerDescriptor{
		{Name: "github-mcp", URL: "https://old.example.com", Tools: []string{"a", "x"}},
	})
	require.NoError(t, err)
	require.NoError(t, r.DisableServer("github-mcp"))
	require.NoError(t, r.UpdateEnabledTools("github-mcp", []string{"a"}))

	result, err := r.Reconcile([]domain.RemoteServerDescriptor{
		{
			Name:        "github-mcp",
			URL:         "https://new.example.com",
			Description: "GitHub integration",
			Tags:        []string{"version-control"},
			Tools:       []string{"a", "b", "c"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)

	rec, _ := r.GetServer("github-mcp")
	require.False(t, rec.Enabled, "enabled override must survive refresh")
	require.Equal(t, "https://new.example.com", rec.URL)
	require.Equal(t, []string{"a", "b", "c"}, rec.ToolNames())
	require.Equal(t, []string{"a"}, rec.EnabledTools)
}

func TestReconcile_ClipsPinnedSubsetToNewTools(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Reconcile([]domain.RemoteServerDescriptor{
		{Name: "github-mcp", Tools: []string{"a", "b"}},
	})
	require.NoError(t, err)
	require.NoError(t, r.UpdateEnabledTools("github-mcp", []string{"a", "b"}))

	_, err = r.Reconcile([]domain.RemoteServerDescriptor{
		{Name: "github-mcp", Tools: []string{"b", "c"}},
	})
	require.NoError(t, err)

	rec, _ := r.GetServer("github-mcp")
	require.Equal(t, []string{"b"}, rec.EnabledTools)
	for _, tool := range rec.EnabledTools {
		require.True(t, rec.HasTool(tool))
	}
}

func TestAddServer_DoesNotAliasInputSchemas(t *testing.T) {
	r := newTestRegistry(t)
	tools := githubTools()
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", AvailableTools: tools}))

	tools[0].Parameters.Properties["repository"] = domain.ParameterSpec{Type: domain.KindNumber}
	tools[0].Parameters.Required[0] = "changed"

	rec, _ := r.GetServer("github-mcp")
	tool, ok := rec.Tool("create_issue")
	require.True(t, ok)
	require.Equal(t, domain.KindString, tool.Parameters.Properties["repository"].Type)
	require.Equal(t, []string{"repository", "title"}, tool.Parameters.Required)
}

func TestReplaceAvailableTools(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", AvailableTools: githubTools()}))
	require.NoError(t, r.UpdateEnabledTools("github-mcp", []string{"create_issue", "search_code"}))

	probed := []domain.ToolDescriptor{
		{
			Name: "create_issue",
			Parameters: domain.ParameterSchema{
				Type:       "object",
				Properties: map[string]domain.ParameterSpec{"title": {Type: domain.KindString}},
				Required:   []string{"title"},
			},
		},
		{Name: "merge_pull_request", Parameters: domain.EmptyParameterSchema()},
	}
	updated, err := r.ReplaceAvailableTools("github-mcp", probed)
	require.NoError(t, err)
	require.Equal(t, []string{"create_issue", "merge_pull_request"}, updated.ToolNames())
	require.Equal(t, []string{"create_issue"}, updated.EnabledTools)

	// A never-pinned server stays never-pinned.
	require.NoError(t, r.AddServer(AddServerInput{Name: "slack-mcp", AvailableTools: githubTools()}))
	slack, err := r.ReplaceAvailableTools("slack-mcp", probed)
	require.NoError(t, err)
	require.Nil(t, slack.EnabledTools)

	// The stored catalog survives a reload.
	fresh := New(r.Path(), Options{})
	require.NoError(t, fresh.Load())
	rec, ok := fresh.GetServer("github-mcp")
	require.True(t, ok)
	require.Equal(t, []string{"create_issue", "merge_pull_request"}, rec.ToolNames())
}

func TestReplaceAvailableTools_ServerNotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.ReplaceAvailableTools("missing", nil)
	require.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	r := New(path, Options{Config: domain.RegistryConfig{
		URL:                    "https://registry.example.com",
		AutoRefresh:            true,
		RefreshIntervalSeconds: 600,
	}})
	require.NoError(t, r.AddServer(AddServerInput{
		Name:           "github-mcp",
		URL:            "https://example.com/github",
		Description:    "GitHub integration",
		Tags:           []string{"version-control", "collaboration"},
		AvailableTools: githubTools(),
	}))
	require.NoError(t, r.AddServer(AddServerInput{Name: "slack-mcp", Enabled: boolPtr(false)}))
	require.NoError(t, r.UpdateEnabledTools("github-mcp", []string{"create_issue"}))
	require.NoError(t, r.Save())

	fresh := New(path, Options{})
	require.NoError(t, fresh.Load())

	if diff := cmp.Diff(r.ListAll(), fresh.ListAll()); diff != "" {
		t.Fatalf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
	require.Equal(t, r.Config(), fresh.Config())
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "absent.json"), Options{})
	require.NoError(t, r.Load())
	require.Empty(t, r.ListAll())
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	r := New(path, Options{})
	require.NoError(t, r.Load())
	require.Empty(t, r.ListAll())
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	r := New(filepath.Join(dir, "servers.json"), Options{})
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "servers.json", entries[0].Name())
}

func TestSetRegistryURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	r := New(path, Options{})
	require.NoError(t, r.SetRegistryURL("https://registry.example.com/v2"))

	fresh := New(path, Options{})
	require.NoError(t, fresh.Load())
	require.Equal(t, "https://registry.example.com/v2", fresh.Config().URL)

	err := r.SetRegistryURL("")
	require.Error(t, err)
	require.True(t, domain.IsCode(err, domain.CodeInvalidArguments))
}

func TestGetServer_ReturnsCopy(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddServer(AddServerInput{Name: "github-mcp", Tags: []string{"vc"}, AvailableTools: githubTools()}))

	rec, _ := r.GetServer("github-mcp")
	rec.Tags[0] = "mutated"
	rec.AvailableTools[0].Name = "mutated"

	again, _ := r.GetServer("github-mcp")
	require.Equal(t, "vc", again.Tags[0])
	require.Equal(t, "create_issue", again.AvailableTools[0].Name)
}
