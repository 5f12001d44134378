package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kanban-crm-api/internal/models"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "crmctl dev")
	assert.Contains(t, out, "commit: none")
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.2.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "crmctl 1.2.0 (commit: abc123, built: 2026-01-01)")
}

func TestRootCmdSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]*cobra.Command{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = sub
	}
	require.Contains(t, names, "migrate")
	require.Contains(t, names, "boards")

	var migrate []string
	for _, sub := range names["migrate"].Commands() {
		migrate = append(migrate, sub.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "goto", "version"}, migrate)
}

func TestMigrateGoto_RejectsBadVersion(t *testing.T) {
	_, err := run("migrate", "goto", "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"latest"`)

	_, err = run("migrate", "goto")
	require.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("3")
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)

	_, err = parseVersion("0")
	assert.Error(t, err)
	_, err = parseVersion("-1")
	assert.Error(t, err)
}

func TestPrintVersion(t *testing.T) {
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	err := printVersion(cmd, func(string) (uint, bool, error) { return 1, true, nil }, "./migrations")
	require.NoError(t, err)
	assert.Equal(t, "Schema version 1 (dirty)\n", buf.String())

	err = printVersion(cmd, func(string) (uint, bool, error) { return 0, false, errors.New("boom") }, "./migrations")
	assert.EqualError(t, err, "boom")
}

func TestEnsureNovos_RequiresUser(t *testing.T) {
	_, err := run("boards", "ensure-novos", "--type", "AGENT")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "--user"))
}

func TestEnsureNovosOptions_Request(t *testing.T) {
	req, err := ensureNovosOptions{userID: 1, boardType: "COLLABORATOR", flow: "SELLER", collaboratorID: 9}.request()
	require.NoError(t, err)
	assert.Equal(t, models.BoardTypeCollaborator, req.Type)
	assert.Equal(t, models.FlowSeller, req.FlowDirection)
	assert.Nil(t, req.AgentID)
	require.NotNil(t, req.CollaboratorID)
	assert.Equal(t, int64(9), *req.CollaboratorID)
}
