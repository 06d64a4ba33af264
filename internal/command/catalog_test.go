package command

import (
	"context"
	"testing"

	memrepo "github.com/foxseedlab/gunkan/external/repository"
	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	commands, err := Catalog()
	require.NoError(t, err)
	require.Len(t, commands, 10)

	byName := make(map[string]repository.Command)
	for _, c := range commands {
		assert.NotContains(t, c.Name, "/", "names are stored without prefix")
		assert.True(t, c.Enabled, c.Name)
		byName[c.Name] = c
	}
	for _, name := range []string{"kick", "mute", "promote", "demote"} {
		assert.True(t, byName[name].AdminOnly, name)
		assert.Equal(t, repository.CommandCategoryModeration, byName[name].Category, name)
	}
	for _, name := range []string{"play", "queue", "skip"} {
		assert.False(t, byName[name].AdminOnly, name)
		assert.Equal(t, repository.CommandCategoryMusic, byName[name].Category, name)
	}
	assert.Equal(t, "@user", byName["kick"].Usage)
}

func TestCatalogHasHandlerForEveryCommand(t *testing.T) {
	commands, err := Catalog()
	require.NoError(t, err)
	reg := NewDefaultRegistry(Deps{})
	for _, c := range commands {
		_, ok := reg.Lookup(c.Name)
		assert.True(t, ok, c.Name)
	}
	assert.Len(t, reg.Names(), len(commands))
}

func TestSeedKeepsOperatorEdits(t *testing.T) {
	ctx := context.Background()
	repo := memrepo.NewMemoryRepository()
	require.NoError(t, Seed(ctx, repo))

	disabled := false
	_, err := repo.UpdateCommand(ctx, "play", repository.CommandPatch{Enabled: &disabled})
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, repo))

	play, err := repo.GetCommand(ctx, "play")
	require.NoError(t, err)
	require.NotNil(t, play)
	assert.False(t, play.Enabled)

	all, err := repo.ListCommands(ctx, repository.CommandFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 10)
}
