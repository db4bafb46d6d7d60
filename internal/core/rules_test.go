package core

import (
	"context"
	"testing"

	"github.com/SeuMarco/program/internal/infra/persistence/memory"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesEngineRegistersOwnershipRule(t *testing.T) {
	assert.Equal(t, []string{"top_level_menu_ownership"}, NewDefaultRulesEngine().Rules())
}

func TestOwnershipRuleBlocksInvalidCommits(t *testing.T) {
	cases := map[string]struct {
		build   func(tx domain.Transaction) error
		message string
	}{
		"non-root owner": {
			build: func(tx domain.Transaction) error {
				root, err := tx.CreateResultLevel(domain.ResultLevel{Name: "Goal"})
				if err != nil {
					return err
				}
				_, err = tx.CreateResultLevel(domain.ResultLevel{Name: "Outcome", ParentID: root.ID, TopLevelMenu: true, TopLevelMenuName: "Beta"})
				return err
			},
			message: "is not a chain root",
		},
		"two owners in one chain": {
			build: func(tx domain.Transaction) error {
				root, err := tx.CreateResultLevel(domain.ResultLevel{Name: "Goal", TopLevelMenu: true, TopLevelMenuName: "Alpha"})
				if err != nil {
					return err
				}
				_, err = tx.CreateResultLevel(domain.ResultLevel{Name: "Outcome", ParentID: root.ID, TopLevelMenu: true, TopLevelMenuName: "Beta"})
				return err
			},
			message: "is not a chain root",
		},
		"owner without name": {
			build: func(tx domain.Transaction) error {
				_, err := tx.CreateResultLevel(domain.ResultLevel{Name: "Goal", TopLevelMenu: true})
				return err
			},
			message: "without a name",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := memory.NewStore(NewDefaultRulesEngine())
			res, err := store.RunInTransaction(context.Background(), tc.build)
			var violation domain.RuleViolationError
			require.ErrorAs(t, err, &violation)
			assert.True(t, res.HasBlocking())
			assert.Contains(t, err.Error(), tc.message)
			assert.Empty(t, store.ListResultLevels(), "blocked transaction is discarded")
		})
	}
}

func TestOwnershipRuleReportsDuplicateOwnersPerChain(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		root, err := tx.CreateResultLevel(domain.ResultLevel{Name: "Goal", TopLevelMenu: true, TopLevelMenuName: "Alpha"})
		if err != nil {
			return err
		}
		_, err = tx.CreateResultLevel(domain.ResultLevel{Name: "Outcome", ParentID: root.ID, TopLevelMenu: true, TopLevelMenuName: "Beta"})
		return err
	})
	require.NoError(t, err)

	var res domain.Result
	require.NoError(t, store.View(context.Background(), func(view domain.TransactionView) error {
		var err error
		res, err = NewTopLevelMenuOwnershipRule().Evaluate(context.Background(), view, nil)
		return err
	}))
	require.Len(t, res.Violations, 2)
	assert.Contains(t, res.Violations[1].Message, "has 2 top-level menu owners")
}

func TestOwnershipRuleAllowsValidChains(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		root, err := tx.CreateResultLevel(domain.ResultLevel{Name: "Goal", TopLevelMenu: true, TopLevelMenuName: "Alpha"})
		if err != nil {
			return err
		}
		if _, err := tx.CreateResultLevel(domain.ResultLevel{Name: "Outcome", ParentID: root.ID}); err != nil {
			return err
		}
		_, err = tx.CreateResultLevel(domain.ResultLevel{Name: "Other", TopLevelMenu: true, TopLevelMenuName: "Beta"})
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, res.Violations)
}
