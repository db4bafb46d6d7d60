package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/SeuMarco/program/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewTopLevelMenuOwnershipRule())
	return engine
}

const ruleTopLevelMenuOwnership = "top_level_menu_ownership"

// NewTopLevelMenuOwnershipRule blocks commits leaving a chain with more than
// one owner, an owner that is not its chain root, or an owner without a menu
// name.
func NewTopLevelMenuOwnershipRule() domain.Rule {
	return topLevelMenuOwnershipRule{}
}

type topLevelMenuOwnershipRule struct{}

func (topLevelMenuOwnershipRule) Name() string { return ruleTopLevelMenuOwnership }

func (topLevelMenuOwnershipRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     ruleTopLevelMenuOwnership,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   domain.EntityResultLevel,
			EntityID: id,
		})
	}

	owners := make(map[string][]string)
	for _, level := range view.ListResultLevels() {
		if !level.TopLevelMenu {
			continue
		}
		owners[level.ChainRootID] = append(owners[level.ChainRootID], level.ID)
		if !level.IsRoot() {
			block(level.ID, "result level %s (%s) owns a top-level menu but is not a chain root", level.Name, level.ID)
		}
		if level.TopLevelMenuName == "" {
			block(level.ID, "result level %s (%s) owns a top-level menu without a name", level.Name, level.ID)
		}
	}
	roots := make([]string, 0, len(owners))
	for root, ids := range owners {
		if len(ids) > 1 {
			roots = append(roots, root)
		}
	}
	sort.Strings(roots)
	for _, root := range roots {
		block(root, "chain %s has %d top-level menu owners: %v", root, len(owners[root]), owners[root])
	}
	return res, nil
}
