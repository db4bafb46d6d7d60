package domain

import "strings"

// maxPathHops bounds how many references a dotted filter path may follow.
const maxPathHops = 8

// LevelFinder loads a decorated result level by ID.
type LevelFinder func(id string) (ResultLevel, bool)

// LevelLookup resolves filter fields against level. Paths starting with
// "chain_root." or "parent_id." follow that reference through find.
func LevelLookup(level ResultLevel, find LevelFinder) func(string) (string, bool) {
	return func(field string) (string, bool) {
		return resolveLevel(level, find, field, 0)
	}
}

// ScopedLookup resolves filter fields against rec. Paths starting with
// "result_level_id." continue on the referenced level.
func ScopedLookup(rec ScopedRecord, find LevelFinder) func(string) (string, bool) {
	return func(field string) (string, bool) {
		head, rest, dotted := strings.Cut(field, ".")
		if !dotted {
			return rec.Field(field)
		}
		if head != "result_level_id" || rec.ResultLevelID == "" || find == nil {
			return "", false
		}
		level, ok := find(rec.ResultLevelID)
		if !ok {
			return "", false
		}
		return resolveLevel(level, find, rest, 1)
	}
}

func resolveLevel(level ResultLevel, find LevelFinder, field string, hops int) (string, bool) {
	head, rest, dotted := strings.Cut(field, ".")
	if !dotted {
		return level.Field(field)
	}
	if find == nil || hops >= maxPathHops {
		return "", false
	}
	var ref string
	switch head {
	case "chain_root":
		ref = level.ChainRootID
	case "parent_id":
		ref = level.ParentID
	default:
		return "", false
	}
	if ref == "" {
		return "", false
	}
	next, ok := find(ref)
	if !ok {
		return "", false
	}
	return resolveLevel(next, find, rest, hops+1)
}
