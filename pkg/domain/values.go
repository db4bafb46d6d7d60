package domain

// ResultLevelValues is a partial write payload for a ResultLevel. A nil field
// is absent from the write; a pointer to the zero value is an explicit clear.
type ResultLevelValues struct {
	Name             *string
	Sequence         *int
	ParentID         *string
	MenuID           *string
	TopLevelMenu     *bool
	TopLevelMenuName *string
	TopLevelMenuID   *string
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Clone returns a copy whose pointers do not alias the receiver's.
func (v ResultLevelValues) Clone() ResultLevelValues {
	out := ResultLevelValues{}
	if v.Name != nil {
		out.Name = String(*v.Name)
	}
	if v.Sequence != nil {
		out.Sequence = Int(*v.Sequence)
	}
	if v.ParentID != nil {
		out.ParentID = String(*v.ParentID)
	}
	if v.MenuID != nil {
		out.MenuID = String(*v.MenuID)
	}
	if v.TopLevelMenu != nil {
		out.TopLevelMenu = Bool(*v.TopLevelMenu)
	}
	if v.TopLevelMenuName != nil {
		out.TopLevelMenuName = String(*v.TopLevelMenuName)
	}
	if v.TopLevelMenuID != nil {
		out.TopLevelMenuID = String(*v.TopLevelMenuID)
	}
	return out
}

// WantsTopLevelMenu reports whether the write sets top_level_menu to true.
func (v ResultLevelValues) WantsTopLevelMenu() bool {
	return v.TopLevelMenu != nil && *v.TopLevelMenu
}

// SetsParent reports whether the write assigns a non-empty parent.
func (v ResultLevelValues) SetsParent() bool {
	return v.ParentID != nil && *v.ParentID != ""
}

// ClearsParent reports whether the write explicitly removes the parent.
func (v ResultLevelValues) ClearsParent() bool {
	return v.ParentID != nil && *v.ParentID == ""
}

// MenuName returns the incoming top-level menu name, or "" when absent.
func (v ResultLevelValues) MenuName() string {
	if v.TopLevelMenuName == nil {
		return ""
	}
	return *v.TopLevelMenuName
}

// Apply copies every present field onto level.
func (v ResultLevelValues) Apply(level *ResultLevel) {
	if v.Name != nil {
		level.Name = *v.Name
	}
	if v.Sequence != nil {
		level.Sequence = *v.Sequence
	}
	if v.ParentID != nil {
		level.ParentID = *v.ParentID
	}
	if v.MenuID != nil {
		level.MenuID = *v.MenuID
	}
	if v.TopLevelMenu != nil {
		level.TopLevelMenu = *v.TopLevelMenu
	}
	if v.TopLevelMenuName != nil {
		level.TopLevelMenuName = *v.TopLevelMenuName
	}
	if v.TopLevelMenuID != nil {
		level.TopLevelMenuID = *v.TopLevelMenuID
	}
}

// NewResultLevel materialises a record from a create payload.
func (v ResultLevelValues) NewResultLevel() ResultLevel {
	var level ResultLevel
	v.Apply(&level)
	return level
}
