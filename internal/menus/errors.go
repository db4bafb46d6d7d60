package menus

import "fmt"

// MissingMenuNameError rejects a write that enables a top-level menu without
// a name.
type MissingMenuNameError struct {
	LevelID string
}

func (e MissingMenuNameError) Error() string {
	if e.LevelID == "" {
		return "no top-level menu name provided"
	}
	return fmt.Sprintf("result level %s: no top-level menu name provided", e.LevelID)
}

// InvalidTopLevelPlacementError rejects a write that would leave a top-level
// menu on a node that is not the root of its chain.
type InvalidTopLevelPlacementError struct {
	LevelID string
}

func (e InvalidTopLevelPlacementError) Error() string {
	if e.LevelID == "" {
		return "top-level menus can only be set on the highest level of a result chain"
	}
	return fmt.Sprintf("result level %s: top-level menus can only be set on the highest level of a result chain", e.LevelID)
}

func (m *Manager) reject(err error) error {
	switch err.(type) {
	case MissingMenuNameError:
		m.metrics.ValidationFailures.WithLabelValues("missing_name").Inc()
	case InvalidTopLevelPlacementError:
		m.metrics.ValidationFailures.WithLabelValues("invalid_placement").Inc()
	}
	return err
}
