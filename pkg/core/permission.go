package core

import "strings"

// Level is a ranked permission level. Higher levels include all lower ones;
// there is no other implicit escalation.
type Level int

const (
	LevelReadOnly Level = iota
	LevelReadExecute
	LevelReadExecuteWrite
	LevelAdmin
)

// String returns the canonical lower-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelReadOnly:
		return "read_only"
	case LevelReadExecute:
		return "read_execute"
	case LevelReadExecuteWrite:
		return "read_execute_write"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Grants reports whether a caller holding l may use a capability requiring
// the given level.
func (l Level) Grants(required Level) bool {
	return l >= required
}

// ParseLevel resolves a level name. Unknown names fall back to READ_ONLY so
// a bad hint can only narrow access, never widen it.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read_only", "readonly":
		return LevelReadOnly, true
	case "read_execute":
		return LevelReadExecute, true
	case "read_execute_write":
		return LevelReadExecuteWrite, true
	case "admin":
		return LevelAdmin, true
	default:
		return LevelReadOnly, false
	}
}

// Capability is a named, permission-scoped unit of agent functionality,
// owned by the agent that declares it.
type Capability struct {
	Name               string
	Description        string
	RequiredPermission Level
	DeclaredTools      []string
	DataAccess         string
	TimeEstimate       string
}
