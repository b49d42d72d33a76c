package cache

import "fmt"

// Action is what a Command does to its entries.
type Action string

const (
	// ActionReplace stores Value as a fresh entry.
	ActionReplace Action = "replace"
	// ActionInvalidate keeps the value but forces a refetch on next read.
	ActionInvalidate Action = "invalidate"
	// ActionPurge deletes the entry so the next read starts from nothing.
	ActionPurge Action = "purge"
)

// Command is one cache change declared by a mutation. With Prefix set,
// Key is a prefix and the action applies to every matching entry.
type Command struct {
	Key    string
	Prefix bool
	Action Action
	Value  any
}

func (c Command) String() string {
	if c.Prefix {
		return fmt.Sprintf("%s %s*", c.Action, c.Key)
	}
	return fmt.Sprintf("%s %s", c.Action, c.Key)
}

func Replace(key string, value any) Command {
	return Command{Key: key, Action: ActionReplace, Value: value}
}

func Invalidate(key string) Command {
	return Command{Key: key, Action: ActionInvalidate}
}

// InvalidateNamespace marks every entry of ns stale.
func InvalidateNamespace(ns string) Command {
	return Command{Key: NamespacePrefix(ns), Prefix: true, Action: ActionInvalidate}
}

func Purge(key string) Command {
	return Command{Key: key, Action: ActionPurge}
}
