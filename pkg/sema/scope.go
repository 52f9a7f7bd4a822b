package sema

import "github.com/toyc/toycc/pkg/ast"

// VarInfo describes a declared local variable or parameter.
type VarInfo struct {
	Type ast.Type
}

// scopeStack is the analyzer's stack of lexical scopes, per spec.md §4.C:
// "A stack of scopes, each a name→VarInfo map. Lookup walks the stack from
// top to bottom; declaration inserts into the top." Depth is also what the
// IR generator later uses to build scope-qualified names (spec.md §4.D),
// so Depth() must agree exactly with the stack length at declaration time.
type scopeStack struct {
	scopes []map[string]VarInfo
}

func newScopeStack() *scopeStack {
	return &scopeStack{}
}

// push enters a new, empty scope.
func (s *scopeStack) push() {
	s.scopes = append(s.scopes, make(map[string]VarInfo))
}

// pop leaves the current (innermost) scope.
func (s *scopeStack) pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Depth returns the current stack length (1 for the outermost function
// scope, growing with each nested block).
func (s *scopeStack) Depth() int {
	return len(s.scopes)
}

// declare inserts name into the current (topmost) scope. Returns false if
// name is already declared in that same scope (shadowing an outer scope is
// fine and is not reported here).
func (s *scopeStack) declare(name string, info VarInfo) bool {
	top := s.scopes[len(s.scopes)-1]
	if _, exists := top[name]; exists {
		return false
	}
	top[name] = info
	return true
}

// resolve looks up name from the innermost scope outward.
func (s *scopeStack) resolve(name string) (VarInfo, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if info, ok := s.scopes[i][name]; ok {
			return info, true
		}
	}
	return VarInfo{}, false
}
