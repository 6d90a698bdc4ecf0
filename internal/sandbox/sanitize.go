package sandbox

import (
	"fmt"
	"strings"
)

// ImportPolicy decides what happens to an import whose module is outside
// the capability set. Stripping keeps partially-valid generated code
// runnable; rejecting fails the whole unit.
type ImportPolicy int

const (
	PolicyStrip ImportPolicy = iota
	PolicyReject
)

func ParseImportPolicy(s string) (ImportPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strip":
		return PolicyStrip, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyStrip, fmt.Errorf("unknown import policy: %q", s)
	}
}

// sanitize removes (or, under PolicyReject, refuses) every import statement
// whose root module is not in the capability set. Statement order is
// otherwise preserved, and nested blocks are filtered too so an import
// cannot hide inside a loop body.
func sanitize(prog *program, caps CapabilitySet, policy ImportPolicy) (*program, error) {
	body, err := sanitizeStmts(prog.Body, caps, policy)
	if err != nil {
		return nil, err
	}
	return &program{Body: body}, nil
}

func sanitizeStmts(stmts []stmt, caps CapabilitySet, policy ImportPolicy) ([]stmt, error) {
	out := make([]stmt, 0, len(stmts))
	for _, s := range stmts {
		switch node := s.(type) {
		case *importStmt:
			if !caps.allows(node.Module) {
				if policy == PolicyReject {
					return nil, &SanitizationError{Line: node.Line, Msg: fmt.Sprintf("import of %q is not permitted", node.Module)}
				}
				continue
			}
		case *fromImportStmt:
			if !caps.allows(node.Module) {
				if policy == PolicyReject {
					return nil, &SanitizationError{Line: node.Line, Msg: fmt.Sprintf("import from %q is not permitted", node.Module)}
				}
				continue
			}
		case *ifStmt:
			filtered, err := sanitizeStmts(node.Body, caps, policy)
			if err != nil {
				return nil, err
			}
			node.Body = filtered
			filtered, err = sanitizeStmts(node.Orelse, caps, policy)
			if err != nil {
				return nil, err
			}
			node.Orelse = filtered
		case *whileStmt:
			filtered, err := sanitizeStmts(node.Body, caps, policy)
			if err != nil {
				return nil, err
			}
			node.Body = filtered
		case *forStmt:
			filtered, err := sanitizeStmts(node.Body, caps, policy)
			if err != nil {
				return nil, err
			}
			node.Body = filtered
		}
		out = append(out, s)
	}
	return out, nil
}

// rootModule reduces "pandas.io.json" to "pandas" for the capability check.
func rootModule(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
