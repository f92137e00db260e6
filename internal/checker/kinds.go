package checker

import (
	"fmt"

	"github.com/casebridge/casebridge/internal/domain"
)

// verdict is the outcome of comparing one tool value shape against the
// method value shape it claims to satisfy. An empty severity means the
// shapes are compatible with no finding.
type verdict struct {
	severity domain.Severity
	message  string
}

func ok() verdict { return verdict{} }

func warn(format string, args ...any) verdict {
	return verdict{severity: domain.SeverityWarning, message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) verdict {
	return verdict{severity: domain.SeverityError, message: fmt.Sprintf(format, args...)}
}

// compareValues applies the value-kind compatibility policy, tool-declared
// shape against method-declared shape:
//
//	integer    -> float       warning (widening, safe)
//	float      -> integer     error (narrowing, lossy)
//	identifier -> string      warning (identifier is a string subtype)
//	string     -> identifier  warning (weaker shape guarantee)
//	enum       <-> string     warning (enumeration declared on one side only)
//	any        <-> anything   warning (no static guarantee)
//	list(X)    -> list(Y)     recurse on (X, Y)
//	record     -> record      warning unless both field sets are known and
//	                          recursively compatible, then ok
//	anything else mismatched  error
func compareValues(tool, method domain.ValueSpec) verdict {
	if tool.Kind == method.Kind {
		switch tool.Kind {
		case domain.KindList:
			if tool.Elem == nil || method.Elem == nil {
				return fail("list value spec has no element spec")
			}
			if v := compareValues(*tool.Elem, *method.Elem); v.severity != "" {
				return verdict{severity: v.severity, message: "list element: " + v.message}
			}
			return ok()
		case domain.KindRecord:
			return compareRecords(tool, method)
		default:
			return ok()
		}
	}

	if tool.Kind == domain.KindAny || method.Kind == domain.KindAny {
		return warn("kind any gives no static guarantee")
	}

	switch {
	case tool.Kind == domain.KindInteger && method.Kind == domain.KindFloat:
		return warn("kind integer widens to float")
	case tool.Kind == domain.KindFloat && method.Kind == domain.KindInteger:
		return fail("kind float narrows to integer (lossy)")
	case tool.Kind == domain.KindIdentifier && method.Kind == domain.KindString:
		return warn("identifier is a string subtype")
	case tool.Kind == domain.KindString && method.Kind == domain.KindIdentifier:
		return warn("string gives weaker shape guarantee than identifier")
	case tool.Kind == domain.KindString && method.Kind == domain.KindEnum:
		return warn("tool accepts values the method would reject at runtime")
	case tool.Kind == domain.KindEnum && method.Kind == domain.KindString:
		return warn("enum is a string subtype")
	}

	return fail("incompatible kinds: tool declares %s, method expects %s", tool.Kind, method.Kind)
}

// compareRecords handles the record/record row. Two records with unknown
// field sets give a warning; with both sets declared, they are ok only when
// the field names match exactly and every field pair is itself compatible
// with no finding.
func compareRecords(tool, method domain.ValueSpec) verdict {
	if len(tool.Fields) == 0 || len(method.Fields) == 0 {
		return warn("record field schemas are not both known")
	}
	if len(tool.Fields) != len(method.Fields) {
		return warn("record field sets differ")
	}
	methodFields := make(map[string]domain.ParameterSchema, len(method.Fields))
	for _, f := range method.Fields {
		methodFields[f.Name] = f
	}
	for _, tf := range tool.Fields {
		mf, found := methodFields[tf.Name]
		if !found {
			return warn("record field %q unknown to method", tf.Name)
		}
		if v := compareValues(tf.Value, mf.Value); v.severity != "" {
			return warn("record field %q: %s", tf.Name, v.message)
		}
	}
	return ok()
}
