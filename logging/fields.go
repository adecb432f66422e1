package logging

import "fmt"

type Fields map[string]interface{}

// MergeFields creates a new Fields set by merging a and b.
func MergeFields(a, b Fields) Fields {
	merged := make(Fields, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

func (fields Fields) Dupe() Fields {
	dupe := make(Fields, len(fields))
	for k, v := range fields {
		dupe[k] = v
	}
	return dupe
}

type errWithVals interface {
	Vals() map[string]interface{}
}

// WithError returns a copy annotated with the error message, plus any
// key/value data an obserr.Error is carrying.
func (fields Fields) WithError(err error) Fields {
	res := fields.Dupe()
	if e, ok := err.(errWithVals); ok {
		for k, v := range e.Vals() {
			res[k] = v
		}
	}
	res["error_message"] = fmt.Sprintf("%v", err)
	return res
}
