package diag

import "lintel/internal/source"

func New(rule string, sev Severity, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		RuleID:   rule,
		Severity: sev,
		Primary:  primary,
		Message:  msg,
	}
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithData returns a copy of d with key set in Data.
func (d Diagnostic) WithData(key, value string) Diagnostic {
	data := make(map[string]string, len(d.Data)+1)
	for k, v := range d.Data {
		data[k] = v
	}
	data[key] = value
	d.Data = data
	return d
}
