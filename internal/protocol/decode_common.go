package protocol

import (
	"github.com/tidwall/gjson"
)

func readLocation(r *reader, v gjson.Result) Location {
	return Location{
		File:        r.str(v, "file"),
		Offset:      r.int(v, "offset"),
		Length:      r.int(v, "length"),
		StartLine:   r.int(v, "startLine"),
		StartColumn: r.int(v, "startColumn"),
	}
}

func readPosition(r *reader, v gjson.Result) Position {
	return Position{
		File:   r.str(v, "file"),
		Offset: r.int(v, "offset"),
	}
}

func readElement(r *reader, v gjson.Result) Element {
	e := Element{
		Kind:           r.str(v, "kind"),
		Name:           r.str(v, "name"),
		Flags:          r.int(v, "flags"),
		Parameters:     r.optStr(v, "parameters"),
		ReturnType:     r.optStr(v, "returnType"),
		TypeParameters: r.optStr(v, "typeParameters"),
		AliasedType:    r.optStr(v, "aliasedType"),
	}
	if loc, ok := r.optObject(v, "location"); ok {
		l := readLocation(r, loc)
		e.Location = &l
	}
	return e
}

func readSourceEdit(r *reader, v gjson.Result) SourceEdit {
	return SourceEdit{
		Offset:      r.int(v, "offset"),
		Length:      r.int(v, "length"),
		Replacement: r.str(v, "replacement"),
		ID:          r.optStr(v, "id"),
	}
}

func readSourceFileEdit(r *reader, v gjson.Result) SourceFileEdit {
	return SourceFileEdit{
		File:      r.str(v, "file"),
		FileStamp: int64(r.int(v, "fileStamp")),
		Edits:     list(r, r.array(v, "edits"), readSourceEdit),
	}
}

func readLinkedEditSuggestion(r *reader, v gjson.Result) LinkedEditSuggestion {
	return LinkedEditSuggestion{
		Value: r.str(v, "value"),
		Kind:  r.str(v, "kind"),
	}
}

func readLinkedEditGroup(r *reader, v gjson.Result) LinkedEditGroup {
	return LinkedEditGroup{
		Positions:   list(r, r.array(v, "positions"), readPosition),
		Length:      r.int(v, "length"),
		Suggestions: list(r, r.array(v, "suggestions"), readLinkedEditSuggestion),
	}
}

func readSourceChange(r *reader, v gjson.Result) SourceChange {
	c := SourceChange{
		Message:          r.str(v, "message"),
		Edits:            list(r, r.array(v, "edits"), readSourceFileEdit),
		LinkedEditGroups: list(r, r.array(v, "linkedEditGroups"), readLinkedEditGroup),
		ID:               r.optStr(v, "id"),
	}
	if sel, ok := r.optObject(v, "selection"); ok {
		p := readPosition(r, sel)
		c.Selection = &p
	}
	return c
}

func readAnalysisError(r *reader, v gjson.Result) AnalysisError {
	return AnalysisError{
		Severity:   r.str(v, "severity"),
		Type:       r.str(v, "type"),
		Location:   readLocation(r, r.object(v, "location")),
		Message:    r.str(v, "message"),
		Correction: r.optStr(v, "correction"),
		Code:       r.optStr(v, "code"),
		URL:        r.optStr(v, "url"),
		HasFix:     r.flag(v, "hasFix"),
	}
}

// DecodeLocation decodes a Location object.
func DecodeLocation(v gjson.Result) (Location, error) {
	return decodeWith(v, readLocation)
}

// DecodeElement decodes an Element object.
func DecodeElement(v gjson.Result) (Element, error) {
	return decodeWith(v, readElement)
}

// DecodeSourceChange decodes a SourceChange object.
func DecodeSourceChange(v gjson.Result) (SourceChange, error) {
	return decodeWith(v, readSourceChange)
}

// DecodeAnalysisError decodes an AnalysisError object.
func DecodeAnalysisError(v gjson.Result) (AnalysisError, error) {
	return decodeWith(v, readAnalysisError)
}
