package protocol

import (
	"github.com/tidwall/gjson"
)

func readCompletionSuggestion(r *reader, v gjson.Result) CompletionSuggestion {
	s := CompletionSuggestion{
		Kind:                      r.str(v, "kind"),
		Relevance:                 r.int(v, "relevance"),
		Completion:                r.str(v, "completion"),
		DisplayText:               r.optStr(v, "displayText"),
		SelectionOffset:           r.int(v, "selectionOffset"),
		SelectionLength:           r.int(v, "selectionLength"),
		IsDeprecated:              r.bool(v, "isDeprecated"),
		IsPotential:               r.bool(v, "isPotential"),
		DocSummary:                r.optStr(v, "docSummary"),
		DocComplete:               r.optStr(v, "docComplete"),
		DeclaringType:             r.optStr(v, "declaringType"),
		DefaultArgumentListString: r.optStr(v, "defaultArgumentListString"),
		ReturnType:                r.optStr(v, "returnType"),
		ParameterNames:            r.optStrings(v, "parameterNames"),
		ParameterTypes:            r.optStrings(v, "parameterTypes"),
		RequiredParameterCount:    r.optInt(v, "requiredParameterCount"),
		HasNamedParameters:        r.optBool(v, "hasNamedParameters"),
		ParameterName:             r.optStr(v, "parameterName"),
		ParameterType:             r.optStr(v, "parameterType"),
		ImportURI:                 r.optStr(v, "importUri"),
	}
	if el, ok := r.optObject(v, "element"); ok {
		e := readElement(r, el)
		s.Element = &e
	}
	return s
}

// DecodeCompletionID decodes the result of completion.getSuggestions.
func DecodeCompletionID(v gjson.Result) (string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) string {
		return r.str(v, "id")
	})
}

// DecodeCompletionResults decodes the params of completion.results.
func DecodeCompletionResults(v gjson.Result) (CompletionResults, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) CompletionResults {
		return CompletionResults{
			ID:                r.str(v, "id"),
			ReplacementOffset: r.int(v, "replacementOffset"),
			ReplacementLength: r.int(v, "replacementLength"),
			Results:           list(r, r.array(v, "results"), readCompletionSuggestion),
			IsLast:            r.bool(v, "isLast"),
		}
	})
}
