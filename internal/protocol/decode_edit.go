package protocol

import (
	"github.com/tidwall/gjson"
)

func readAnalysisErrorFixes(r *reader, v gjson.Result) AnalysisErrorFixes {
	return AnalysisErrorFixes{
		Error: readAnalysisError(r, r.object(v, "error")),
		Fixes: list(r, r.array(v, "fixes"), readSourceChange),
	}
}

func readPostfixTemplate(r *reader, v gjson.Result) PostfixTemplateDescriptor {
	return PostfixTemplateDescriptor{
		Name:    r.str(v, "name"),
		Key:     r.str(v, "key"),
		Example: r.str(v, "example"),
	}
}

// DecodeFormatResult decodes the result of edit.format.
func DecodeFormatResult(v gjson.Result) (FormatResult, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FormatResult {
		return FormatResult{
			Edits:           list(r, r.array(v, "edits"), readSourceEdit),
			SelectionOffset: r.int(v, "selectionOffset"),
			SelectionLength: r.int(v, "selectionLength"),
		}
	})
}

// DecodeAssistsResult decodes the result of edit.getAssists.
func DecodeAssistsResult(v gjson.Result) ([]SourceChange, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []SourceChange {
		return list(r, r.array(v, "assists"), readSourceChange)
	})
}

// DecodeAvailableRefactoringsResult decodes the result of
// edit.getAvailableRefactorings.
func DecodeAvailableRefactoringsResult(v gjson.Result) ([]string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []string {
		return r.strings(v, "kinds")
	})
}

// DecodeFixesResult decodes the result of edit.getFixes.
func DecodeFixesResult(v gjson.Result) ([]AnalysisErrorFixes, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []AnalysisErrorFixes {
		return list(r, r.array(v, "fixes"), readAnalysisErrorFixes)
	})
}

// DecodeStatementCompletionResult decodes the result of
// edit.getStatementCompletion.
func DecodeStatementCompletionResult(v gjson.Result) (StatementCompletion, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) StatementCompletion {
		return StatementCompletion{
			Change:         readSourceChange(r, r.object(v, "change")),
			WhitespaceOnly: r.bool(v, "whitespaceOnly"),
		}
	})
}

// DecodeChangeResult decodes results carrying a single change, as returned by
// edit.getPostfixCompletion.
func DecodeChangeResult(v gjson.Result) (SourceChange, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) SourceChange {
		return readSourceChange(r, r.object(v, "change"))
	})
}

// DecodeEditResult decodes results carrying a single file edit, as returned by
// edit.organizeDirectives and edit.sortMembers.
func DecodeEditResult(v gjson.Result) (SourceFileEdit, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) SourceFileEdit {
		return readSourceFileEdit(r, r.object(v, "edit"))
	})
}

// DecodeOptionalEditResult decodes the result of edit.importElements, whose edit
// is absent when nothing needs to change.
func DecodeOptionalEditResult(v gjson.Result) (*SourceFileEdit, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) *SourceFileEdit {
		e, ok := r.optObject(v, "edit")
		if !ok {
			return nil
		}
		edit := readSourceFileEdit(r, e)
		return &edit
	})
}

// DecodeIsPostfixCompletionApplicableResult decodes the result of
// edit.isPostfixCompletionApplicable.
func DecodeIsPostfixCompletionApplicableResult(v gjson.Result) (bool, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) bool {
		return r.bool(v, "value")
	})
}

// DecodePostfixTemplatesResult decodes the result of
// edit.listPostfixCompletionTemplates.
func DecodePostfixTemplatesResult(v gjson.Result) ([]PostfixTemplateDescriptor, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []PostfixTemplateDescriptor {
		return list(r, r.array(v, "templates"), readPostfixTemplate)
	})
}
