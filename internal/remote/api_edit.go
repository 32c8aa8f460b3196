package remote

import (
	"github.com/dshills/anaclient/internal/protocol"
)

// EditFormat formats file. A zero lineLength uses the engine's default.
func (c *Client) EditFormat(file string, selectionOffset, selectionLength, lineLength int, cb func(protocol.FormatResult, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditFormat, protocol.FormatParams(file, selectionOffset, selectionLength, lineLength), protocol.DecodeFormatResult, cb)
}

func (c *Client) EditGetAssists(file string, offset, length int, cb func([]protocol.SourceChange, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditGetAssists, protocol.FileRangeParams(file, offset, length), protocol.DecodeAssistsResult, cb)
}

// EditGetAvailableRefactorings returns the kinds of refactoring available for
// the range.
func (c *Client) EditGetAvailableRefactorings(file string, offset, length int, cb func(kinds []string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditGetAvailableRefactorings, protocol.FileRangeParams(file, offset, length), protocol.DecodeAvailableRefactoringsResult, cb)
}

func (c *Client) EditGetFixes(file string, offset int, cb func([]protocol.AnalysisErrorFixes, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditGetFixes, protocol.FileOffsetParams(file, offset), protocol.DecodeFixesResult, cb)
}

func (c *Client) EditGetStatementCompletion(file string, offset int, cb func(protocol.StatementCompletion, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditGetStatementCompletion, protocol.FileOffsetParams(file, offset), protocol.DecodeStatementCompletionResult, cb)
}

// EditGetPostfixCompletion applies the postfix template key at offset.
func (c *Client) EditGetPostfixCompletion(file, key string, offset int, cb func(protocol.SourceChange, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditGetPostfixCompletion, protocol.PostfixParams(file, key, offset), protocol.DecodeChangeResult, cb)
}

func (c *Client) EditIsPostfixCompletionApplicable(file, key string, offset int, cb func(applicable bool, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditIsPostfixCompletionApplicable, protocol.PostfixParams(file, key, offset), protocol.DecodeIsPostfixCompletionApplicableResult, cb)
}

func (c *Client) EditListPostfixCompletionTemplates(cb func([]protocol.PostfixTemplateDescriptor, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditListPostfixCompletionTemplates, nil, protocol.DecodePostfixTemplatesResult, cb)
}

// EditImportElements computes the edit that imports elements into file. The
// edit is nil when nothing needs importing. A nil offset lets the engine pick
// the insertion point.
func (c *Client) EditImportElements(file string, elements []protocol.ImportedElements, offset *int, cb func(*protocol.SourceFileEdit, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditImportElements, protocol.ImportElementsParams(file, elements, offset), protocol.DecodeOptionalEditResult, cb)
}

func (c *Client) EditOrganizeDirectives(file string, cb func(protocol.SourceFileEdit, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditOrganizeDirectives, protocol.FileParams(file), protocol.DecodeEditResult, cb)
}

func (c *Client) EditSortMembers(file string, cb func(protocol.SourceFileEdit, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodEditSortMembers, protocol.FileParams(file), protocol.DecodeEditResult, cb)
}
