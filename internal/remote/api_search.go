package remote

import (
	"github.com/dshills/anaclient/internal/protocol"
)

// SearchFindElementReferences starts a search for references to the element
// at offset. Matches arrive as ComputedSearchResults notifications carrying
// the returned search id.
func (c *Client) SearchFindElementReferences(file string, offset int, includePotential bool, cb func(protocol.ElementReferences, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodSearchFindElementReferences, protocol.ElementReferencesParams(file, offset, includePotential), protocol.DecodeElementReferencesResult, cb)
}

func (c *Client) SearchFindMemberDeclarations(name string, cb func(searchID string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodSearchFindMemberDeclarations, protocol.NameParams(name), protocol.DecodeSearchID, cb)
}

func (c *Client) SearchFindMemberReferences(name string, cb func(searchID string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodSearchFindMemberReferences, protocol.NameParams(name), protocol.DecodeSearchID, cb)
}

// SearchFindTopLevelDeclarations searches for top-level declarations whose
// name matches pattern, a regular expression.
func (c *Client) SearchFindTopLevelDeclarations(pattern string, cb func(searchID string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodSearchFindTopLevelDeclarations, protocol.PatternParams(pattern), protocol.DecodeSearchID, cb)
}

func (c *Client) SearchGetTypeHierarchy(file string, offset int, superOnly bool, cb func(protocol.TypeHierarchy, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodSearchGetTypeHierarchy, protocol.TypeHierarchyParams(file, offset, superOnly), protocol.DecodeTypeHierarchyResult, cb)
}
