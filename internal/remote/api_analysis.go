package remote

import (
	"github.com/dshills/anaclient/internal/protocol"
)

// AnalysisGetErrors returns the errors currently known for file.
func (c *Client) AnalysisGetErrors(file string, cb func([]protocol.AnalysisError, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalysisGetErrors, protocol.FileParams(file), protocol.DecodeErrorsResult, cb)
}

// AnalysisGetHover returns hover information at offset.
func (c *Client) AnalysisGetHover(file string, offset int, cb func([]protocol.HoverInformation, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalysisGetHover, protocol.FileOffsetParams(file, offset), protocol.DecodeHoverResult, cb)
}

// AnalysisGetNavigation returns the navigation regions intersecting the range.
func (c *Client) AnalysisGetNavigation(file string, offset, length int, cb func(protocol.Navigation, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalysisGetNavigation, protocol.FileRangeParams(file, offset, length), protocol.DecodeNavigationResult, cb)
}

// AnalysisGetLibraryDependencies returns the libraries referenced by the
// analysis roots.
func (c *Client) AnalysisGetLibraryDependencies(cb func(protocol.LibraryDependencies, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalysisGetLibraryDependencies, nil, protocol.DecodeLibraryDependenciesResult, cb)
}

// AnalysisGetReachableSources returns the sources reachable from file.
func (c *Client) AnalysisGetReachableSources(file string, cb func(protocol.ReachableSources, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalysisGetReachableSources, protocol.FileParams(file), protocol.DecodeReachableSourcesResult, cb)
}

// AnalysisGetImportedElements returns the imported elements referenced in the
// range.
func (c *Client) AnalysisGetImportedElements(file string, offset, length int, cb func([]protocol.ImportedElements, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalysisGetImportedElements, protocol.FileRangeParams(file, offset, length), protocol.DecodeImportedElementsResult, cb)
}

// AnalysisReanalyze discards cached results and analyzes roots again. Nil
// roots reanalyze everything.
func (c *Client) AnalysisReanalyze(roots []string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisReanalyze, protocol.ReanalyzeParams(roots), cb)
}

// AnalysisSetAnalysisRoots sets the directories to analyze.
func (c *Client) AnalysisSetAnalysisRoots(included, excluded []string, packageRoots map[string]string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisSetAnalysisRoots, protocol.AnalysisRootsParams(included, excluded, packageRoots), cb)
}

// AnalysisSetGeneralSubscriptions replaces the analysis-wide subscriptions.
func (c *Client) AnalysisSetGeneralSubscriptions(subscriptions []string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisSetGeneralSubscriptions, protocol.SubscriptionsParams(subscriptions), cb)
}

// AnalysisSetPriorityFiles sets the files analyzed first.
func (c *Client) AnalysisSetPriorityFiles(files []string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisSetPriorityFiles, protocol.FilesParams(files), cb)
}

// AnalysisSetSubscriptions replaces the per-file subscriptions, keyed by
// service.
func (c *Client) AnalysisSetSubscriptions(subscriptions map[string][]string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisSetSubscriptions, protocol.FileSubscriptionsParams(subscriptions), cb)
}

// AnalysisUpdateContent overlays unsaved content on files.
func (c *Client) AnalysisUpdateContent(files map[string]protocol.ContentOverlay, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisUpdateContent, protocol.UpdateContentParams(files), cb)
}

// AnalysisUpdateOptions changes analysis options. Unset fields are left as
// they are.
func (c *Client) AnalysisUpdateOptions(options protocol.AnalysisOptions, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalysisUpdateOptions, protocol.UpdateOptionsParams(options), cb)
}
