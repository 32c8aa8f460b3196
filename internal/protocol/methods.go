package protocol

// Request methods.
const (
	MethodServerGetVersion       = "server.getVersion"
	MethodServerShutdown         = "server.shutdown"
	MethodServerSetSubscriptions = "server.setSubscriptions"
	MethodServerCancelRequest    = "server.cancelRequest"

	MethodAnalysisGetErrors               = "analysis.getErrors"
	MethodAnalysisGetHover                = "analysis.getHover"
	MethodAnalysisGetImportedElements     = "analysis.getImportedElements"
	MethodAnalysisGetLibraryDependencies  = "analysis.getLibraryDependencies"
	MethodAnalysisGetNavigation           = "analysis.getNavigation"
	MethodAnalysisGetReachableSources     = "analysis.getReachableSources"
	MethodAnalysisReanalyze               = "analysis.reanalyze"
	MethodAnalysisSetAnalysisRoots        = "analysis.setAnalysisRoots"
	MethodAnalysisSetGeneralSubscriptions = "analysis.setGeneralSubscriptions"
	MethodAnalysisSetPriorityFiles        = "analysis.setPriorityFiles"
	MethodAnalysisSetSubscriptions        = "analysis.setSubscriptions"
	MethodAnalysisUpdateContent           = "analysis.updateContent"
	MethodAnalysisUpdateOptions           = "analysis.updateOptions"

	MethodCompletionGetSuggestions   = "completion.getSuggestions"
	MethodCompletionSetSubscriptions = "completion.setSubscriptions"

	MethodEditFormat                         = "edit.format"
	MethodEditGetAssists                     = "edit.getAssists"
	MethodEditGetAvailableRefactorings       = "edit.getAvailableRefactorings"
	MethodEditGetFixes                       = "edit.getFixes"
	MethodEditGetPostfixCompletion           = "edit.getPostfixCompletion"
	MethodEditGetStatementCompletion         = "edit.getStatementCompletion"
	MethodEditImportElements                 = "edit.importElements"
	MethodEditIsPostfixCompletionApplicable  = "edit.isPostfixCompletionApplicable"
	MethodEditListPostfixCompletionTemplates = "edit.listPostfixCompletionTemplates"
	MethodEditOrganizeDirectives             = "edit.organizeDirectives"
	MethodEditSortMembers                    = "edit.sortMembers"

	MethodSearchFindElementReferences    = "search.findElementReferences"
	MethodSearchFindMemberDeclarations   = "search.findMemberDeclarations"
	MethodSearchFindMemberReferences     = "search.findMemberReferences"
	MethodSearchFindTopLevelDeclarations = "search.findTopLevelDeclarations"
	MethodSearchGetTypeHierarchy         = "search.getTypeHierarchy"

	MethodExecutionCreateContext    = "execution.createContext"
	MethodExecutionDeleteContext    = "execution.deleteContext"
	MethodExecutionMapURI           = "execution.mapUri"
	MethodExecutionSetSubscriptions = "execution.setSubscriptions"

	MethodDiagnosticGetServerPort = "diagnostic.getServerPort"

	MethodAnalyticsEnable     = "analytics.enable"
	MethodAnalyticsIsEnabled  = "analytics.isEnabled"
	MethodAnalyticsSendEvent  = "analytics.sendEvent"
	MethodAnalyticsSendTiming = "analytics.sendTiming"
)

// Notification events.
const (
	EventServerConnected = "server.connected"
	EventServerError     = "server.error"
	EventServerStatus    = "server.status"

	EventAnalysisAnalyzedFiles = "analysis.analyzedFiles"
	EventAnalysisClosingLabels = "analysis.closingLabels"
	EventAnalysisErrors        = "analysis.errors"
	EventAnalysisFlushResults  = "analysis.flushResults"
	EventAnalysisHighlights    = "analysis.highlights"
	EventAnalysisImplemented   = "analysis.implemented"
	EventAnalysisNavigation    = "analysis.navigation"
	EventAnalysisOccurrences   = "analysis.occurrences"
	EventAnalysisOutline       = "analysis.outline"
	EventAnalysisOverrides     = "analysis.overrides"

	EventCompletionResults   = "completion.results"
	EventSearchResults       = "search.results"
	EventExecutionLaunchData = "execution.launchData"
)
