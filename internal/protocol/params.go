package protocol

// Subscription names.
const (
	ServerServiceStatus = "STATUS"

	AnalysisServiceClosingLabels = "CLOSING_LABELS"
	AnalysisServiceFolding       = "FOLDING"
	AnalysisServiceHighlights    = "HIGHLIGHTS"
	AnalysisServiceImplemented   = "IMPLEMENTED"
	AnalysisServiceNavigation    = "NAVIGATION"
	AnalysisServiceOccurrences   = "OCCURRENCES"
	AnalysisServiceOutline       = "OUTLINE"
	AnalysisServiceOverrides     = "OVERRIDES"

	GeneralServiceAnalyzedFiles = "ANALYZED_FILES"

	ExecutionServiceLaunchData = "LAUNCH_DATA"
)

// ContentOverlay is one entry of an analysis.updateContent request. Use
// AddContent, ChangeContent or RemoveContent to build one.
type ContentOverlay struct {
	Type    string       `json:"type"`
	Content *string      `json:"content,omitempty"`
	Edits   []SourceEdit `json:"edits,omitempty"`
}

// AddContent replaces the file's content with content.
func AddContent(content string) ContentOverlay {
	return ContentOverlay{Type: "add", Content: &content}
}

// ChangeContent applies edits to the current overlay.
func ChangeContent(edits []SourceEdit) ContentOverlay {
	return ContentOverlay{Type: "change", Edits: orEmpty(edits)}
}

// RemoveContent drops the overlay so the file is read from disk again.
func RemoveContent() ContentOverlay {
	return ContentOverlay{Type: "remove"}
}

// AnalysisOptions is the payload of analysis.updateOptions. Nil fields are left
// unchanged by the engine.
type AnalysisOptions struct {
	EnableAsync           *bool `json:"enableAsync,omitempty"`
	EnableDeferredLoading *bool `json:"enableDeferredLoading,omitempty"`
	EnableEnums           *bool `json:"enableEnums,omitempty"`
	EnableNullAwareOps    *bool `json:"enableNullAwareOperators,omitempty"`
	GenerateDart2jsHints  *bool `json:"generateDart2jsHints,omitempty"`
	GenerateHints         *bool `json:"generateHints,omitempty"`
	GenerateLints         *bool `json:"generateLints,omitempty"`
}

type fileParams struct {
	File string `json:"file"`
}

type fileOffsetParams struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
}

type fileRangeParams struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// FileParams is {file}.
func FileParams(file string) any { return fileParams{File: file} }

// FileOffsetParams is {file, offset}.
func FileOffsetParams(file string, offset int) any {
	return fileOffsetParams{File: file, Offset: offset}
}

// FileRangeParams is {file, offset, length}.
func FileRangeParams(file string, offset, length int) any {
	return fileRangeParams{File: file, Offset: offset, Length: length}
}

// SubscriptionsParams is {subscriptions: [...]}; nil becomes an empty list.
func SubscriptionsParams(subscriptions []string) any {
	return struct {
		Subscriptions []string `json:"subscriptions"`
	}{orEmpty(subscriptions)}
}

// FileSubscriptionsParams is {subscriptions: {service: [files]}}; a nil map
// becomes an empty object and nil file lists become empty lists.
func FileSubscriptionsParams(subscriptions map[string][]string) any {
	m := make(map[string][]string, len(subscriptions))
	for service, files := range subscriptions {
		m[service] = orEmpty(files)
	}
	return struct {
		Subscriptions map[string][]string `json:"subscriptions"`
	}{m}
}

// AnalysisRootsParams is the payload of analysis.setAnalysisRoots.
func AnalysisRootsParams(included, excluded []string, packageRoots map[string]string) any {
	if packageRoots == nil {
		packageRoots = map[string]string{}
	}
	return struct {
		Included     []string          `json:"included"`
		Excluded     []string          `json:"excluded"`
		PackageRoots map[string]string `json:"packageRoots"`
	}{orEmpty(included), orEmpty(excluded), packageRoots}
}

// FilesParams is {files: [...]}; nil becomes an empty list.
func FilesParams(files []string) any {
	return struct {
		Files []string `json:"files"`
	}{orEmpty(files)}
}

// UpdateContentParams is the payload of analysis.updateContent.
func UpdateContentParams(files map[string]ContentOverlay) any {
	if files == nil {
		files = map[string]ContentOverlay{}
	}
	return struct {
		Files map[string]ContentOverlay `json:"files"`
	}{files}
}

// UpdateOptionsParams is the payload of analysis.updateOptions.
func UpdateOptionsParams(options AnalysisOptions) any {
	return struct {
		Options AnalysisOptions `json:"options"`
	}{options}
}

// ReanalyzeParams is the payload of analysis.reanalyze; nil roots reanalyze
// everything and are omitted.
func ReanalyzeParams(roots []string) any {
	if roots == nil {
		return nil
	}
	return struct {
		Roots []string `json:"roots"`
	}{roots}
}

// FormatParams is the payload of edit.format.
func FormatParams(file string, selectionOffset, selectionLength, lineLength int) any {
	return struct {
		File            string `json:"file"`
		SelectionOffset int    `json:"selectionOffset"`
		SelectionLength int    `json:"selectionLength"`
		LineLength      int    `json:"lineLength,omitempty"`
	}{file, selectionOffset, selectionLength, lineLength}
}

// PostfixParams is {file, key, offset}.
func PostfixParams(file, key string, offset int) any {
	return struct {
		File   string `json:"file"`
		Key    string `json:"key"`
		Offset int    `json:"offset"`
	}{file, key, offset}
}

// ImportElementsParams is the payload of edit.importElements.
func ImportElementsParams(file string, elements []ImportedElements, offset *int) any {
	if elements == nil {
		elements = []ImportedElements{}
	}
	return struct {
		File     string             `json:"file"`
		Elements []ImportedElements `json:"elements"`
		Offset   *int               `json:"offset,omitempty"`
	}{file, elements, offset}
}

// ElementReferencesParams is the payload of search.findElementReferences.
func ElementReferencesParams(file string, offset int, includePotential bool) any {
	return struct {
		File             string `json:"file"`
		Offset           int    `json:"offset"`
		IncludePotential bool   `json:"includePotential"`
	}{file, offset, includePotential}
}

// NameParams is {name}.
func NameParams(name string) any {
	return struct {
		Name string `json:"name"`
	}{name}
}

// PatternParams is {pattern}.
func PatternParams(pattern string) any {
	return struct {
		Pattern string `json:"pattern"`
	}{pattern}
}

// TypeHierarchyParams is the payload of search.getTypeHierarchy.
func TypeHierarchyParams(file string, offset int, superOnly bool) any {
	return struct {
		File      string `json:"file"`
		Offset    int    `json:"offset"`
		SuperOnly bool   `json:"superOnly,omitempty"`
	}{file, offset, superOnly}
}

// IDParams is {id}.
func IDParams(id string) any {
	return struct {
		ID string `json:"id"`
	}{id}
}

// ContextRootParams is the payload of execution.createContext.
func ContextRootParams(contextRoot string) any {
	return struct {
		ContextRoot string `json:"contextRoot"`
	}{contextRoot}
}

// MapURIParams is the payload of execution.mapUri. Exactly one of file and uri
// should be non-empty.
func MapURIParams(id, file, uri string) any {
	return struct {
		ID   string `json:"id"`
		File string `json:"file,omitempty"`
		URI  string `json:"uri,omitempty"`
	}{id, file, uri}
}

// ValueParams is {value}.
func ValueParams(value bool) any {
	return struct {
		Value bool `json:"value"`
	}{value}
}

// ActionParams is {action}.
func ActionParams(action string) any {
	return struct {
		Action string `json:"action"`
	}{action}
}

// TimingParams is the payload of analytics.sendTiming.
func TimingParams(event string, millis int64) any {
	return struct {
		Event  string `json:"event"`
		Millis int64  `json:"millis"`
	}{event, millis}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
