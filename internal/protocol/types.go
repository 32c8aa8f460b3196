package protocol

// Location is a range of characters within a file.
type Location struct {
	File        string `json:"file"`
	Offset      int    `json:"offset"`
	Length      int    `json:"length"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
}

// Position is a single offset within a file.
type Position struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
}

// Severity values for AnalysisError.
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// AnalysisError is a problem reported for a file.
type AnalysisError struct {
	Severity   string
	Type       string
	Location   Location
	Message    string
	Correction string
	Code       string
	URL        string
	HasFix     bool
}

// AnalysisErrorFixes pairs an error with the changes that would fix it.
type AnalysisErrorFixes struct {
	Error AnalysisError
	Fixes []SourceChange
}

// SourceEdit replaces Length characters at Offset with Replacement.
type SourceEdit struct {
	Offset      int    `json:"offset"`
	Length      int    `json:"length"`
	Replacement string `json:"replacement"`
	ID          string `json:"id,omitempty"`
}

// SourceFileEdit is the set of edits for a single file.
type SourceFileEdit struct {
	File      string
	FileStamp int64
	Edits     []SourceEdit
}

// LinkedEditSuggestion is a value offered for a linked edit group.
type LinkedEditSuggestion struct {
	Value string
	Kind  string
}

// LinkedEditGroup is a set of positions that should be edited together.
type LinkedEditGroup struct {
	Positions   []Position
	Length      int
	Suggestions []LinkedEditSuggestion
}

// SourceChange is a description of a set of edits across files.
type SourceChange struct {
	Message          string
	Edits            []SourceFileEdit
	LinkedEditGroups []LinkedEditGroup
	Selection        *Position
	ID               string
}

// Element flag bits.
const (
	FlagAbstract         = 0x01
	FlagConst            = 0x02
	FlagFinal            = 0x04
	FlagTopLevelOrStatic = 0x08
	FlagPrivate          = 0x10
	FlagDeprecated       = 0x20
)

// Element describes a declaration.
type Element struct {
	Kind           string
	Name           string
	Location       *Location
	Flags          int
	Parameters     string
	ReturnType     string
	TypeParameters string
	AliasedType    string
}

// IsAbstract reports whether the element is abstract.
func (e Element) IsAbstract() bool { return e.Flags&FlagAbstract != 0 }

// IsConst reports whether the element is const.
func (e Element) IsConst() bool { return e.Flags&FlagConst != 0 }

// IsFinal reports whether the element is final.
func (e Element) IsFinal() bool { return e.Flags&FlagFinal != 0 }

// IsTopLevelOrStatic reports whether the element is top level or static.
func (e Element) IsTopLevelOrStatic() bool { return e.Flags&FlagTopLevelOrStatic != 0 }

// IsPrivate reports whether the element is private.
func (e Element) IsPrivate() bool { return e.Flags&FlagPrivate != 0 }

// IsDeprecated reports whether the element is deprecated.
func (e Element) IsDeprecated() bool { return e.Flags&FlagDeprecated != 0 }

// HighlightRegion is a region to be highlighted with a semantic type.
type HighlightRegion struct {
	Type   string
	Offset int
	Length int
}

// NavigationTarget is a location a navigation region can lead to.
type NavigationTarget struct {
	Kind        string
	FileIndex   int
	Offset      int
	Length      int
	StartLine   int
	StartColumn int
}

// NavigationRegion is a source range with indices into Navigation.Targets.
type NavigationRegion struct {
	Offset  int
	Length  int
	Targets []int
}

// Navigation is the navigation information for a file or a range of it.
type Navigation struct {
	Files   []string
	Targets []NavigationTarget
	Regions []NavigationRegion
}

// TargetsOf resolves the target indices of a region. Out-of-range indices are
// skipped.
func (n Navigation) TargetsOf(region NavigationRegion) []NavigationTarget {
	out := make([]NavigationTarget, 0, len(region.Targets))
	for _, idx := range region.Targets {
		if idx >= 0 && idx < len(n.Targets) {
			out = append(out, n.Targets[idx])
		}
	}
	return out
}

// FileOf returns the file a target points into.
func (n Navigation) FileOf(target NavigationTarget) string {
	if target.FileIndex < 0 || target.FileIndex >= len(n.Files) {
		return ""
	}
	return n.Files[target.FileIndex]
}

// Occurrences lists every reference to a single element within a file.
type Occurrences struct {
	Element Element
	Offsets []int
	Length  int
}

// Outline is a node of a file's structural outline.
type Outline struct {
	Element    Element
	Offset     int
	Length     int
	CodeOffset int
	CodeLength int
	Children   []Outline
}

// OverriddenMember is a member that is overridden by an OverrideMember.
type OverriddenMember struct {
	Element   Element
	ClassName string
}

// OverrideMember is a member that overrides a superclass or interface member.
type OverrideMember struct {
	Offset           int
	Length           int
	SuperclassMember *OverriddenMember
	InterfaceMembers []OverriddenMember
}

// ImplementedClass is a class that has subtypes.
type ImplementedClass struct {
	Offset int
	Length int
}

// ImplementedMember is a member that is implemented or overridden.
type ImplementedMember struct {
	Offset int
	Length int
}

// ClosingLabel is a label shown after the closing of a long construct.
type ClosingLabel struct {
	Offset int
	Length int
	Label  string
}

// CompletionSuggestion is a single completion proposal.
type CompletionSuggestion struct {
	Kind                      string
	Relevance                 int
	Completion                string
	DisplayText               string
	SelectionOffset           int
	SelectionLength           int
	IsDeprecated              bool
	IsPotential               bool
	DocSummary                string
	DocComplete               string
	DeclaringType             string
	DefaultArgumentListString string
	ReturnType                string
	ParameterNames            []string
	ParameterTypes            []string
	RequiredParameterCount    *int
	HasNamedParameters        *bool
	ParameterName             string
	ParameterType             string
	ImportURI                 string
	Element                   *Element
}

// CompletionResults is one batch of suggestions for a completion id.
type CompletionResults struct {
	ID                string
	ReplacementOffset int
	ReplacementLength int
	Results           []CompletionSuggestion
	IsLast            bool
}

// SearchResult is a single match of a search.
type SearchResult struct {
	Location    Location
	Kind        string
	IsPotential bool
	Path        []Element
}

// SearchResults is one batch of results for a search id.
type SearchResults struct {
	ID      string
	Results []SearchResult
	IsLast  bool
}

// TypeHierarchyItem is a class in a type hierarchy. Superclass, Interfaces,
// Mixins and Subclasses are indices into the enclosing hierarchy list.
type TypeHierarchyItem struct {
	ClassElement  Element
	DisplayName   string
	MemberElement *Element
	Superclass    *int
	Interfaces    []int
	Mixins        []int
	Subclasses    []int
}

// HoverInformation is the information shown when hovering over a range.
type HoverInformation struct {
	Offset                     int
	Length                     int
	ContainingLibraryPath      string
	ContainingLibraryName      string
	ContainingClassDescription string
	Dartdoc                    string
	ElementDescription         string
	ElementKind                string
	IsDeprecated               bool
	Parameter                  string
	PropagatedType             string
	StaticType                 string
}

// LibraryDependencies lists the libraries referenced by analysis roots and the
// package maps of their contexts.
type LibraryDependencies struct {
	Libraries  []string
	PackageMap map[string]map[string][]string
}

// ImportedElements lists the elements imported from one library.
type ImportedElements struct {
	Path     string   `json:"path"`
	Prefix   string   `json:"prefix"`
	Elements []string `json:"elements"`
}

// FormatResult is the outcome of edit.format.
type FormatResult struct {
	Edits           []SourceEdit
	SelectionOffset int
	SelectionLength int
}

// StatementCompletion is the outcome of edit.getStatementCompletion.
type StatementCompletion struct {
	Change         SourceChange
	WhitespaceOnly bool
}

// PostfixTemplateDescriptor describes a postfix completion template.
type PostfixTemplateDescriptor struct {
	Name    string
	Key     string
	Example string
}

// LaunchData describes how a file can be launched.
type LaunchData struct {
	File            string
	Kind            string
	ReferencedFiles []string
}

// AnalysisStatus is the analysis part of a server.status notification.
type AnalysisStatus struct {
	IsAnalyzing    bool
	AnalysisTarget string
}

// PubStatus is the pub part of a server.status notification.
type PubStatus struct {
	IsListingPackageDirs bool
}

// ServerStatus is the payload of a server.status notification. Either part may
// be absent.
type ServerStatus struct {
	Analysis *AnalysisStatus
	Pub      *PubStatus
}

// ServerError is an error reported by the engine itself, either through a
// server.error notification or recovered from its diagnostic stream.
type ServerError struct {
	IsFatal    bool
	Message    string
	StackTrace string
}

// ServerConnected is the payload of a server.connected notification.
type ServerConnected struct {
	Version string
	PID     int
}

// MapURIResult is the outcome of execution.mapUri.
type MapURIResult struct {
	File string
	URI  string
}

// ReachableSources maps each source URI to the URIs it can reach.
type ReachableSources map[string][]string
