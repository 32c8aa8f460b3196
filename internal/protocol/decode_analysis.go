package protocol

import (
	"github.com/tidwall/gjson"
)

// FileErrors is the payload of an analysis.errors notification.
type FileErrors struct {
	File   string
	Errors []AnalysisError
}

// FileHighlights is the payload of an analysis.highlights notification.
type FileHighlights struct {
	File    string
	Regions []HighlightRegion
}

// FileImplemented is the payload of an analysis.implemented notification.
type FileImplemented struct {
	File    string
	Classes []ImplementedClass
	Members []ImplementedMember
}

// FileNavigation is the payload of an analysis.navigation notification.
type FileNavigation struct {
	File       string
	Navigation Navigation
}

// FileOccurrences is the payload of an analysis.occurrences notification.
type FileOccurrences struct {
	File        string
	Occurrences []Occurrences
}

// FileOutline is the payload of an analysis.outline notification.
type FileOutline struct {
	File        string
	Kind        string
	LibraryName string
	Outline     Outline
}

// FileOverrides is the payload of an analysis.overrides notification.
type FileOverrides struct {
	File      string
	Overrides []OverrideMember
}

// FileClosingLabels is the payload of an analysis.closingLabels notification.
type FileClosingLabels struct {
	File   string
	Labels []ClosingLabel
}

func readHighlightRegion(r *reader, v gjson.Result) HighlightRegion {
	return HighlightRegion{
		Type:   r.str(v, "type"),
		Offset: r.int(v, "offset"),
		Length: r.int(v, "length"),
	}
}

func readNavigationTarget(r *reader, v gjson.Result) NavigationTarget {
	return NavigationTarget{
		Kind:        r.str(v, "kind"),
		FileIndex:   r.int(v, "fileIndex"),
		Offset:      r.int(v, "offset"),
		Length:      r.int(v, "length"),
		StartLine:   r.int(v, "startLine"),
		StartColumn: r.int(v, "startColumn"),
	}
}

func readNavigationRegion(r *reader, v gjson.Result) NavigationRegion {
	return NavigationRegion{
		Offset:  r.int(v, "offset"),
		Length:  r.int(v, "length"),
		Targets: r.ints(v, "targets"),
	}
}

func readNavigation(r *reader, v gjson.Result) Navigation {
	return Navigation{
		Files:   r.strings(v, "files"),
		Targets: list(r, r.array(v, "targets"), readNavigationTarget),
		Regions: list(r, r.array(v, "regions"), readNavigationRegion),
	}
}

func readOccurrences(r *reader, v gjson.Result) Occurrences {
	return Occurrences{
		Element: readElement(r, r.object(v, "element")),
		Offsets: r.ints(v, "offsets"),
		Length:  r.int(v, "length"),
	}
}

func readOutline(r *reader, v gjson.Result) Outline {
	o := Outline{
		Element:  readElement(r, r.object(v, "element")),
		Offset:   r.int(v, "offset"),
		Length:   r.int(v, "length"),
		Children: list(r, r.optArray(v, "children"), readOutline),
	}
	if n := r.optInt(v, "codeOffset"); n != nil {
		o.CodeOffset = *n
	}
	if n := r.optInt(v, "codeLength"); n != nil {
		o.CodeLength = *n
	}
	return o
}

func readOverriddenMember(r *reader, v gjson.Result) OverriddenMember {
	return OverriddenMember{
		Element:   readElement(r, r.object(v, "element")),
		ClassName: r.str(v, "className"),
	}
}

func readOverrideMember(r *reader, v gjson.Result) OverrideMember {
	o := OverrideMember{
		Offset:           r.int(v, "offset"),
		Length:           r.int(v, "length"),
		InterfaceMembers: list(r, r.optArray(v, "interfaceMembers"), readOverriddenMember),
	}
	if sup, ok := r.optObject(v, "superclassMember"); ok {
		m := readOverriddenMember(r, sup)
		o.SuperclassMember = &m
	}
	return o
}

func readImplementedClass(r *reader, v gjson.Result) ImplementedClass {
	return ImplementedClass{Offset: r.int(v, "offset"), Length: r.int(v, "length")}
}

func readImplementedMember(r *reader, v gjson.Result) ImplementedMember {
	return ImplementedMember{Offset: r.int(v, "offset"), Length: r.int(v, "length")}
}

func readClosingLabel(r *reader, v gjson.Result) ClosingLabel {
	return ClosingLabel{
		Offset: r.int(v, "offset"),
		Length: r.int(v, "length"),
		Label:  r.str(v, "label"),
	}
}

func readHover(r *reader, v gjson.Result) HoverInformation {
	return HoverInformation{
		Offset:                     r.int(v, "offset"),
		Length:                     r.int(v, "length"),
		ContainingLibraryPath:      r.optStr(v, "containingLibraryPath"),
		ContainingLibraryName:      r.optStr(v, "containingLibraryName"),
		ContainingClassDescription: r.optStr(v, "containingClassDescription"),
		Dartdoc:                    r.optStr(v, "dartdoc"),
		ElementDescription:         r.optStr(v, "elementDescription"),
		ElementKind:                r.optStr(v, "elementKind"),
		IsDeprecated:               r.flag(v, "isDeprecated"),
		Parameter:                  r.optStr(v, "parameter"),
		PropagatedType:             r.optStr(v, "propagatedType"),
		StaticType:                 r.optStr(v, "staticType"),
	}
}

func readImportedElements(r *reader, v gjson.Result) ImportedElements {
	return ImportedElements{
		Path:     r.str(v, "path"),
		Prefix:   r.str(v, "prefix"),
		Elements: r.strings(v, "elements"),
	}
}

// DecodeErrorsResult decodes the result of analysis.getErrors.
func DecodeErrorsResult(v gjson.Result) ([]AnalysisError, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []AnalysisError {
		return list(r, r.array(v, "errors"), readAnalysisError)
	})
}

// DecodeHoverResult decodes the result of analysis.getHover.
func DecodeHoverResult(v gjson.Result) ([]HoverInformation, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []HoverInformation {
		return list(r, r.array(v, "hovers"), readHover)
	})
}

// DecodeNavigationResult decodes the result of analysis.getNavigation.
func DecodeNavigationResult(v gjson.Result) (Navigation, error) {
	return decodeWith(v, readNavigation)
}

// DecodeLibraryDependenciesResult decodes the result of
// analysis.getLibraryDependencies.
func DecodeLibraryDependenciesResult(v gjson.Result) (LibraryDependencies, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) LibraryDependencies {
		deps := LibraryDependencies{
			Libraries:  r.strings(v, "libraries"),
			PackageMap: make(map[string]map[string][]string),
		}
		r.object(v, "packageMap").ForEach(func(context, packages gjson.Result) bool {
			pkgs := make(map[string][]string)
			packages.ForEach(func(name, paths gjson.Result) bool {
				pkgs[name.String()] = r.stringList("packageMap", paths.Array())
				return r.err == nil
			})
			deps.PackageMap[context.String()] = pkgs
			return r.err == nil
		})
		return deps
	})
}

// DecodeReachableSourcesResult decodes the result of
// analysis.getReachableSources.
func DecodeReachableSourcesResult(v gjson.Result) (ReachableSources, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) ReachableSources {
		sources := make(ReachableSources)
		r.object(v, "sources").ForEach(func(key, value gjson.Result) bool {
			if !value.IsArray() {
				r.fail("sources", "map of arrays")
				return false
			}
			sources[key.String()] = r.stringList("sources", value.Array())
			return r.err == nil
		})
		return sources
	})
}

// DecodeImportedElementsResult decodes the result of
// analysis.getImportedElements.
func DecodeImportedElementsResult(v gjson.Result) ([]ImportedElements, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []ImportedElements {
		return list(r, r.array(v, "elements"), readImportedElements)
	})
}

// DecodeAnalyzedFiles decodes the params of analysis.analyzedFiles.
func DecodeAnalyzedFiles(v gjson.Result) ([]string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []string {
		return r.strings(v, "directories")
	})
}

// DecodeFileErrors decodes the params of analysis.errors.
func DecodeFileErrors(v gjson.Result) (FileErrors, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileErrors {
		return FileErrors{
			File:   r.str(v, "file"),
			Errors: list(r, r.array(v, "errors"), readAnalysisError),
		}
	})
}

// DecodeFlushResults decodes the params of analysis.flushResults.
func DecodeFlushResults(v gjson.Result) ([]string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) []string {
		return r.strings(v, "files")
	})
}

// DecodeFileHighlights decodes the params of analysis.highlights.
func DecodeFileHighlights(v gjson.Result) (FileHighlights, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileHighlights {
		return FileHighlights{
			File:    r.str(v, "file"),
			Regions: list(r, r.array(v, "regions"), readHighlightRegion),
		}
	})
}

// DecodeFileImplemented decodes the params of analysis.implemented.
func DecodeFileImplemented(v gjson.Result) (FileImplemented, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileImplemented {
		return FileImplemented{
			File:    r.str(v, "file"),
			Classes: list(r, r.array(v, "classes"), readImplementedClass),
			Members: list(r, r.array(v, "members"), readImplementedMember),
		}
	})
}

// DecodeFileNavigation decodes the params of analysis.navigation.
func DecodeFileNavigation(v gjson.Result) (FileNavigation, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileNavigation {
		return FileNavigation{
			File:       r.str(v, "file"),
			Navigation: readNavigation(r, v),
		}
	})
}

// DecodeFileOccurrences decodes the params of analysis.occurrences.
func DecodeFileOccurrences(v gjson.Result) (FileOccurrences, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileOccurrences {
		return FileOccurrences{
			File:        r.str(v, "file"),
			Occurrences: list(r, r.array(v, "occurrences"), readOccurrences),
		}
	})
}

// DecodeFileOutline decodes the params of analysis.outline.
func DecodeFileOutline(v gjson.Result) (FileOutline, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileOutline {
		return FileOutline{
			File:        r.str(v, "file"),
			Kind:        r.optStr(v, "kind"),
			LibraryName: r.optStr(v, "libraryName"),
			Outline:     readOutline(r, r.object(v, "outline")),
		}
	})
}

// DecodeFileOverrides decodes the params of analysis.overrides.
func DecodeFileOverrides(v gjson.Result) (FileOverrides, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileOverrides {
		return FileOverrides{
			File:      r.str(v, "file"),
			Overrides: list(r, r.array(v, "overrides"), readOverrideMember),
		}
	})
}

// DecodeFileClosingLabels decodes the params of analysis.closingLabels.
func DecodeFileClosingLabels(v gjson.Result) (FileClosingLabels, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) FileClosingLabels {
		return FileClosingLabels{
			File:   r.str(v, "file"),
			Labels: list(r, r.array(v, "labels"), readClosingLabel),
		}
	})
}
