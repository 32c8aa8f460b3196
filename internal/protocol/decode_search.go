package protocol

import (
	"github.com/tidwall/gjson"
)

// ElementReferences is the result of search.findElementReferences. Element is
// nil and ID empty when there was no element at the offset.
type ElementReferences struct {
	ID      string
	Element *Element
}

// TypeHierarchy is the result of search.getTypeHierarchy. Items is nil when
// there was no type at the offset.
type TypeHierarchy struct {
	Items []TypeHierarchyItem
}

func readSearchResult(r *reader, v gjson.Result) SearchResult {
	return SearchResult{
		Location:    readLocation(r, r.object(v, "location")),
		Kind:        r.str(v, "kind"),
		IsPotential: r.bool(v, "isPotential"),
		Path:        list(r, r.array(v, "path"), readElement),
	}
}

func readTypeHierarchyItem(r *reader, v gjson.Result) TypeHierarchyItem {
	item := TypeHierarchyItem{
		ClassElement: readElement(r, r.object(v, "classElement")),
		DisplayName:  r.optStr(v, "displayName"),
		Superclass:   r.optInt(v, "superclass"),
		Interfaces:   r.ints(v, "interfaces"),
		Mixins:       r.ints(v, "mixins"),
		Subclasses:   r.ints(v, "subclasses"),
	}
	if m, ok := r.optObject(v, "memberElement"); ok {
		e := readElement(r, m)
		item.MemberElement = &e
	}
	return item
}

// DecodeSearchID decodes the result of the search.find* requests that return a
// search id.
func DecodeSearchID(v gjson.Result) (string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) string {
		return r.str(v, "id")
	})
}

// DecodeElementReferencesResult decodes the result of
// search.findElementReferences.
func DecodeElementReferencesResult(v gjson.Result) (ElementReferences, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) ElementReferences {
		refs := ElementReferences{ID: r.optStr(v, "id")}
		if el, ok := r.optObject(v, "element"); ok {
			e := readElement(r, el)
			refs.Element = &e
		}
		return refs
	})
}

// DecodeTypeHierarchyResult decodes the result of search.getTypeHierarchy.
func DecodeTypeHierarchyResult(v gjson.Result) (TypeHierarchy, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) TypeHierarchy {
		items := r.optArray(v, "hierarchyItems")
		if items == nil {
			return TypeHierarchy{}
		}
		return TypeHierarchy{Items: list(r, items, readTypeHierarchyItem)}
	})
}

// DecodeSearchResults decodes the params of search.results.
func DecodeSearchResults(v gjson.Result) (SearchResults, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) SearchResults {
		return SearchResults{
			ID:      r.str(v, "id"),
			Results: list(r, r.array(v, "results"), readSearchResult),
			IsLast:  r.bool(v, "isLast"),
		}
	})
}
