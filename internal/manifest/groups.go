package manifest

// Group names a set of repositories and the other groups it includes.
type Group struct {
	Name     string
	Elements []string
	Includes []string
}

// GroupList resolves group names into the set of repositories they select.
type GroupList struct {
	knownElements map[string]struct{}
	allElements   []string
	groups        map[string]Group
}

// NewGroupList constructs a GroupList over the known elements, kept in the given order.
func NewGroupList(elements []string) *GroupList {
	knownElements := make(map[string]struct{}, len(elements))
	for _, element := range elements {
		knownElements[element] = struct{}{}
	}
	return &GroupList{
		knownElements: knownElements,
		allElements:   append([]string(nil), elements...),
		groups:        make(map[string]Group),
	}
}

// Add registers a group. Every element must be known; includes are checked lazily on resolution.
func (groupList *GroupList) Add(name string, elements []string, includes []string) error {
	for _, element := range elements {
		if _, known := groupList.knownElements[element]; !known {
			return UnknownElementError{GroupName: name, Element: element}
		}
	}
	groupList.groups[name] = Group{
		Name:     name,
		Elements: append([]string(nil), elements...),
		Includes: append([]string(nil), includes...),
	}
	return nil
}

// Group returns the named group and whether it exists.
func (groupList *GroupList) Group(name string) (Group, bool) {
	group, exists := groupList.groups[name]
	return group, exists
}

// Elements returns the elements selected by groupNames and their includes, in known-element order.
// With no group names every known element is returned. Include cycles are visited once.
func (groupList *GroupList) Elements(groupNames []string) ([]string, error) {
	if len(groupNames) == 0 {
		return append([]string(nil), groupList.allElements...), nil
	}

	selected := make(map[string]struct{})
	visited := make(map[string]struct{})
	if collectError := groupList.collect(groupNames, "", selected, visited); collectError != nil {
		return nil, collectError
	}

	elements := make([]string, 0, len(selected))
	for _, element := range groupList.allElements {
		if _, isSelected := selected[element]; isSelected {
			elements = append(elements, element)
		}
	}
	return elements, nil
}

func (groupList *GroupList) collect(groupNames []string, parentGroup string, selected map[string]struct{}, visited map[string]struct{}) error {
	for _, groupName := range groupNames {
		if _, seen := visited[groupName]; seen {
			continue
		}
		group, exists := groupList.groups[groupName]
		if !exists {
			return GroupNotFoundError{GroupName: groupName, ParentGroup: parentGroup}
		}
		visited[groupName] = struct{}{}
		for _, element := range group.Elements {
			selected[element] = struct{}{}
		}
		if includeError := groupList.collect(group.Includes, group.Name, selected, visited); includeError != nil {
			return includeError
		}
	}
	return nil
}

// UngroupedElements returns the known elements that no group lists, in known-element order.
func (groupList *GroupList) UngroupedElements() []string {
	grouped := make(map[string]struct{})
	for _, group := range groupList.groups {
		for _, element := range group.Elements {
			grouped[element] = struct{}{}
		}
	}
	ungrouped := make([]string, 0, len(groupList.allElements))
	for _, element := range groupList.allElements {
		if _, isGrouped := grouped[element]; !isGrouped {
			ungrouped = append(ungrouped, element)
		}
	}
	return ungrouped
}
