package services

// ActionSet describes which element actions the toolbar may offer. Show
// controls whether a button is rendered at all; Can controls whether it is
// enabled. Today the two move together, but clients receive both so a button
// can be shown disabled without a contract change.
type ActionSet struct {
	ShowEdit   bool `json:"show_edit"`
	ShowDelete bool `json:"show_delete"`
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanConnect bool `json:"can_connect"`
}

// AvailabilityFor maps a selection classification to the permitted actions.
// Edit and delete require exactly one selected element; connecting starts
// from a single node, so it follows the same rule.
func AvailabilityFor(classification Classification) ActionSet {
	if classification == ClassificationSingle {
		return ActionSet{
			ShowEdit:   true,
			ShowDelete: true,
			CanEdit:    true,
			CanDelete:  true,
			CanConnect: true,
		}
	}
	return ActionSet{}
}

// ActionAvailability evaluates toolbar actions against the live selection
type ActionAvailability struct {
	selection *SelectionCoordinator
}

// NewActionAvailability creates an action availability policy bound to a selection
func NewActionAvailability(selection *SelectionCoordinator) *ActionAvailability {
	return &ActionAvailability{selection: selection}
}

// Current returns the action set for the selection as it stands now
func (a *ActionAvailability) Current() ActionSet {
	return AvailabilityFor(a.selection.Classify())
}
