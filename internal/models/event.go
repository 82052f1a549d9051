package models

// ItemEventResponse is the response envelope threaded through every side effect of an
// item event request and returned to the client once all actions have run.
type ItemEventResponse struct {
	Warnings       []Warning                 `json:"warnings"`
	ProfileChanges map[string]*ProfileChange `json:"profileChanges"`
}

// Warning reports a failed action back to the client
type Warning struct {
	Index  int    `json:"index"`
	ErrMsg string `json:"errmsg"`
	Code   string `json:"code,omitempty"`
}

// ProfileChange collects the mutations applied to one profile
type ProfileChange struct {
	ID              string                    `json:"_id"`
	Items           ItemChanges               `json:"items"`
	TraderRelations map[string]TraderRelation `json:"traderRelations"`
}

type ItemChanges struct {
	New    []InventoryItem `json:"new"`
	Change []InventoryItem `json:"change"`
	Del    []InventoryItem `json:"del"`
}

type TraderRelation struct {
	SalesSum int64 `json:"salesSum"`
}

func NewItemEventResponse() *ItemEventResponse {
	return &ItemEventResponse{
		Warnings:       []Warning{},
		ProfileChanges: make(map[string]*ProfileChange),
	}
}

// ChangesFor returns the change set for a profile, creating it on first use.
func (r *ItemEventResponse) ChangesFor(profileID string) *ProfileChange {
	if r.ProfileChanges == nil {
		r.ProfileChanges = make(map[string]*ProfileChange)
	}
	change, ok := r.ProfileChanges[profileID]
	if !ok {
		change = &ProfileChange{
			ID:              profileID,
			TraderRelations: make(map[string]TraderRelation),
		}
		r.ProfileChanges[profileID] = change
	}
	return change
}

// AddWarning appends an error message for the action at index.
func (r *ItemEventResponse) AddWarning(index int, msg string) {
	r.Warnings = append(r.Warnings, Warning{Index: index, ErrMsg: msg, Code: "228"})
}
